package channel

import (
	"context"

	"github.com/google/uuid"

	"github.com/Zendevve/vscord/internal/channel/model"
)

type ChannelRepository interface {
	// CreateChannelWithOwner inserts the channel row and the owner's
	// admin membership in one transaction.
	CreateChannelWithOwner(ctx context.Context, ch *model.Channel, owner *model.ChannelMember) error

	GetChannelByID(ctx context.Context, id uuid.UUID) (*model.Channel, error)
	GetChannelByInviteCode(ctx context.Context, code string) (*model.Channel, error)
	InviteCodeExists(ctx context.Context, code string) (bool, error)

	AddMember(ctx context.Context, member *model.ChannelMember) error
	RemoveMember(ctx context.Context, channelID uuid.UUID, githubID int64) error
	GetMember(ctx context.Context, channelID uuid.UUID, githubID int64) (*model.ChannelMember, error)
	ListMembers(ctx context.Context, channelID uuid.UUID) ([]model.ChannelMember, error)
	CountMembers(ctx context.Context, channelID uuid.UUID) (int, error)

	// ListUserChannels backs the subscription set at login.
	ListUserChannels(ctx context.Context, githubID int64) ([]model.Channel, error)
}
