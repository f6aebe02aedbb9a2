package channel

import (
	"context"

	"github.com/google/uuid"

	"github.com/Zendevve/vscord/internal/channel/model"
)

type ChannelUsecase interface {
	// Create persists a channel with the caller as admin and a fresh
	// invite code.
	Create(ctx context.Context, cmd CreateCommand) (*ChannelDTO, error)

	// Join resolves an invite code and adds the caller as member,
	// returning the channel and the full roster (caller included).
	Join(ctx context.Context, cmd JoinCommand) (*ChannelDTO, []model.ChannelMember, error)

	// Leave removes the caller's membership.
	Leave(ctx context.Context, githubID int64, channelID uuid.UUID) error

	// IsMember gates chat and channel-scoped operations.
	IsMember(ctx context.Context, channelID uuid.UUID, githubID int64) (bool, error)

	ListUserChannels(ctx context.Context, githubID int64) ([]model.Channel, error)
	ListMembers(ctx context.Context, channelID uuid.UUID) ([]model.ChannelMember, error)
}
