package usecase

import (
	"context"
	"crypto/rand"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Zendevve/vscord/internal/channel"
	"github.com/Zendevve/vscord/internal/channel/model"
	"github.com/Zendevve/vscord/pkg/errors"
	"github.com/Zendevve/vscord/pkg/logger"
)

// inviteAlphabet omits 0/O/I/1 so codes survive being read aloud or
// retyped. 32 symbols, 6 positions: ~10^9 codes.
const (
	inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteCodeLen  = 6

	minNameLen = 3
	maxNameLen = 30

	maxCodeAttempts = 5
)

type ChannelUsecase struct {
	repo   channel.ChannelRepository
	logger logger.Logger
}

func NewChannelUsecase(repo channel.ChannelRepository, logger logger.Logger) *ChannelUsecase {
	return &ChannelUsecase{repo: repo, logger: logger}
}

func (uc *ChannelUsecase) Create(ctx context.Context, cmd channel.CreateCommand) (*channel.ChannelDTO, error) {
	if err := validateName(cmd.Name); err != nil {
		return nil, err
	}
	if cmd.OwnerID == 0 {
		return nil, errors.ErrIdentityRequired
	}

	code, err := uc.generateInviteCode(ctx)
	if err != nil {
		uc.logger.Error("failed to generate invite code", "err", err)
		return nil, errors.Internal("internal server error")
	}

	ch := &model.Channel{
		Name:       cmd.Name,
		OwnerID:    cmd.OwnerID,
		InviteCode: code,
	}
	owner := &model.ChannelMember{
		GithubID: cmd.OwnerID,
		Username: cmd.OwnerUsername,
		Role:     model.RoleAdmin,
	}

	if err := uc.repo.CreateChannelWithOwner(ctx, ch, owner); err != nil {
		uc.logger.Error("failed to persist channel", "name", cmd.Name, "err", err)
		return nil, errors.Internal("internal server error")
	}

	return &channel.ChannelDTO{ID: ch.ID, Name: ch.Name, InviteCode: ch.InviteCode}, nil
}

func (uc *ChannelUsecase) Join(ctx context.Context, cmd channel.JoinCommand) (*channel.ChannelDTO, []model.ChannelMember, error) {
	if cmd.GithubID == 0 {
		return nil, nil, errors.ErrIdentityRequired
	}

	ch, err := uc.repo.GetChannelByInviteCode(ctx, cmd.InviteCode)
	if err != nil {
		return nil, nil, err
	}

	if _, err := uc.repo.GetMember(ctx, ch.ID, cmd.GithubID); err == nil {
		return nil, nil, errors.ErrAlreadyMember
	}

	count, err := uc.repo.CountMembers(ctx, ch.ID)
	if err != nil {
		uc.logger.Error("failed to count members", "channel", ch.ID, "err", err)
		return nil, nil, errors.Internal("internal server error")
	}
	if count >= model.MaxMembers {
		return nil, nil, errors.ErrChannelFull
	}

	member := &model.ChannelMember{
		ChannelID: ch.ID,
		GithubID:  cmd.GithubID,
		Username:  cmd.Username,
		Role:      model.RoleMember,
	}
	if err := uc.repo.AddMember(ctx, member); err != nil {
		uc.logger.Error("failed to add member", "channel", ch.ID, "err", err)
		return nil, nil, errors.Internal("internal server error")
	}

	roster, err := uc.repo.ListMembers(ctx, ch.ID)
	if err != nil {
		uc.logger.Error("failed to list members", "channel", ch.ID, "err", err)
		return nil, nil, errors.Internal("internal server error")
	}

	return &channel.ChannelDTO{ID: ch.ID, Name: ch.Name, InviteCode: ch.InviteCode}, roster, nil
}

func (uc *ChannelUsecase) Leave(ctx context.Context, githubID int64, channelID uuid.UUID) error {
	if _, err := uc.repo.GetMember(ctx, channelID, githubID); err != nil {
		return err
	}
	if err := uc.repo.RemoveMember(ctx, channelID, githubID); err != nil {
		uc.logger.Error("failed to remove member", "channel", channelID, "err", err)
		return errors.Internal("internal server error")
	}
	return nil
}

func (uc *ChannelUsecase) IsMember(ctx context.Context, channelID uuid.UUID, githubID int64) (bool, error) {
	_, err := uc.repo.GetMember(ctx, channelID, githubID)
	if err != nil {
		if errors.CodeOf(err) == errors.CodePermissionDenied {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (uc *ChannelUsecase) ListUserChannels(ctx context.Context, githubID int64) ([]model.Channel, error) {
	return uc.repo.ListUserChannels(ctx, githubID)
}

func (uc *ChannelUsecase) ListMembers(ctx context.Context, channelID uuid.UUID) ([]model.ChannelMember, error) {
	return uc.repo.ListMembers(ctx, channelID)
}

func (uc *ChannelUsecase) generateInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		exists, err := uc.repo.InviteCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.Internal("invite code space exhausted")
}

func randomCode() (string, error) {
	buf := make([]byte, inviteCodeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = inviteAlphabet[int(b)%len(inviteAlphabet)]
	}
	return string(buf), nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < minNameLen || n > maxNameLen {
		return errors.ErrInvalidChannelName
	}
	return nil
}
