package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/Zendevve/vscord/internal/channel/model"
	appErrors "github.com/Zendevve/vscord/pkg/errors"
	"github.com/Zendevve/vscord/pkg/logger"
)

type ChannelRepository struct {
	db     *bun.DB
	logger *logger.Logger
}

func NewChannelRepository(db *bun.DB, logger logger.Logger) *ChannelRepository {
	return &ChannelRepository{
		db:     db,
		logger: &logger,
	}
}

func (r *ChannelRepository) CreateChannelWithOwner(ctx context.Context, ch *model.Channel, owner *model.ChannelMember) error {

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(ch).Returning("*").Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "channelRepo.CreateChannelWithOwner.InsertChannel: ")
		}

		owner.ChannelID = ch.ID
		_, err = tx.NewInsert().Model(owner).Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "channelRepo.CreateChannelWithOwner.InsertOwner: ")
		}
		return nil
	})
}

func (r *ChannelRepository) GetChannelByID(ctx context.Context, id uuid.UUID) (*model.Channel, error) {

	ch := new(model.Channel)
	err := r.db.NewSelect().Model(ch).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrChannelNotFound
		}
		return nil, errors.Wrap(err, "channelRepo.GetChannelByID.Scan: ")
	}
	return ch, nil
}

func (r *ChannelRepository) GetChannelByInviteCode(ctx context.Context, code string) (*model.Channel, error) {

	ch := new(model.Channel)
	err := r.db.NewSelect().Model(ch).Where("invite_code = ?", code).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidInviteCode
		}
		return nil, errors.Wrap(err, "channelRepo.GetChannelByInviteCode.Scan: ")
	}
	return ch, nil
}

func (r *ChannelRepository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*model.Channel)(nil)).
		Where("invite_code = ?", code).
		Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, "channelRepo.InviteCodeExists.Exists: ")
	}
	return exists, nil
}

func (r *ChannelRepository) AddMember(ctx context.Context, member *model.ChannelMember) error {
	_, err := r.db.NewInsert().Model(member).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "channelRepo.AddMember.Exec: ")
	}
	return nil
}

func (r *ChannelRepository) RemoveMember(ctx context.Context, channelID uuid.UUID, githubID int64) error {
	_, err := r.db.NewDelete().
		Model((*model.ChannelMember)(nil)).
		Where("channel_id = ? AND github_id = ?", channelID, githubID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "channelRepo.RemoveMember.Exec: ")
	}
	return nil
}

func (r *ChannelRepository) GetMember(ctx context.Context, channelID uuid.UUID, githubID int64) (*model.ChannelMember, error) {

	member := new(model.ChannelMember)
	err := r.db.NewSelect().
		Model(member).
		Where("channel_id = ? AND github_id = ?", channelID, githubID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotMember
		}
		return nil, errors.Wrap(err, "channelRepo.GetMember.Scan: ")
	}
	return member, nil
}

func (r *ChannelRepository) ListMembers(ctx context.Context, channelID uuid.UUID) ([]model.ChannelMember, error) {

	var members []model.ChannelMember
	err := r.db.NewSelect().
		Model(&members).
		Where("channel_id = ?", channelID).
		Order("joined_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "channelRepo.ListMembers.Scan: ")
	}
	return members, nil
}

func (r *ChannelRepository) CountMembers(ctx context.Context, channelID uuid.UUID) (int, error) {
	count, err := r.db.NewSelect().
		Model((*model.ChannelMember)(nil)).
		Where("channel_id = ?", channelID).
		Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "channelRepo.CountMembers.Count: ")
	}
	return count, nil
}

func (r *ChannelRepository) ListUserChannels(ctx context.Context, githubID int64) ([]model.Channel, error) {

	var channels []model.Channel
	err := r.db.NewSelect().
		Model(&channels).
		Join("JOIN channel_members AS cm ON cm.channel_id = channel.id").
		Where("cm.github_id = ?", githubID).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "channelRepo.ListUserChannels.Scan: ")
	}
	return channels, nil
}
