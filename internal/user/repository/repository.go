package repository

import (
	"context"
	"database/sql"

	models "github.com/Zendevve/vscord/internal/user/model"
	appErrors "github.com/Zendevve/vscord/pkg/errors"
	"github.com/Zendevve/vscord/pkg/logger"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type UserRepository struct {
	db     *bun.DB
	logger *logger.Logger
}

func NewUserRepository(db *bun.DB, logger logger.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: &logger,
	}
}

func (r *UserRepository) UpsertUser(ctx context.Context, user *models.User) error {

	_, err := r.db.NewInsert().
		Model(user).
		On("CONFLICT (github_id) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("avatar = EXCLUDED.avatar").
		Set("followers = EXCLUDED.followers").
		Set("following = EXCLUDED.following").
		Set("close_friends = EXCLUDED.close_friends").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "userRepo.UpsertUser.Exec: ")
	}
	return nil
}

func (r *UserRepository) GetUserByGithubID(ctx context.Context, githubID int64) (*models.User, error) {

	user := new(models.User)
	err := r.db.NewSelect().Model(user).Where("github_id = ?", githubID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "userRepo.GetUserByGithubID.Scan: ")
	}
	return user, nil
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {

	user := new(models.User)
	err := r.db.NewSelect().Model(user).Where("username = ?", username).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "userRepo.GetUserByUsername.Scan: ")
	}
	return user, nil
}

func (r *UserRepository) GetUsernamesByGithubIDs(ctx context.Context, githubIDs []int64) (map[int64]string, error) {
	if len(githubIDs) == 0 {
		return map[int64]string{}, nil
	}

	var users []models.User
	err := r.db.NewSelect().
		Model(&users).
		Column("github_id", "username").
		Where("github_id IN (?)", bun.In(githubIDs)).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "userRepo.GetUsernamesByGithubIDs.Scan: ")
	}

	out := make(map[int64]string, len(users))
	for _, u := range users {
		out[u.GithubID] = u.Username
	}
	return out, nil
}

func (r *UserRepository) UpdateLastSeen(ctx context.Context, githubID int64, lastSeenMS int64) error {
	_, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("last_seen = ?", lastSeenMS).
		Where("github_id = ?", githubID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "userRepo.UpdateLastSeen.Exec: ")
	}
	return nil
}

func (r *UserRepository) GetPreferences(ctx context.Context, githubID int64) (*models.Preferences, error) {

	prefs := new(models.Preferences)
	err := r.db.NewSelect().Model(prefs).Where("github_id = ?", githubID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultPreferences(githubID), nil
		}
		return nil, errors.Wrap(err, "userRepo.GetPreferences.Scan: ")
	}
	return prefs, nil
}

func (r *UserRepository) UpsertPreferences(ctx context.Context, prefs *models.Preferences) error {
	_, err := r.db.NewInsert().
		Model(prefs).
		On("CONFLICT (github_id) DO UPDATE").
		Set("visibility = EXCLUDED.visibility").
		Set("share_project = EXCLUDED.share_project").
		Set("share_language = EXCLUDED.share_language").
		Set("share_activity = EXCLUDED.share_activity").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "userRepo.UpsertPreferences.Exec: ")
	}
	return nil
}

func (r *UserRepository) RegisterGuest(ctx context.Context, username string) error {
	guest := &models.GuestUser{Username: username}

	// Names released by disconnect stay in the table; re-registering
	// the same name is not an error.
	_, err := r.db.NewInsert().
		Model(guest).
		On("CONFLICT (username) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "userRepo.RegisterGuest.Exec: ")
	}
	return nil
}
