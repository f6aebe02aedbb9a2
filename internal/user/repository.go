package user

import (
	"context"

	models "github.com/Zendevve/vscord/internal/user/model"
)

type UserRepository interface {
	// UpsertUser refreshes profile and graph on every fresh login.
	UpsertUser(ctx context.Context, user *models.User) error
	GetUserByGithubID(ctx context.Context, githubID int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUsernamesByGithubIDs resolves graph ids to handles for topic
	// subscription; unknown ids are simply absent from the result.
	GetUsernamesByGithubIDs(ctx context.Context, githubIDs []int64) (map[int64]string, error)

	// UpdateLastSeen persists the offline timestamp (ms since epoch).
	UpdateLastSeen(ctx context.Context, githubID int64, lastSeenMS int64) error

	// GetPreferences returns the stored row or the default record when
	// the user never saved one.
	GetPreferences(ctx context.Context, githubID int64) (*models.Preferences, error)
	UpsertPreferences(ctx context.Context, prefs *models.Preferences) error

	// RegisterGuest reserves a guest name. Names freed by disconnect
	// are reusable, so this is an upsert, not a uniqueness gate.
	RegisterGuest(ctx context.Context, username string) error
}
