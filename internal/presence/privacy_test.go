package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zendevve/vscord/internal/protocol"
	models "github.com/Zendevve/vscord/internal/user/model"
	appErrors "github.com/Zendevve/vscord/pkg/errors"
)

func TestAllowed(t *testing.T) {
	target := &Target{
		GithubID:     1001,
		Followers:    []int64{2001, 2002},
		Following:    []int64{2003},
		CloseFriends: []int64{2001},
	}

	cases := []struct {
		name       string
		visibility protocol.Visibility
		viewer     int64
		want       bool
	}{
		{"everyone admits strangers", protocol.VisibilityEveryone, 9999, true},
		{"everyone admits guests", protocol.VisibilityEveryone, 0, true},
		{"invisible drops everyone", protocol.VisibilityInvisible, 2001, false},
		{"followers admits a follower", protocol.VisibilityFollowers, 2001, true},
		{"followers rejects a non-follower", protocol.VisibilityFollowers, 2003, false},
		{"followers rejects guests", protocol.VisibilityFollowers, 0, false},
		{"following admits a followee", protocol.VisibilityFollowing, 2003, true},
		{"following rejects a follower", protocol.VisibilityFollowing, 2002, false},
		{"close-friends admits", protocol.VisibilityCloseFriends, 2001, true},
		{"close-friends rejects a plain follower", protocol.VisibilityCloseFriends, 2002, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tgt := *target
			tgt.Visibility = tc.visibility
			assert.Equal(t, tc.want, Allowed(Viewer{GithubID: tc.viewer}, &tgt))
		})
	}
}

func TestRedactUpdate(t *testing.T) {
	activity := protocol.ActivityCoding
	project := "vscord"
	language := "go"

	delta := protocol.Update{
		ID:       "alice",
		Activity: &activity,
		Project:  &project,
		Language: &language,
	}

	t.Run("share flags blank carried fields", func(t *testing.T) {
		target := &Target{ShareProject: false, ShareLanguage: true, ShareActivity: false}

		got := RedactUpdate(delta, target)
		require.NotNil(t, got.Project)
		assert.Empty(t, *got.Project)
		require.NotNil(t, got.Language)
		assert.Equal(t, "go", *got.Language)
		require.NotNil(t, got.Activity)
		assert.Equal(t, protocol.ActivityHidden, *got.Activity)

		// The input delta is untouched.
		assert.Equal(t, "vscord", *delta.Project)
	})

	t.Run("absent fields stay absent", func(t *testing.T) {
		target := &Target{ShareProject: false, ShareLanguage: false, ShareActivity: false}

		got := RedactUpdate(protocol.Update{ID: "alice"}, target)
		assert.Nil(t, got.Project)
		assert.Nil(t, got.Language)
		assert.Nil(t, got.Activity)
	})
}

func TestRedactOnline(t *testing.T) {
	target := &Target{ShareProject: true, ShareLanguage: false, ShareActivity: true}

	got := RedactOnline(protocol.Online{
		ID:       "alice",
		Status:   protocol.StatusOnline,
		Activity: protocol.ActivityCoding,
		Project:  "vscord",
		Language: "go",
	}, target)

	assert.Equal(t, "vscord", got.Project)
	assert.Empty(t, got.Language)
	assert.Equal(t, protocol.ActivityCoding, got.Activity)
}

// fakeUserRepo backs the Resolver without a database.
type fakeUserRepo struct {
	users map[string]*models.User
	prefs map[int64]*models.Preferences

	lookups int
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	f.lookups++
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, appErrors.ErrUserNotFound
}

func (f *fakeUserRepo) GetPreferences(ctx context.Context, githubID int64) (*models.Preferences, error) {
	if p, ok := f.prefs[githubID]; ok {
		return p, nil
	}
	return models.DefaultPreferences(githubID), nil
}

func (f *fakeUserRepo) UpsertUser(ctx context.Context, u *models.User) error { return nil }

func (f *fakeUserRepo) GetUserByGithubID(ctx context.Context, id int64) (*models.User, error) {
	return nil, appErrors.ErrUserNotFound
}

func (f *fakeUserRepo) GetUsernamesByGithubIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	return map[int64]string{}, nil
}

func (f *fakeUserRepo) UpdateLastSeen(ctx context.Context, id, ms int64) error { return nil }

func (f *fakeUserRepo) UpsertPreferences(ctx context.Context, p *models.Preferences) error {
	return nil
}

func (f *fakeUserRepo) RegisterGuest(ctx context.Context, username string) error { return nil }

func TestResolver(t *testing.T) {
	repo := &fakeUserRepo{
		users: map[string]*models.User{
			"alice": {GithubID: 1001, Username: "alice", Followers: []int64{2001}},
		},
		prefs: map[int64]*models.Preferences{
			1001: {GithubID: 1001, Visibility: "followers", ShareProject: false, ShareLanguage: true, ShareActivity: true},
		},
	}

	r := NewResolver(repo)
	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	t.Run("known user resolves prefs and graph", func(t *testing.T) {
		target, err := r.Target(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1001), target.GithubID)
		assert.Equal(t, protocol.VisibilityFollowers, target.Visibility)
		assert.False(t, target.ShareProject)
		assert.Equal(t, []int64{2001}, target.Followers)
	})

	t.Run("cache short-circuits repeat lookups", func(t *testing.T) {
		before := repo.lookups
		_, err := r.Target(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, before, repo.lookups)
	})

	t.Run("ttl expiry refetches", func(t *testing.T) {
		before := repo.lookups
		now = now.Add(resolverTTL + time.Second)
		_, err := r.Target(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, before+1, repo.lookups)
	})

	t.Run("invalidate refetches immediately", func(t *testing.T) {
		before := repo.lookups
		r.Invalidate("alice")
		_, err := r.Target(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, before+1, repo.lookups)
	})

	t.Run("unknown username reads as guest", func(t *testing.T) {
		target, err := r.Target(context.Background(), "drifter")
		require.NoError(t, err)
		assert.Zero(t, target.GithubID)
		assert.Equal(t, protocol.VisibilityEveryone, target.Visibility)
		assert.True(t, target.ShareProject)
	})
}
