package presence

import (
	"context"
	"sync"
	"time"

	"github.com/Zendevve/vscord/internal/protocol"
	"github.com/Zendevve/vscord/internal/user"
	appErrors "github.com/Zendevve/vscord/pkg/errors"
)

// Viewer is the egress side of a privacy decision. GithubID is 0 for
// guests.
type Viewer struct {
	GithubID int64
}

// Target carries everything the filter needs about the user whose
// event is being delivered.
type Target struct {
	GithubID     int64
	Visibility   protocol.Visibility
	Followers    []int64
	Following    []int64
	CloseFriends []int64

	ShareProject  bool
	ShareLanguage bool
	ShareActivity bool
}

// Allowed decides whether the viewer may receive the target's
// presence events. Channel-scoped messages bypass this entirely.
func Allowed(v Viewer, t *Target) bool {
	switch t.Visibility {
	case protocol.VisibilityInvisible:
		return false
	case protocol.VisibilityEveryone:
		return true
	}

	// Everything below requires an authenticated viewer.
	if v.GithubID == 0 {
		return false
	}

	switch t.Visibility {
	case protocol.VisibilityFollowers:
		return containsID(t.Followers, v.GithubID)
	case protocol.VisibilityFollowing:
		return containsID(t.Following, v.GithubID)
	case protocol.VisibilityCloseFriends:
		return containsID(t.CloseFriends, v.GithubID)
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// RedactUpdate clears withheld fields from a delta. It runs after
// delta computation, so a field the delta never carried stays absent
// while a carried field is blanked rather than dropped.
func RedactUpdate(u protocol.Update, t *Target) protocol.Update {
	if !t.ShareProject && u.Project != nil {
		empty := ""
		u.Project = &empty
	}
	if !t.ShareLanguage && u.Language != nil {
		empty := ""
		u.Language = &empty
	}
	if !t.ShareActivity && u.Activity != nil {
		hidden := protocol.ActivityHidden
		u.Activity = &hidden
	}
	return u
}

// RedactOnline applies share flags to a full snapshot.
func RedactOnline(o protocol.Online, t *Target) protocol.Online {
	if !t.ShareProject {
		o.Project = ""
	}
	if !t.ShareLanguage {
		o.Language = ""
	}
	if !t.ShareActivity {
		o.Activity = protocol.ActivityHidden
	}
	return o
}

// RedactCompact applies share flags to a sync/roster record.
func RedactCompact(u protocol.CompactUser, t *Target) protocol.CompactUser {
	if !t.ShareProject {
		u.Project = ""
	}
	if !t.ShareLanguage {
		u.Language = ""
	}
	if !t.ShareActivity {
		u.Activity = protocol.ActivityHidden
	}
	return u
}

// RedactChannelUpdate mirrors RedactUpdate for channel-topic deltas;
// membership bypasses the visibility gate but share flags still hold.
func RedactChannelUpdate(u protocol.ChannelUpdate, t *Target) protocol.ChannelUpdate {
	if !t.ShareProject && u.Project != nil {
		empty := ""
		u.Project = &empty
	}
	if !t.ShareLanguage && u.Language != nil {
		empty := ""
		u.Language = &empty
	}
	if !t.ShareActivity && u.Activity != nil {
		hidden := protocol.ActivityHidden
		u.Activity = &hidden
	}
	return u
}

const resolverTTL = 30 * time.Second

type resolverEntry struct {
	target    *Target
	fetchedAt time.Time
}

// Resolver looks up Target records by username with a short TTL cache.
// Egress consults it on every delivered message, so the cache keeps
// the state store off the hot path; prefsUpdate invalidates locally.
type Resolver struct {
	users user.UserRepository

	mu    sync.Mutex
	cache map[string]resolverEntry

	ttl time.Duration
	now func() time.Time
}

func NewResolver(users user.UserRepository) *Resolver {
	return &Resolver{
		users: users,
		cache: make(map[string]resolverEntry),
		ttl:   resolverTTL,
		now:   time.Now,
	}
}

// Target resolves privacy facts for a username. Unknown usernames are
// guests: visible to everyone, sharing everything.
func (r *Resolver) Target(ctx context.Context, username string) (*Target, error) {
	r.mu.Lock()
	if entry, ok := r.cache[username]; ok && r.now().Sub(entry.fetchedAt) < r.ttl {
		r.mu.Unlock()
		return entry.target, nil
	}
	r.mu.Unlock()

	target, err := r.fetch(ctx, username)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[username] = resolverEntry{target: target, fetchedAt: r.now()}
	r.mu.Unlock()
	return target, nil
}

func (r *Resolver) fetch(ctx context.Context, username string) (*Target, error) {
	u, err := r.users.GetUserByUsername(ctx, username)
	if err != nil {
		if appErrors.CodeOf(err) == appErrors.CodeNotFound {
			return guestTarget(), nil
		}
		return nil, err
	}

	prefs, err := r.users.GetPreferences(ctx, u.GithubID)
	if err != nil {
		return nil, err
	}

	return &Target{
		GithubID:      u.GithubID,
		Visibility:    protocol.Visibility(prefs.Visibility),
		Followers:     u.Followers,
		Following:     u.Following,
		CloseFriends:  u.CloseFriends,
		ShareProject:  prefs.ShareProject,
		ShareLanguage: prefs.ShareLanguage,
		ShareActivity: prefs.ShareActivity,
	}, nil
}

func guestTarget() *Target {
	return &Target{
		Visibility:    protocol.VisibilityEveryone,
		ShareProject:  true,
		ShareLanguage: true,
		ShareActivity: true,
	}
}

// Invalidate drops the cached entry after a preference change so the
// next egress decision sees the new mode.
func (r *Resolver) Invalidate(username string) {
	r.mu.Lock()
	delete(r.cache, username)
	r.mu.Unlock()
}
