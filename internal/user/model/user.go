package models

import (
	"time"
)

// User is an authenticated account, keyed by the identity provider's
// numeric id. Graph edges are stored denormalized as id arrays; the
// friend set used for subscriptions is the union of followers and
// following.
type User struct {
	GithubID int64 `bun:",pk"`

	// Username = unique handle, shared namespace with guests
	Username string `bun:",unique,notnull"`

	Avatar string `bun:",nullzero"`

	Followers    []int64 `bun:",array"`
	Following    []int64 `bun:",array"`
	CloseFriends []int64 `bun:",array"`

	// LastSeen in milliseconds since epoch, written on last-window
	// disconnect
	LastSeen int64 `bun:",nullzero"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// FriendSet returns the deduplicated union of followers and following.
func (u *User) FriendSet() []int64 {
	seen := make(map[int64]struct{}, len(u.Followers)+len(u.Following))
	out := make([]int64, 0, len(u.Followers)+len(u.Following))
	for _, id := range u.Followers {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range u.Following {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Preferences govern visibility and field sharing. One row per
// authenticated user; absent rows read as the default (everyone, all
// shared).
type Preferences struct {
	GithubID int64 `bun:",pk"`

	Visibility string `bun:",notnull,default:'everyone'"`

	ShareProject  bool `bun:",notnull,default:true"`
	ShareLanguage bool `bun:",notnull,default:true"`
	ShareActivity bool `bun:",notnull,default:true"`
}

// DefaultPreferences is what a user without a stored row gets.
func DefaultPreferences(githubID int64) *Preferences {
	return &Preferences{
		GithubID:      githubID,
		Visibility:    "everyone",
		ShareProject:  true,
		ShareLanguage: true,
		ShareActivity: true,
	}
}

// GuestUser records a self-chosen guest name. Uniqueness against live
// sessions is enforced by the session manager; the row only reserves
// the name for reconnect bookkeeping.
type GuestUser struct {
	ID int64 `bun:",pk,autoincrement"`

	Username string `bun:",unique,notnull"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
