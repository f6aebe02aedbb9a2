package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Zendevve/vscord/internal/broker"
	"github.com/Zendevve/vscord/internal/presence"
	"github.com/Zendevve/vscord/internal/protocol"
	models "github.com/Zendevve/vscord/internal/user/model"
	appErrors "github.com/Zendevve/vscord/pkg/errors"
)

// handleLogin resolves the login in the contract's order: resume
// first, then access token, then guest registration.
func (m *Manager) handleLogin(c *Conn, msg protocol.Login) {
	ctx := context.Background()

	if c.loggedIn {
		m.sendError(c, appErrors.InvalidArg("already logged in"))
		return
	}

	var (
		u        *models.User
		username = msg.Username
		githubID int64
		avatar   string
		resumed  bool
	)

	if msg.ResumeToken != "" {
		rec, err := m.broker.TakeResume(ctx, msg.ResumeToken)
		if err != nil {
			m.logger.Error("resume lookup failed", "err", err)
		}
		if rec != nil && rec.Username == msg.Username {
			resumed = true
			githubID = rec.GithubID
			if githubID != 0 {
				stored, err := m.users.GetUserByGithubID(ctx, githubID)
				if err != nil {
					m.loginError(c, appErrors.ErrLoginFailed(err))
					return
				}
				u = stored
				username = stored.Username
				avatar = stored.Avatar
			}
		}
	}

	switch {
	case resumed:
		// Nothing further: no profile refresh, no online event.

	case msg.Token != "":
		fresh, err := m.freshLogin(ctx, msg)
		if err != nil {
			m.loginError(c, err)
			return
		}
		u = fresh
		username = fresh.Username
		githubID = fresh.GithubID
		avatar = fresh.Avatar

	default:
		if err := m.guestLogin(ctx, msg.Username); err != nil {
			m.loginError(c, err)
			return
		}
	}

	token := uuid.NewString()
	if err := m.broker.PutResume(ctx, token, broker.ResumeRecord{
		Username:  username,
		GithubID:  githubID,
		CreatedAt: time.Now().UnixMilli(),
	}); err != nil {
		m.logger.Error("failed to store resume record", "user", username, "err", err)
	}

	m.mu.Lock()
	// A username binds to at most one identity at a time; an online
	// session under a different identity blocks the name.
	if set := m.windows[username]; len(set) > 0 && set[0].githubID != githubID {
		m.mu.Unlock()
		m.loginError(c, appErrors.ErrUsernameInUse)
		return
	}
	m.cancelPendingOfflineLocked(username)
	c.username = username
	c.githubID = githubID
	c.avatar = avatar
	c.loggedIn = true
	c.resumeToken = token
	c.state = presence.NewState()
	c.attachedAt = time.Now()
	m.windows[username] = append(m.windows[username], c)
	m.mu.Unlock()

	// Subscription set: one presence topic per friend, one channel
	// topic per membership.
	var followers, following []int64
	friendNames := map[int64]string{}
	if u != nil {
		followers = u.Followers
		following = u.Following
		names, err := m.users.GetUsernamesByGithubIDs(ctx, u.FriendSet())
		if err != nil {
			m.logger.Error("failed to resolve friend usernames", "user", username, "err", err)
		} else {
			friendNames = names
		}
	}

	for _, name := range friendNames {
		m.subscribe(ctx, c, broker.PresenceTopic(name))
	}

	if githubID != 0 {
		chs, err := m.channels.ListUserChannels(ctx, githubID)
		if err != nil {
			m.logger.Error("failed to list channels", "user", username, "err", err)
		} else {
			for _, ch := range chs {
				id := ch.ID.String()
				m.mu.Lock()
				c.channels[id] = struct{}{}
				m.mu.Unlock()
				m.subscribe(ctx, c, broker.ChannelTopic(id))
			}
		}
	}

	c.sendMessage(protocol.LoginSuccess{
		T:         protocol.MsgLoginSuccess,
		Token:     token,
		GithubID:  githubID,
		Followers: followers,
		Following: following,
	})

	c.sendMessage(m.initialSync(ctx, c, friendNames))

	if !resumed {
		m.publishOnlineSnapshot(ctx, c)
	}

	m.logger.Info("login", "conn", c.id, "user", username, "resumed", resumed, "guest", githubID == 0)
}

func (m *Manager) freshLogin(ctx context.Context, msg protocol.Login) (*models.User, error) {
	profile, err := m.identity.FetchProfile(ctx, msg.Token)
	if err != nil {
		if appErrors.CodeOf(err) == appErrors.CodeUnauthenticated {
			return nil, err
		}
		// Provider unreachable: fall back to the cached record if one
		// exists for this name.
		cached, cacheErr := m.users.GetUserByUsername(ctx, msg.Username)
		if cacheErr != nil {
			return nil, appErrors.ErrLoginFailed(err)
		}
		m.logger.Warn("identity provider unreachable, using cached graph", "user", msg.Username)
		return cached, nil
	}

	upserted := &models.User{
		GithubID: profile.GithubID,
		Username: profile.Username,
		Avatar:   profile.Avatar,
	}

	graph, err := m.identity.FetchGraph(ctx, msg.Token)
	if err != nil {
		cached, cacheErr := m.users.GetUserByGithubID(ctx, profile.GithubID)
		if cacheErr != nil {
			return nil, appErrors.ErrLoginFailed(err)
		}
		upserted.Followers = cached.Followers
		upserted.Following = cached.Following
		upserted.CloseFriends = cached.CloseFriends
	} else {
		upserted.Followers = graph.Followers
		upserted.Following = graph.Following
		if cached, err := m.users.GetUserByGithubID(ctx, profile.GithubID); err == nil {
			// Close friends are curated in-product, not provider data.
			upserted.CloseFriends = cached.CloseFriends
		}
	}

	if err := m.users.UpsertUser(ctx, upserted); err != nil {
		m.logger.Error("failed to upsert user", "user", profile.Username, "err", err)
		return nil, appErrors.ErrLoginFailed(err)
	}
	return upserted, nil
}

func (m *Manager) guestLogin(ctx context.Context, username string) error {
	m.mu.Lock()
	_, live := m.windows[username]
	m.mu.Unlock()
	if live {
		return appErrors.ErrUsernameInUse
	}

	// A name in storage with no live connection is reusable.
	if err := m.users.RegisterGuest(ctx, username); err != nil {
		return appErrors.ErrLoginFailed(err)
	}
	return nil
}

func (m *Manager) loginError(c *Conn, err error) {
	c.sendMessage(protocol.LoginError{
		T:     protocol.MsgLoginError,
		Error: appErrors.MessageOf(err),
	})
}

// initialSync reports this replica's live view of the viewer's friends,
// aggregated across windows and privacy-filtered from the viewer's
// vantage. Cross-replica knowledge arrives over topics once subscribed.
func (m *Manager) initialSync(ctx context.Context, viewer *Conn, friendNames map[int64]string) protocol.Sync {
	type liveFriend struct {
		username string
		avatar   string
		state    presence.State
	}

	m.mu.Lock()
	live := make([]liveFriend, 0, len(friendNames))
	for _, name := range friendNames {
		set := m.windows[name]
		if len(set) == 0 {
			continue
		}
		states := make([]presence.State, len(set))
		for i, w := range set {
			states[i] = w.state
		}
		live = append(live, liveFriend{
			username: name,
			avatar:   set[0].avatar,
			state:    presence.Aggregate(states),
		})
	}
	m.mu.Unlock()

	users := make([]protocol.CompactUser, 0, len(live))
	v := presence.Viewer{GithubID: viewer.githubID}
	for _, f := range live {
		t, err := m.resolver.Target(ctx, f.username)
		if err != nil {
			m.logger.Error("failed to resolve sync target", "target", f.username, "err", err)
			continue
		}
		if !presence.Allowed(v, t) {
			continue
		}
		users = append(users, presence.RedactCompact(protocol.CompactUser{
			ID:       f.username,
			Avatar:   f.avatar,
			Status:   f.state.Status,
			Activity: f.state.Activity,
			Project:  f.state.Project,
			Language: f.state.Language,
		}, t))
	}

	return protocol.Sync{T: protocol.MsgSync, Users: users}
}

// publishOnlineSnapshot announces a fresh login (or an exit from
// invisible) with the user's full current state.
func (m *Manager) publishOnlineSnapshot(ctx context.Context, c *Conn) {
	m.mu.Lock()
	snapshot := protocol.Online{
		T:        protocol.MsgOnline,
		ID:       c.username,
		Avatar:   c.avatar,
		Status:   c.state.Status,
		Activity: c.state.Activity,
		Project:  c.state.Project,
		Language: c.state.Language,
	}
	topic := broker.PresenceTopic(c.username)
	m.mu.Unlock()

	data, err := protocol.Encode(snapshot)
	if err != nil {
		return
	}
	if err := m.broker.Publish(ctx, topic, data); err != nil {
		m.logger.Error("failed to publish online event", "user", snapshot.ID, "err", err)
	}
}
