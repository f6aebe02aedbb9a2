package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Zendevve/vscord/internal/broker"
	"github.com/Zendevve/vscord/internal/channel"
	"github.com/Zendevve/vscord/internal/presence"
	"github.com/Zendevve/vscord/internal/protocol"
	appErrors "github.com/Zendevve/vscord/pkg/errors"
)

// handleFrame routes one decoded client message. Runs on the
// connection's read loop, so per-connection handling is serialized.
func (m *Manager) handleFrame(c *Conn, msg protocol.ClientMessage) {
	switch v := msg.(type) {
	case protocol.Login:
		m.handleLogin(c, v)
	case protocol.Heartbeat:
		c.sendMessage(protocol.HeartbeatAck{T: protocol.MsgHeartbeat})
	default:
		if !c.loggedIn {
			m.sendError(c, appErrors.ErrNotLoggedIn)
			return
		}
		switch v := msg.(type) {
		case protocol.StatusUpdate:
			m.handleStatusUpdate(c, v)
		case protocol.PrefsUpdate:
			m.handlePrefsUpdate(c, v)
		case protocol.SetCustomStatus:
			m.handleSetCustomStatus(c, v)
		case protocol.ClearCustomStatus:
			m.handleClearCustomStatus(c)
		case protocol.CreateChannel:
			m.handleCreateChannel(c, v)
		case protocol.JoinChannel:
			m.handleJoinChannel(c, v)
		case protocol.LeaveChannel:
			m.handleLeaveChannel(c, v)
		case protocol.ChannelChat:
			m.handleChannelChat(c, v)
		default:
			m.sendError(c, appErrors.ErrUnknownType)
		}
	}
}

func (m *Manager) handleStatusUpdate(c *Conn, upd protocol.StatusUpdate) {
	ctx := context.Background()

	c.lastActivity.Store(time.Now().UnixMilli())

	m.mu.Lock()
	// Away recovery: the next reported activity flips the window back.
	if c.state.Status == protocol.StatusAway && upd.Status == nil {
		online := protocol.StatusOnline
		upd.Status = &online
	}

	delta, changed := c.state.Apply(upd)
	snapshot := c.state
	username := c.username
	channelIDs := c.channelIDsLocked()
	m.mu.Unlock()

	if !changed {
		return
	}

	delta.ID = username
	if err := m.publishUserDelta(ctx, username, delta, snapshot, channelIDs); err != nil {
		m.sendError(c, appErrors.Internal("internal server error"))
	}
}

// publishUserDelta writes the full-field cache entry, publishes the
// delta on the user's topic, and mirrors it to every channel the user
// belongs to. The returned error covers only the primary publish;
// cache and mirror failures are logged and absorbed.
func (m *Manager) publishUserDelta(ctx context.Context, username string, delta protocol.Update, snapshot presence.State, channelIDs []string) error {
	if err := m.broker.PutStatusCache(ctx, username, broker.StatusFields{
		Status:   string(snapshot.Status),
		Activity: string(snapshot.Activity),
		Project:  snapshot.Project,
		Language: snapshot.Language,
	}); err != nil {
		m.logger.Error("failed to write status cache", "user", username, "err", err)
	}

	data, err := protocol.Encode(delta)
	if err != nil {
		m.logger.Error("failed to encode delta", "err", err)
		return err
	}
	if err := m.broker.Publish(ctx, broker.PresenceTopic(username), data); err != nil {
		m.logger.Error("failed to publish delta", "user", username, "err", err)
		return err
	}

	for _, id := range channelIDs {
		cu := protocol.ChannelUpdate{
			T:         protocol.MsgChannelUpdate,
			ChannelID: id,
			ID:        username,
			Status:    delta.Status,
			Activity:  delta.Activity,
			Project:   delta.Project,
			Language:  delta.Language,
		}
		payload, err := protocol.Encode(cu)
		if err != nil {
			continue
		}
		if err := m.broker.Publish(ctx, broker.ChannelTopic(id), payload); err != nil {
			m.logger.Error("failed to publish channel update", "channel", id, "err", err)
		}
	}
	return nil
}

func (m *Manager) handleSetCustomStatus(c *Conn, msg protocol.SetCustomStatus) {
	ctx := context.Background()

	cs := &protocol.CustomStatus{Text: msg.Text, Emoji: msg.Emoji}

	m.mu.Lock()
	delta, changed := c.state.SetCustom(cs)
	c.customGen++
	gen := c.customGen
	username := c.username
	if msg.ExpiresIn > 0 {
		m.expiries.push(&statusExpiry{
			conn:     c,
			gen:      gen,
			deadline: time.Now().Add(time.Duration(msg.ExpiresIn) * time.Second),
		})
	}
	m.mu.Unlock()

	if !changed {
		return
	}

	delta.ID = username
	m.publishDeltaOnly(ctx, username, delta)
}

func (m *Manager) handleClearCustomStatus(c *Conn) {
	ctx := context.Background()

	m.mu.Lock()
	delta, changed := c.state.SetCustom(nil)
	c.customGen++
	username := c.username
	m.mu.Unlock()

	if !changed {
		return
	}

	delta.ID = username
	m.publishDeltaOnly(ctx, username, delta)
}

// publishDeltaOnly skips the status cache and channel mirror; custom
// status is neither cached nor part of channel updates.
func (m *Manager) publishDeltaOnly(ctx context.Context, username string, delta protocol.Update) {
	data, err := protocol.Encode(delta)
	if err != nil {
		return
	}
	if err := m.broker.Publish(ctx, broker.PresenceTopic(username), data); err != nil {
		m.logger.Error("failed to publish delta", "user", username, "err", err)
	}
}

func (m *Manager) handlePrefsUpdate(c *Conn, msg protocol.PrefsUpdate) {
	ctx := context.Background()

	if c.githubID == 0 {
		m.sendError(c, appErrors.ErrIdentityRequired)
		return
	}

	prefs, err := m.users.GetPreferences(ctx, c.githubID)
	if err != nil {
		m.logger.Error("failed to load preferences", "user", c.username, "err", err)
		m.sendError(c, appErrors.Internal("internal server error"))
		return
	}

	oldVisibility := protocol.Visibility(prefs.Visibility)

	patch := msg.Prefs
	if patch.Visibility != nil {
		prefs.Visibility = string(*patch.Visibility)
	}
	if patch.ShareProjectName != nil {
		prefs.ShareProject = *patch.ShareProjectName
	}
	if patch.ShareLanguage != nil {
		prefs.ShareLanguage = *patch.ShareLanguage
	}
	if patch.ShareActivity != nil {
		prefs.ShareActivity = *patch.ShareActivity
	}

	if err := m.users.UpsertPreferences(ctx, prefs); err != nil {
		m.logger.Error("failed to store preferences", "user", c.username, "err", err)
		m.sendError(c, appErrors.Internal("internal server error"))
		return
	}

	m.resolver.Invalidate(c.username)

	newVisibility := protocol.Visibility(prefs.Visibility)
	switch {
	case oldVisibility != protocol.VisibilityInvisible && newVisibility == protocol.VisibilityInvisible:
		// Subscribers must observe the departure immediately.
		m.publishOffline(ctx, c.username)
	case oldVisibility == protocol.VisibilityInvisible && newVisibility != protocol.VisibilityInvisible:
		m.publishOnlineSnapshot(ctx, c)
	}
}

func (m *Manager) handleCreateChannel(c *Conn, msg protocol.CreateChannel) {
	ctx := context.Background()

	if c.githubID == 0 {
		m.sendError(c, appErrors.ErrIdentityRequired)
		return
	}

	dto, err := m.channels.Create(ctx, channel.CreateCommand{
		OwnerID:       c.githubID,
		OwnerUsername: c.username,
		Name:          msg.Name,
	})
	if err != nil {
		m.sendError(c, err)
		return
	}

	id := dto.ID.String()
	m.mu.Lock()
	c.channels[id] = struct{}{}
	m.mu.Unlock()
	m.subscribe(ctx, c, broker.ChannelTopic(id))

	c.sendMessage(protocol.ChannelCreated{
		T:          protocol.MsgChannelCreated,
		ChannelID:  id,
		Name:       dto.Name,
		InviteCode: dto.InviteCode,
	})

	c.sendMessage(protocol.ChannelSync{
		T:         protocol.MsgChannelSync,
		ChannelID: id,
		Name:      dto.Name,
		Members:   []protocol.CompactUser{m.compactSelf(c)},
	})
}

func (m *Manager) handleJoinChannel(c *Conn, msg protocol.JoinChannel) {
	ctx := context.Background()

	if c.githubID == 0 {
		m.sendError(c, appErrors.ErrIdentityRequired)
		return
	}

	dto, roster, err := m.channels.Join(ctx, channel.JoinCommand{
		GithubID:   c.githubID,
		Username:   c.username,
		InviteCode: msg.InviteCode,
	})
	if err != nil {
		m.sendError(c, err)
		return
	}

	id := dto.ID.String()
	m.mu.Lock()
	c.channels[id] = struct{}{}
	m.mu.Unlock()
	m.subscribe(ctx, c, broker.ChannelTopic(id))

	c.sendMessage(protocol.ChannelJoined{
		T:         protocol.MsgChannelJoined,
		ChannelID: id,
		Name:      dto.Name,
	})

	members := make([]protocol.CompactUser, 0, len(roster))
	for _, member := range roster {
		members = append(members, m.rosterEntry(ctx, member.Username))
	}
	c.sendMessage(protocol.ChannelSync{
		T:         protocol.MsgChannelSync,
		ChannelID: id,
		Name:      dto.Name,
		Members:   members,
	})

	joined := protocol.MemberJoined{
		T:         protocol.MsgMemberJoined,
		ChannelID: id,
		Member:    m.compactSelf(c),
	}
	if data, err := protocol.Encode(joined); err == nil {
		if err := m.broker.Publish(ctx, broker.ChannelTopic(id), data); err != nil {
			m.logger.Error("failed to publish member-joined", "channel", id, "err", err)
		}
	}
}

func (m *Manager) handleLeaveChannel(c *Conn, msg protocol.LeaveChannel) {
	ctx := context.Background()

	channelID, err := uuid.Parse(msg.ChannelID)
	if err != nil {
		m.sendError(c, appErrors.ErrChannelNotFound)
		return
	}

	if err := m.channels.Leave(ctx, c.githubID, channelID); err != nil {
		m.sendError(c, err)
		return
	}

	id := channelID.String()
	m.mu.Lock()
	delete(c.channels, id)
	m.mu.Unlock()
	m.unsubscribe(ctx, c, broker.ChannelTopic(id))

	left := protocol.MemberLeft{
		T:         protocol.MsgMemberLeft,
		ChannelID: id,
		ID:        c.username,
	}
	if data, err := protocol.Encode(left); err == nil {
		if err := m.broker.Publish(ctx, broker.ChannelTopic(id), data); err != nil {
			m.logger.Error("failed to publish member-left", "channel", id, "err", err)
		}
	}
}

func (m *Manager) handleChannelChat(c *Conn, msg protocol.ChannelChat) {
	ctx := context.Background()

	channelID, err := uuid.Parse(msg.ChannelID)
	if err != nil {
		m.sendError(c, appErrors.ErrChannelNotFound)
		return
	}

	member, err := m.channels.IsMember(ctx, channelID, c.githubID)
	if err != nil {
		m.sendError(c, appErrors.Internal("internal server error"))
		return
	}
	if !member {
		m.sendError(c, appErrors.ErrNotMember)
		return
	}

	chat := protocol.ChatMessage{
		T:         protocol.MsgChannelChat,
		ChannelID: channelID.String(),
		ID:        c.username,
		Content:   msg.Content,
		TS:        time.Now().UnixMilli(),
	}
	data, err := protocol.Encode(chat)
	if err != nil {
		return
	}
	if err := m.broker.Publish(ctx, broker.ChannelTopic(chat.ChannelID), data); err != nil {
		m.logger.Error("failed to publish chat", "channel", chat.ChannelID, "err", err)
		m.sendError(c, appErrors.Internal("internal server error"))
	}
}

// channelIDsLocked snapshots the conn's channel memberships. Caller
// holds mu.
func (c *Conn) channelIDsLocked() []string {
	ids := make([]string, 0, len(c.channels))
	for id := range c.channels {
		ids = append(ids, id)
	}
	return ids
}

// compactSelf reports the caller's aggregated state across local
// windows.
func (m *Manager) compactSelf(c *Conn) protocol.CompactUser {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.windows[c.username]
	states := make([]presence.State, len(set))
	for i, w := range set {
		states[i] = w.state
	}
	agg := presence.Aggregate(states)

	return protocol.CompactUser{
		ID:       c.username,
		Avatar:   c.avatar,
		Status:   agg.Status,
		Activity: agg.Activity,
		Project:  agg.Project,
		Language: agg.Language,
	}
}

// rosterEntry annotates a channel member with the best status source
// available: local Window Set, then the broker status cache, then an
// offline placeholder.
func (m *Manager) rosterEntry(ctx context.Context, username string) protocol.CompactUser {
	m.mu.Lock()
	set := m.windows[username]
	if len(set) > 0 {
		states := make([]presence.State, len(set))
		for i, w := range set {
			states[i] = w.state
		}
		agg := presence.Aggregate(states)
		avatar := set[0].avatar
		m.mu.Unlock()
		return protocol.CompactUser{
			ID:       username,
			Avatar:   avatar,
			Status:   agg.Status,
			Activity: agg.Activity,
			Project:  agg.Project,
			Language: agg.Language,
		}
	}
	m.mu.Unlock()

	if cached, err := m.broker.GetStatusCache(ctx, username); err == nil && cached != nil {
		return protocol.CompactUser{
			ID:       username,
			Status:   protocol.Status(cached.Status),
			Activity: protocol.Activity(cached.Activity),
			Project:  cached.Project,
			Language: cached.Language,
		}
	}

	return protocol.CompactUser{
		ID:       username,
		Status:   protocol.StatusOffline,
		Activity: protocol.ActivityIdle,
	}
}
