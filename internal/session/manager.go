package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Zendevve/vscord/config"
	"github.com/Zendevve/vscord/internal/broker"
	"github.com/Zendevve/vscord/internal/channel"
	"github.com/Zendevve/vscord/internal/identity"
	"github.com/Zendevve/vscord/internal/presence"
	"github.com/Zendevve/vscord/internal/protocol"
	"github.com/Zendevve/vscord/internal/user"
	appErrors "github.com/Zendevve/vscord/pkg/errors"
	"github.com/Zendevve/vscord/pkg/logger"
)

// Manager owns every live Connection on this process: Window Sets, the
// topic subscription table, ingress dispatch and the privacy-filtered
// egress path. Window Sets and subscriptions are process-local; the
// broker topics are the only cross-replica carrier.
type Manager struct {
	logger   logger.Logger
	cfg      config.PresenceConfig
	users    user.UserRepository
	channels channel.ChannelUsecase
	broker   broker.Broker
	identity identity.Provider
	resolver *presence.Resolver

	upgrader *websocket.Upgrader

	// mu guards windows, subs, pendingOffline, expiries and every
	// conn's presence state. Held only across map and state edits,
	// never across store, broker or transport I/O.
	mu             sync.Mutex
	windows        map[string][]*Conn
	subs           map[string]map[*Conn]struct{}
	pendingOffline map[string]*time.Timer
	expiries       expiryQueue

	done chan struct{}
}

func NewManager(
	cfg config.PresenceConfig,
	users user.UserRepository,
	channels channel.ChannelUsecase,
	b broker.Broker,
	provider identity.Provider,
	log logger.Logger,
) *Manager {
	return &Manager{
		logger:   log,
		cfg:      cfg,
		users:    users,
		channels: channels,
		broker:   b,
		identity: provider,
		resolver: presence.NewResolver(users),
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		windows:        make(map[string][]*Conn),
		subs:           make(map[string]map[*Conn]struct{}),
		pendingOffline: make(map[string]*time.Timer),
		done:           make(chan struct{}),
	}
}

// ServeWS upgrades the transport and starts the connection pumps. The
// connection stays anonymous until its login frame arrives.
func (m *Manager) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	c := newConn(ws, m)

	go c.WritePump()
	go c.ReadPump()
}

// Run drives the egress side: every message published to a subscribed
// topic is filtered per viewer and written out. Blocks until the
// broker channel closes or ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-m.broker.Messages():
			if !ok {
				return
			}
			m.dispatch(ctx, msg)
		case <-ticker.C:
			m.sweep(ctx)
		case <-ctx.Done():
			return
		case <-m.done:
			return
		}
	}
}

func (m *Manager) dispatch(ctx context.Context, msg broker.TopicMessage) {
	event, err := protocol.DecodeTopicMessage(msg.Payload)
	if err != nil {
		m.logger.Warn("undecodable topic message", "topic", msg.Topic, "err", err)
		return
	}

	m.mu.Lock()
	set := m.subs[msg.Topic]
	viewers := make([]*Conn, 0, len(set))
	for c := range set {
		viewers = append(viewers, c)
	}
	m.mu.Unlock()

	if len(viewers) == 0 {
		return
	}

	switch ev := event.(type) {
	case protocol.Update:
		m.deliverPresence(ctx, ev.ID, viewers, func(t *presence.Target) protocol.ServerMessage {
			return presence.RedactUpdate(ev, t)
		})
	case protocol.Online:
		m.deliverPresence(ctx, ev.ID, viewers, func(t *presence.Target) protocol.ServerMessage {
			return presence.RedactOnline(ev, t)
		})
	case protocol.Offline:
		m.deliverOffline(ctx, ev, viewers)
	case protocol.ChannelUpdate:
		m.deliverChannelUpdate(ctx, ev, viewers)
	default:
		// Channel-scope traffic (cj/cl/cm) bypasses graph visibility;
		// subscribers are members by construction.
		data, err := protocol.Encode(event)
		if err != nil {
			m.logger.Error("failed to re-encode channel event", "err", err)
			return
		}
		for _, c := range viewers {
			c.enqueue(data)
		}
	}
}

// deliverPresence evaluates the privacy filter once per viewer and the
// redaction once per message.
func (m *Manager) deliverPresence(ctx context.Context, target string, viewers []*Conn, redact func(*presence.Target) protocol.ServerMessage) {
	t, err := m.resolver.Target(ctx, target)
	if err != nil {
		m.logger.Error("failed to resolve privacy target", "target", target, "err", err)
		return
	}

	data, err := protocol.Encode(redact(t))
	if err != nil {
		m.logger.Error("failed to encode presence event", "err", err)
		return
	}

	for _, c := range viewers {
		if presence.Allowed(presence.Viewer{GithubID: c.githubID}, t) {
			c.enqueue(data)
		}
	}
}

// deliverOffline handles the one asymmetry in the filter: an x from a
// target that just went invisible must reach subscribers, or they
// would never observe the departure.
func (m *Manager) deliverOffline(ctx context.Context, ev protocol.Offline, viewers []*Conn) {
	t, err := m.resolver.Target(ctx, ev.ID)
	if err != nil {
		m.logger.Error("failed to resolve privacy target", "target", ev.ID, "err", err)
		return
	}

	data, err := protocol.Encode(ev)
	if err != nil {
		return
	}

	for _, c := range viewers {
		if t.Visibility == protocol.VisibilityInvisible ||
			presence.Allowed(presence.Viewer{GithubID: c.githubID}, t) {
			c.enqueue(data)
		}
	}
}

func (m *Manager) deliverChannelUpdate(ctx context.Context, ev protocol.ChannelUpdate, viewers []*Conn) {
	t, err := m.resolver.Target(ctx, ev.ID)
	if err != nil {
		m.logger.Error("failed to resolve privacy target", "target", ev.ID, "err", err)
		return
	}

	data, err := protocol.Encode(presence.RedactChannelUpdate(ev, t))
	if err != nil {
		return
	}

	for _, c := range viewers {
		c.enqueue(data)
	}
}

// subscribe installs the conn in the local table and bumps the broker
// refcount. Called without mu held.
func (m *Manager) subscribe(ctx context.Context, c *Conn, topic string) {
	m.mu.Lock()
	set, ok := m.subs[topic]
	if !ok {
		set = make(map[*Conn]struct{})
		m.subs[topic] = set
	}
	if _, dup := set[c]; dup {
		m.mu.Unlock()
		return
	}
	set[c] = struct{}{}
	c.topics[topic] = struct{}{}
	m.mu.Unlock()

	if err := m.broker.Subscribe(ctx, topic); err != nil {
		m.logger.Error("broker subscribe failed", "topic", topic, "err", err)
	}
}

func (m *Manager) unsubscribe(ctx context.Context, c *Conn, topic string) {
	m.mu.Lock()
	set, ok := m.subs[topic]
	if !ok {
		m.mu.Unlock()
		return
	}
	if _, member := set[c]; !member {
		m.mu.Unlock()
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(m.subs, topic)
	}
	delete(c.topics, topic)
	m.mu.Unlock()

	if err := m.broker.Unsubscribe(ctx, topic); err != nil {
		m.logger.Error("broker unsubscribe failed", "topic", topic, "err", err)
	}
}

// Disconnect tears a connection down: Window Set removal, offline
// gating, subscription cleanup. Safe to call twice; the second call
// finds nothing to do.
func (m *Manager) Disconnect(c *Conn) {
	ctx := context.Background()

	m.mu.Lock()
	if !c.loggedIn {
		m.mu.Unlock()
		return
	}

	username := c.username
	set := m.windows[username]
	for i, w := range set {
		if w == c {
			set = append(set[:i], set[i+1:]...)
			break
		}
	}

	lastWindow := len(set) == 0
	if lastWindow {
		delete(m.windows, username)
	} else {
		m.windows[username] = set
	}

	topics := make([]string, 0, len(c.topics))
	for topic := range c.topics {
		topics = append(topics, topic)
	}
	c.loggedIn = false

	if lastWindow {
		m.scheduleOfflineLocked(username)
	}
	m.mu.Unlock()

	for _, topic := range topics {
		m.unsubscribe(ctx, c, topic)
	}

	if lastWindow && c.githubID != 0 {
		if err := m.users.UpdateLastSeen(ctx, c.githubID, time.Now().UnixMilli()); err != nil {
			m.logger.Error("failed to persist last-seen", "user", username, "err", err)
		}
	}

	m.logger.Info("connection closed", "conn", c.id, "user", username, "lastWindow", lastWindow)
}

// scheduleOfflineLocked defers the x event by the resume TTL so a
// quick reconnect with a resume token is invisible to subscribers.
// Caller holds mu.
func (m *Manager) scheduleOfflineLocked(username string) {
	if prev, ok := m.pendingOffline[username]; ok {
		prev.Stop()
	}
	m.pendingOffline[username] = time.AfterFunc(m.cfg.ResumeTTL, func() {
		m.fireOffline(username)
	})
}

func (m *Manager) fireOffline(username string) {
	m.mu.Lock()
	if _, back := m.windows[username]; back {
		// Reconnected while the timer was pending.
		delete(m.pendingOffline, username)
		m.mu.Unlock()
		return
	}
	delete(m.pendingOffline, username)
	m.mu.Unlock()

	m.publishOffline(context.Background(), username)
}

// cancelPendingOfflineLocked stops a scheduled x for a user who came
// back. Returns whether a timer was pending. Caller holds mu.
func (m *Manager) cancelPendingOfflineLocked(username string) bool {
	timer, ok := m.pendingOffline[username]
	if !ok {
		return false
	}
	timer.Stop()
	delete(m.pendingOffline, username)
	return true
}

func (m *Manager) publishOffline(ctx context.Context, username string) {
	data, err := protocol.Encode(protocol.Offline{
		T:  protocol.MsgOffline,
		ID: username,
		TS: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}
	if err := m.broker.Publish(ctx, broker.PresenceTopic(username), data); err != nil {
		m.logger.Error("failed to publish offline event", "user", username, "err", err)
	}
}

func (m *Manager) sendError(c *Conn, err error) {
	c.sendMessage(protocol.Error{
		T:     protocol.MsgError,
		Error: appErrors.MessageOf(err),
		Code:  string(appErrors.CodeOf(err)),
	})
}

// Shutdown closes every connection with a going-away frame and flushes
// last-seen for all open Window Sets.
func (m *Manager) Shutdown(ctx context.Context) {
	close(m.done)

	m.mu.Lock()
	conns := make([]*Conn, 0)
	lastSeen := make(map[int64]struct{})
	for _, set := range m.windows {
		for _, c := range set {
			conns = append(conns, c)
			if c.githubID != 0 {
				lastSeen[c.githubID] = struct{}{}
			}
		}
	}
	m.mu.Unlock()

	now := time.Now().UnixMilli()
	for id := range lastSeen {
		if err := m.users.UpdateLastSeen(ctx, id, now); err != nil {
			m.logger.Error("failed to persist last-seen at shutdown", "user", id, "err", err)
		}
	}

	deadline := time.Now().Add(writeWait)
	for _, c := range conns {
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"), deadline)
		c.close()
	}
}
