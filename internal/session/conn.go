package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Zendevve/vscord/internal/presence"
	"github.com/Zendevve/vscord/internal/protocol"
)

var (
	writeWait      = 10 * time.Second
	maxMessageSize = int64(4096)
	sendBuffer     = 256
)

// Conn is one client window. The read loop processes frames one at a
// time, so fields it alone touches need no lock; anything another
// connection or the sweep can observe (state, window membership,
// subscriptions) is guarded by the manager mutex.
type Conn struct {
	id  string
	ws  *websocket.Conn
	mgr *Manager

	send chan []byte

	// Guarded by mgr.mu once the conn is visible in a Window Set.
	username    string
	githubID    int64
	avatar      string
	loggedIn    bool
	resumeToken string
	state       presence.State
	channels    map[string]struct{} // channel ids this conn is joined to
	topics      map[string]struct{}
	customGen   uint64
	attachedAt  time.Time

	// Atomics: written by the read loop, read by the liveness sweep.
	lastLiveness atomic.Int64 // unix ms
	lastActivity atomic.Int64 // unix ms

	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(ws *websocket.Conn, mgr *Manager) *Conn {
	c := &Conn{
		id:       uuid.NewString(),
		ws:       ws,
		mgr:      mgr,
		send:     make(chan []byte, sendBuffer),
		channels: make(map[string]struct{}),
		topics:   make(map[string]struct{}),
		closed:   make(chan struct{}),
	}
	now := time.Now().UnixMilli()
	c.lastLiveness.Store(now)
	c.lastActivity.Store(now)
	return c
}

// enqueue hands a frame to the write pump. A full buffer means the
// client stopped draining; the connection is torn down rather than
// blocking the fan-out path.
func (c *Conn) enqueue(data []byte) {
	select {
	case c.send <- data:
	case <-c.closed:
	default:
		c.mgr.logger.Warn("send buffer full, dropping connection", "conn", c.id, "user", c.username)
		go c.close()
	}
}

func (c *Conn) sendMessage(msg protocol.ServerMessage) {
	data, err := protocol.Encode(msg)
	if err != nil {
		c.mgr.logger.Error("failed to encode server message", "err", err)
		return
	}
	c.enqueue(data)
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.ws != nil {
			c.ws.Close()
		}
	})
}

// ReadPump drives ingress: one frame decoded and handled to completion
// before the next, which is what keeps per-connection handling
// serialized.
func (c *Conn) ReadPump() {
	defer func() {
		c.mgr.Disconnect(c)
		c.close()
	}()

	c.ws.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		// Any inbound traffic counts as liveness.
		c.lastLiveness.Store(time.Now().UnixMilli())

		msg, err := protocol.Decode(data)
		if err != nil {
			c.mgr.sendError(c, err)
			continue
		}

		c.mgr.handleFrame(c, msg)
	}
}

// WritePump owns all writes to the websocket; nothing else may touch
// c.ws for writing.
func (c *Conn) WritePump() {
	defer c.close()

	for {
		select {
		case data, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

			// Drain whatever queued up behind this frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				c.ws.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.ws.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-c.closed:
			return
		}
	}
}
