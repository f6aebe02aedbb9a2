package session

import (
	"container/heap"
	"context"
	"time"

	"github.com/Zendevve/vscord/internal/broker"
	"github.com/Zendevve/vscord/internal/presence"
	"github.com/Zendevve/vscord/internal/protocol"
)

// statusExpiry schedules the clearing delta for a custom status with
// an expiry. gen guards against clearing a status that was replaced
// after this entry was queued.
type statusExpiry struct {
	conn     *Conn
	gen      uint64
	deadline time.Time
}

type expiryHeap []*statusExpiry

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x any)        { *h = append(*h, x.(*statusExpiry)) }
func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// expiryQueue is a deadline-ordered queue drained by the liveness
// sweep. Guarded by the manager mutex.
type expiryQueue struct {
	items expiryHeap
}

func (q *expiryQueue) push(e *statusExpiry) {
	heap.Push(&q.items, e)
}

func (q *expiryQueue) popDue(now time.Time) []*statusExpiry {
	var due []*statusExpiry
	for len(q.items) > 0 && !q.items[0].deadline.After(now) {
		due = append(due, heap.Pop(&q.items).(*statusExpiry))
	}
	return due
}

// sweep runs every heartbeat interval: kill silent connections, ping
// the rest, push idle windows to Away, and clear expired custom
// statuses. All publishing happens after the lock is released.
func (m *Manager) sweep(ctx context.Context) {
	now := time.Now()
	nowMS := now.UnixMilli()
	staleBefore := nowMS - m.cfg.HeartbeatInterval.Milliseconds()
	awayBefore := nowMS - m.cfg.AwayAfter.Milliseconds()

	type pendingDelta struct {
		username   string
		delta      protocol.Update
		snapshot   presence.State
		channelIDs []string
	}

	type resumeRefresh struct {
		token    string
		username string
		githubID int64
	}

	var dead, alive []*Conn
	var awayDeltas []pendingDelta
	var clearDeltas []pendingDelta
	var refreshes []resumeRefresh

	m.mu.Lock()
	for _, set := range m.windows {
		for _, c := range set {
			if c.lastLiveness.Load() < staleBefore {
				dead = append(dead, c)
				continue
			}
			alive = append(alive, c)
			refreshes = append(refreshes, resumeRefresh{
				token:    c.resumeToken,
				username: c.username,
				githubID: c.githubID,
			})

			if c.state.Status == protocol.StatusOnline && c.lastActivity.Load() < awayBefore {
				away := protocol.StatusAway
				idle := protocol.ActivityIdle
				delta, changed := c.state.Apply(protocol.StatusUpdate{Status: &away, Activity: &idle})
				if changed {
					delta.ID = c.username
					awayDeltas = append(awayDeltas, pendingDelta{
						username:   c.username,
						delta:      delta,
						snapshot:   c.state,
						channelIDs: c.channelIDsLocked(),
					})
				}
			}
		}
	}

	for _, e := range m.expiries.popDue(now) {
		c := e.conn
		if !c.loggedIn || e.gen != c.customGen || c.state.Custom == nil {
			continue
		}
		delta, changed := c.state.SetCustom(nil)
		if changed {
			delta.ID = c.username
			clearDeltas = append(clearDeltas, pendingDelta{username: c.username, delta: delta})
		}
	}
	m.mu.Unlock()

	for _, c := range dead {
		m.logger.Info("closing dead connection", "conn", c.id, "user", c.username)
		c.close()
	}

	ping, err := protocol.Encode(protocol.HeartbeatAck{T: protocol.MsgHeartbeat})
	if err == nil {
		for _, c := range alive {
			c.enqueue(ping)
		}
	}

	for _, p := range awayDeltas {
		m.publishUserDelta(ctx, p.username, p.delta, p.snapshot, p.channelIDs)
	}
	for _, p := range clearDeltas {
		m.publishDeltaOnly(ctx, p.username, p.delta)
	}

	// Keep resume records alive for the whole session; a record minted
	// at login would expire long before a long-lived connection drops.
	for _, r := range refreshes {
		if r.token == "" {
			continue
		}
		if err := m.broker.PutResume(ctx, r.token, broker.ResumeRecord{
			Username:  r.username,
			GithubID:  r.githubID,
			CreatedAt: nowMS,
		}); err != nil {
			m.logger.Error("failed to refresh resume record", "user", r.username, "err", err)
		}
	}
}
