package presence

import (
	"github.com/Zendevve/vscord/internal/protocol"
)

// State is one window's current presence fields. The session manager
// keeps one per Connection; all mutation goes through Apply/SetCustom
// so delta computation stays in one place.
type State struct {
	Status   protocol.Status
	Activity protocol.Activity
	Project  string
	Language string
	Custom   *protocol.CustomStatus
}

// NewState is the post-login state: Online, Idle, nothing shared yet.
func NewState() State {
	return State{
		Status:   protocol.StatusOnline,
		Activity: protocol.ActivityIdle,
	}
}

// Apply merges a client status update into the state and returns the
// delta containing only fields that actually changed. changed is false
// for a no-op update, in which case nothing may be published.
func (s *State) Apply(upd protocol.StatusUpdate) (protocol.Update, bool) {
	var delta protocol.Update
	changed := false

	if upd.Status != nil && *upd.Status != s.Status {
		s.Status = *upd.Status
		v := s.Status
		delta.Status = &v
		changed = true
	}
	if upd.Activity != nil && *upd.Activity != s.Activity {
		s.Activity = *upd.Activity
		v := s.Activity
		delta.Activity = &v
		changed = true
	}
	if upd.Project != nil && *upd.Project != s.Project {
		s.Project = *upd.Project
		v := s.Project
		delta.Project = &v
		changed = true
	}
	if upd.Language != nil && *upd.Language != s.Language {
		s.Language = *upd.Language
		v := s.Language
		delta.Language = &v
		changed = true
	}

	return delta, changed
}

// SetCustom installs or clears (cs == nil) the custom status and
// returns the delta. Re-setting an identical status is a no-op.
func (s *State) SetCustom(cs *protocol.CustomStatus) (protocol.Update, bool) {
	if cs == nil {
		if s.Custom == nil {
			return protocol.Update{}, false
		}
		s.Custom = nil
		return protocol.Update{CustomSet: true}, true
	}

	if s.Custom != nil && s.Custom.Text == cs.Text && s.Custom.Emoji == cs.Emoji {
		return protocol.Update{}, false
	}
	copied := *cs
	s.Custom = &copied
	return protocol.Update{Custom: &copied, CustomSet: true}, true
}

// Aggregate reduces a user's windows to a single observable state. The
// window with the highest-ranked activity wins; on ties the earliest
// window wins, so callers must pass windows in attach order.
func Aggregate(states []State) State {
	if len(states) == 0 {
		return State{Status: protocol.StatusOffline, Activity: protocol.ActivityIdle}
	}

	best := states[0]
	for _, st := range states[1:] {
		if st.Activity.Rank() > best.Activity.Rank() {
			best = st
		}
	}
	return best
}
