package protocol

import "encoding/json"

// Client → server messages. Every frame carries a short `t`
// discriminator; the decoder in codec.go turns frames into one of the
// variants below.

type ClientMessage interface {
	clientMessage()
}

type Login struct {
	Username    string `json:"username"`
	Token       string `json:"token,omitempty"`
	ResumeToken string `json:"resumeToken,omitempty"`
}

type StatusUpdate struct {
	Status   *Status   `json:"s,omitempty"`
	Activity *Activity `json:"a,omitempty"`
	Project  *string   `json:"p,omitempty"`
	Language *string   `json:"l,omitempty"`
}

// PrefsPatch is a partial preferences record; nil fields are left
// untouched.
type PrefsPatch struct {
	Visibility       *Visibility `json:"visibility,omitempty"`
	ShareProjectName *bool       `json:"shareProjectName,omitempty"`
	ShareLanguage    *bool       `json:"shareLanguage,omitempty"`
	ShareActivity    *bool       `json:"shareActivity,omitempty"`
}

type PrefsUpdate struct {
	Prefs PrefsPatch `json:"prefs"`
}

type Heartbeat struct{}

type CreateChannel struct {
	Name string `json:"name"`
}

type JoinChannel struct {
	InviteCode string `json:"inviteCode"`
}

type LeaveChannel struct {
	ChannelID string `json:"channelId"`
}

type ChannelChat struct {
	ChannelID string `json:"channelId"`
	Content   string `json:"content"`
}

type SetCustomStatus struct {
	Text      string `json:"text"`
	Emoji     string `json:"emoji,omitempty"`
	ExpiresIn int64  `json:"expiresIn,omitempty"` // seconds
}

type ClearCustomStatus struct{}

func (Login) clientMessage()             {}
func (StatusUpdate) clientMessage()      {}
func (PrefsUpdate) clientMessage()       {}
func (Heartbeat) clientMessage()         {}
func (CreateChannel) clientMessage()     {}
func (JoinChannel) clientMessage()       {}
func (LeaveChannel) clientMessage()      {}
func (ChannelChat) clientMessage()       {}
func (SetCustomStatus) clientMessage()   {}
func (ClearCustomStatus) clientMessage() {}

// Server → client messages. Each type knows its own discriminator so
// Encode stays a plain json.Marshal.

type ServerMessage interface {
	serverMessage()
}

// CompactUser is the roster/sync record: one user squeezed into short
// keys.
type CompactUser struct {
	ID       string   `json:"id"`
	Avatar   string   `json:"a,omitempty"`
	Status   Status   `json:"s"`
	Activity Activity `json:"act"`
	Project  string   `json:"p,omitempty"`
	Language string   `json:"l,omitempty"`
	LastSeen int64    `json:"ls,omitempty"`
}

type CustomStatus struct {
	Text  string `json:"text"`
	Emoji string `json:"emoji,omitempty"`
}

type LoginSuccess struct {
	T         string  `json:"t"`
	Token     string  `json:"token"`
	GithubID  int64   `json:"githubId,omitempty"`
	Followers []int64 `json:"followers,omitempty"`
	Following []int64 `json:"following,omitempty"`
}

type LoginError struct {
	T     string `json:"t"`
	Error string `json:"error"`
}

type Sync struct {
	T     string        `json:"t"`
	Users []CompactUser `json:"users"`
}

// Update is the delta message: only fields that changed are present.
// CustomSet distinguishes "custom status untouched" from an explicit
// clear, which goes out as a JSON null.
type Update struct {
	ID        string
	Status    *Status
	Activity  *Activity
	Project   *string
	Language  *string
	Custom    *CustomStatus
	CustomSet bool
}

func (m Update) MarshalJSON() ([]byte, error) {
	out := map[string]any{"t": MsgUpdate, "id": m.ID}
	if m.Status != nil {
		out["s"] = *m.Status
	}
	if m.Activity != nil {
		out["a"] = *m.Activity
	}
	if m.Project != nil {
		out["p"] = *m.Project
	}
	if m.Language != nil {
		out["l"] = *m.Language
	}
	if m.CustomSet {
		if m.Custom != nil {
			out["cs"] = m.Custom
		} else {
			out["cs"] = nil
		}
	}
	return json.Marshal(out)
}

func (m *Update) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string          `json:"id"`
		Status   *Status         `json:"s"`
		Activity *Activity       `json:"a"`
		Project  *string         `json:"p"`
		Language *string         `json:"l"`
		Custom   json.RawMessage `json:"cs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.ID = raw.ID
	m.Status = raw.Status
	m.Activity = raw.Activity
	m.Project = raw.Project
	m.Language = raw.Language
	m.Custom = nil
	m.CustomSet = false
	if len(raw.Custom) > 0 {
		m.CustomSet = true
		if string(raw.Custom) != "null" {
			cs := new(CustomStatus)
			if err := json.Unmarshal(raw.Custom, cs); err != nil {
				return err
			}
			m.Custom = cs
		}
	}
	return nil
}

// Online carries a full snapshot: fresh login or exit from invisible.
type Online struct {
	T        string   `json:"t"`
	ID       string   `json:"id"`
	Avatar   string   `json:"a,omitempty"`
	Status   Status   `json:"s"`
	Activity Activity `json:"act"`
	Project  string   `json:"p,omitempty"`
	Language string   `json:"l,omitempty"`
}

type Offline struct {
	T  string `json:"t"`
	ID string `json:"id"`
	TS int64  `json:"ts"`
}

type Token struct {
	T     string `json:"t"`
	Token string `json:"token"`
}

type HeartbeatAck struct {
	T string `json:"t"`
}

type Error struct {
	T     string `json:"t"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ChannelCreated struct {
	T          string `json:"t"`
	ChannelID  string `json:"channelId"`
	Name       string `json:"name"`
	InviteCode string `json:"inviteCode"`
}

type ChannelJoined struct {
	T         string `json:"t"`
	ChannelID string `json:"channelId"`
	Name      string `json:"name"`
}

type ChannelSync struct {
	T         string        `json:"t"`
	ChannelID string        `json:"channelId"`
	Name      string        `json:"name"`
	Members   []CompactUser `json:"members"`
}

// ChannelUpdate mirrors Update on a channel topic so co-members see
// presence without graph subscriptions.
type ChannelUpdate struct {
	T         string    `json:"t"`
	ChannelID string    `json:"channelId"`
	ID        string    `json:"id"`
	Status    *Status   `json:"s,omitempty"`
	Activity  *Activity `json:"a,omitempty"`
	Project   *string   `json:"p,omitempty"`
	Language  *string   `json:"l,omitempty"`
}

type MemberJoined struct {
	T         string      `json:"t"`
	ChannelID string      `json:"channelId"`
	Member    CompactUser `json:"member"`
}

type MemberLeft struct {
	T         string `json:"t"`
	ChannelID string `json:"channelId"`
	ID        string `json:"id"`
}

type ChatMessage struct {
	T         string `json:"t"`
	ChannelID string `json:"channelId"`
	ID        string `json:"id"`
	Content   string `json:"content"`
	TS        int64  `json:"ts"`
}

func (LoginSuccess) serverMessage()   {}
func (LoginError) serverMessage()     {}
func (Sync) serverMessage()           {}
func (Update) serverMessage()         {}
func (Online) serverMessage()         {}
func (Offline) serverMessage()        {}
func (Token) serverMessage()          {}
func (HeartbeatAck) serverMessage()   {}
func (Error) serverMessage()          {}
func (ChannelCreated) serverMessage() {}
func (ChannelJoined) serverMessage()  {}
func (ChannelSync) serverMessage()    {}
func (ChannelUpdate) serverMessage()  {}
func (MemberJoined) serverMessage()   {}
func (MemberLeft) serverMessage()     {}
func (ChatMessage) serverMessage()    {}
