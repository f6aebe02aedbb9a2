package protocol

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/Zendevve/vscord/pkg/errors"
)

// Discriminator tags. Client and server reuse `hb` and `cm`; direction
// disambiguates.
const (
	MsgLogin             = "login"
	MsgStatusUpdate      = "statusUpdate"
	MsgPrefsUpdate       = "prefsUpdate"
	MsgHeartbeat         = "hb"
	MsgCreateChannel     = "cc"
	MsgJoinChannel       = "jc"
	MsgLeaveChannel      = "lc"
	MsgChannelChat       = "cm"
	MsgSetCustomStatus   = "ss"
	MsgClearCustomStatus = "clr"

	MsgLoginSuccess   = "loginSuccess"
	MsgLoginError     = "loginError"
	MsgSync           = "sync"
	MsgUpdate         = "u"
	MsgOnline         = "o"
	MsgOffline        = "x"
	MsgToken          = "token"
	MsgError          = "error"
	MsgChannelCreated = "ccOk"
	MsgChannelJoined  = "jcOk"
	MsgChannelSync    = "cs"
	MsgChannelUpdate  = "cu"
	MsgMemberJoined   = "cj"
	MsgMemberLeft     = "cl"
)

// MaxCustomStatusLen bounds custom status text in code points; longer
// texts are truncated, not rejected.
const MaxCustomStatusLen = 128

// Decode parses one client frame. Malformed JSON, an unknown tag, or a
// missing required field all come back as AppErrors; the connection is
// never torn down over a bad frame.
func Decode(data []byte) (ClientMessage, error) {
	var head struct {
		T string `json:"t"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.ErrInvalidFrame
	}

	switch head.T {
	case MsgLogin:
		var m Login
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		if m.Username == "" {
			return nil, errors.InvalidArg("username is required")
		}
		return m, nil

	case MsgStatusUpdate:
		var m StatusUpdate
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		if m.Status != nil && !m.Status.Valid() {
			return nil, errors.InvalidArg("unknown status label")
		}
		if m.Activity != nil && !m.Activity.Valid() {
			return nil, errors.InvalidArg("unknown activity label")
		}
		return m, nil

	case MsgPrefsUpdate:
		var m PrefsUpdate
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		if m.Prefs.Visibility != nil && !m.Prefs.Visibility.Valid() {
			return nil, errors.InvalidArg("unknown visibility mode")
		}
		return m, nil

	case MsgHeartbeat:
		return Heartbeat{}, nil

	case MsgCreateChannel:
		var m CreateChannel
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		if m.Name == "" {
			return nil, errors.InvalidArg("channel name is required")
		}
		return m, nil

	case MsgJoinChannel:
		var m JoinChannel
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		if m.InviteCode == "" {
			return nil, errors.InvalidArg("invite code is required")
		}
		return m, nil

	case MsgLeaveChannel:
		var m LeaveChannel
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		if m.ChannelID == "" {
			return nil, errors.InvalidArg("channel id is required")
		}
		return m, nil

	case MsgChannelChat:
		var m ChannelChat
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		if m.ChannelID == "" || m.Content == "" {
			return nil, errors.InvalidArg("channel id and content are required")
		}
		return m, nil

	case MsgSetCustomStatus:
		var m SetCustomStatus
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		if strings.TrimSpace(m.Text) == "" {
			return nil, errors.InvalidArg("custom status text is required")
		}
		m.Text = TruncateStatusText(m.Text)
		return m, nil

	case MsgClearCustomStatus:
		return ClearCustomStatus{}, nil

	default:
		return nil, errors.ErrUnknownType
	}
}

// TruncateStatusText trims to MaxCustomStatusLen code points, counting
// runes rather than bytes.
func TruncateStatusText(s string) string {
	if utf8.RuneCountInString(s) <= MaxCustomStatusLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxCustomStatusLen])
}

// Encode serializes a server message for the wire or a broker topic.
func Encode(msg ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeTopicMessage parses a server message received over a broker
// topic. Only event kinds that travel over topics are handled; the
// caller routes on the concrete type.
func DecodeTopicMessage(data []byte) (ServerMessage, error) {
	var head struct {
		T string `json:"t"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.ErrInvalidFrame
	}

	switch head.T {
	case MsgUpdate:
		var m Update
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		return m, nil
	case MsgOnline:
		var m Online
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		return m, nil
	case MsgOffline:
		var m Offline
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		return m, nil
	case MsgChannelUpdate:
		var m ChannelUpdate
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		return m, nil
	case MsgMemberJoined:
		var m MemberJoined
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		return m, nil
	case MsgMemberLeft:
		var m MemberLeft
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		return m, nil
	case MsgChannelChat:
		var m ChatMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.ErrInvalidFrame
		}
		return m, nil
	default:
		return nil, errors.ErrUnknownType
	}
}
