package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Zendevve/vscord/pkg/errors"
)

func TestDecode_Login(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		msg, err := Decode([]byte(`{"t":"login","username":"alice","token":"gh-token"}`))
		require.NoError(t, err)

		login, ok := msg.(Login)
		require.True(t, ok)
		assert.Equal(t, "alice", login.Username)
		assert.Equal(t, "gh-token", login.Token)
		assert.Empty(t, login.ResumeToken)
	})

	t.Run("missing username", func(t *testing.T) {
		_, err := Decode([]byte(`{"t":"login"}`))
		require.Error(t, err)
		assert.Equal(t, appErrors.CodeInvalidArgument, appErrors.CodeOf(err))
	})
}

func TestDecode_StatusUpdate(t *testing.T) {
	t.Run("partial fields", func(t *testing.T) {
		msg, err := Decode([]byte(`{"t":"statusUpdate","a":"Coding"}`))
		require.NoError(t, err)

		upd, ok := msg.(StatusUpdate)
		require.True(t, ok)
		require.NotNil(t, upd.Activity)
		assert.Equal(t, ActivityCoding, *upd.Activity)
		assert.Nil(t, upd.Status)
		assert.Nil(t, upd.Project)
	})

	t.Run("unknown activity label", func(t *testing.T) {
		_, err := Decode([]byte(`{"t":"statusUpdate","a":"Sleeping"}`))
		require.Error(t, err)
		assert.Equal(t, appErrors.CodeInvalidArgument, appErrors.CodeOf(err))
	})

	t.Run("empty project is a real field", func(t *testing.T) {
		msg, err := Decode([]byte(`{"t":"statusUpdate","p":""}`))
		require.NoError(t, err)

		upd := msg.(StatusUpdate)
		require.NotNil(t, upd.Project)
		assert.Empty(t, *upd.Project)
	})
}

func TestDecode_BadFrames(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		_, err := Decode([]byte(`{"t":"login"`))
		assert.ErrorIs(t, err, appErrors.ErrInvalidFrame)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := Decode([]byte(`{"t":"selfDestruct"}`))
		assert.ErrorIs(t, err, appErrors.ErrUnknownType)
	})

	t.Run("channel chat without content", func(t *testing.T) {
		_, err := Decode([]byte(`{"t":"cm","channelId":"abc"}`))
		require.Error(t, err)
		assert.Equal(t, appErrors.CodeInvalidArgument, appErrors.CodeOf(err))
	})
}

func TestDecode_CustomStatusTruncation(t *testing.T) {
	long := strings.Repeat("é", MaxCustomStatusLen+40)
	frame, err := json.Marshal(map[string]string{"t": MsgSetCustomStatus, "text": long})
	require.NoError(t, err)

	msg, err := Decode(frame)
	require.NoError(t, err)

	ss := msg.(SetCustomStatus)
	assert.Equal(t, MaxCustomStatusLen, len([]rune(ss.Text)))
	assert.Equal(t, strings.Repeat("é", MaxCustomStatusLen), ss.Text)
}

func TestUpdate_Marshal(t *testing.T) {
	activity := ActivityCoding

	t.Run("delta carries only changed fields", func(t *testing.T) {
		data, err := Encode(Update{ID: "alice", Activity: &activity})
		require.NoError(t, err)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Len(t, raw, 3) // t, id, a
		assert.JSONEq(t, `"u"`, string(raw["t"]))
		assert.JSONEq(t, `"alice"`, string(raw["id"]))
		assert.JSONEq(t, `"Coding"`, string(raw["a"]))
		_, hasStatus := raw["s"]
		assert.False(t, hasStatus)
		_, hasCS := raw["cs"]
		assert.False(t, hasCS)
	})

	t.Run("explicit clear goes out as null", func(t *testing.T) {
		data, err := Encode(Update{ID: "alice", CustomSet: true})
		require.NoError(t, err)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &raw))
		cs, ok := raw["cs"]
		require.True(t, ok)
		assert.Equal(t, "null", string(cs))
	})

	t.Run("round trip preserves the clear sentinel", func(t *testing.T) {
		data, err := Encode(Update{ID: "alice", CustomSet: true})
		require.NoError(t, err)

		var back Update
		require.NoError(t, json.Unmarshal(data, &back))
		assert.True(t, back.CustomSet)
		assert.Nil(t, back.Custom)
	})

	t.Run("set custom status survives the round trip", func(t *testing.T) {
		data, err := Encode(Update{
			ID:        "alice",
			Custom:    &CustomStatus{Text: "shipping", Emoji: "🚀"},
			CustomSet: true,
		})
		require.NoError(t, err)

		var back Update
		require.NoError(t, json.Unmarshal(data, &back))
		require.NotNil(t, back.Custom)
		assert.Equal(t, "shipping", back.Custom.Text)
		assert.Equal(t, "🚀", back.Custom.Emoji)
	})
}

func TestDecodeTopicMessage(t *testing.T) {
	t.Run("offline event", func(t *testing.T) {
		msg, err := DecodeTopicMessage([]byte(`{"t":"x","id":"alice","ts":1712000000000}`))
		require.NoError(t, err)

		off, ok := msg.(Offline)
		require.True(t, ok)
		assert.Equal(t, "alice", off.ID)
		assert.Equal(t, int64(1712000000000), off.TS)
	})

	t.Run("chat event", func(t *testing.T) {
		msg, err := DecodeTopicMessage([]byte(`{"t":"cm","channelId":"c1","id":"bob","content":"hi","ts":5}`))
		require.NoError(t, err)

		chat, ok := msg.(ChatMessage)
		require.True(t, ok)
		assert.Equal(t, "c1", chat.ChannelID)
		assert.Equal(t, "bob", chat.ID)
	})

	t.Run("client-only tag is rejected", func(t *testing.T) {
		_, err := DecodeTopicMessage([]byte(`{"t":"login","username":"x"}`))
		assert.ErrorIs(t, err, appErrors.ErrUnknownType)
	})
}
