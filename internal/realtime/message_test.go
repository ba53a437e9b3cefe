package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleTimeUnixMillis(t *testing.T) {
	var ft FlexibleTime
	require.NoError(t, json.Unmarshal([]byte("1700000000000"), &ft))
	assert.Equal(t, time.UnixMilli(1700000000000).Unix(), ft.Unix())
}

func TestFlexibleTimeRFC3339(t *testing.T) {
	var ft FlexibleTime
	require.NoError(t, json.Unmarshal([]byte(`"2024-06-01T12:30:00Z"`), &ft))
	assert.Equal(t, 2024, ft.Year())
	assert.Equal(t, time.June, ft.Month())
}

func TestFlexibleTimeInvalid(t *testing.T) {
	var ft FlexibleTime
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ft))
	assert.Error(t, json.Unmarshal([]byte(`{"bad": true}`), &ft))
}

func TestNewMessageAndReply(t *testing.T) {
	msg := NewMessage(MessageTypeFavoritesChanged, map[string]string{"user_id": "u1"})
	assert.Equal(t, MessageTypeFavoritesChanged, msg.Type)
	assert.False(t, msg.Timestamp.IsZero())

	msg.ID = "msg-1"
	reply := NewReply(msg, MessageTypePong, nil)
	assert.Equal(t, "msg-1", reply.ReplyTo)
	assert.Equal(t, MessageTypePong, reply.Type)
}

func TestParsePayload(t *testing.T) {
	raw := []byte(`{"type":"error","payload":{"code":"RATE_LIMITED","message":"slow down"}}`)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))

	var payload ErrorPayload
	require.NoError(t, msg.ParsePayload(&payload))
	assert.Equal(t, "RATE_LIMITED", payload.Code)
	assert.Equal(t, "slow down", payload.Message)
}
