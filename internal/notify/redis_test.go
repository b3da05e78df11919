package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageCodec(t *testing.T) {
	payload, err := encodeMessage("origin-a", []string{"shows", "related_shows"})
	require.NoError(t, err)

	msg, err := decodeMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, "origin-a", msg.Origin)
	assert.Equal(t, []string{"shows", "related_shows"}, msg.Tables)
}

func TestDecodeMessage_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: "shows"},
		{name: "missing origin", payload: `{"tables":["shows"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeMessage(tt.payload)
			assert.Error(t, err)
		})
	}
}

func TestRedisHub_Relay(t *testing.T) {
	local := NewHub()
	hub := &RedisHub{local: local, channel: defaultChannel, origin: "self"}

	ch, cancel := hub.Subscribe("related_shows")
	defer cancel()

	own, err := encodeMessage("self", []string{"related_shows"})
	require.NoError(t, err)
	hub.relay(context.Background(), own)
	assert.False(t, received(ch), "own notifications are already delivered locally")

	remote, err := encodeMessage("other", []string{"related_shows"})
	require.NoError(t, err)
	hub.relay(context.Background(), remote)
	assert.True(t, received(ch))

	hub.relay(context.Background(), "garbage")
	assert.False(t, received(ch))
}
