package satori

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedApiCall_RoundTrip(t *testing.T) {
	call := MessageCreate{ChannelID: "1", Content: "1"}

	raw, err := call.IntoRaw()
	require.NoError(t, err)
	assert.Equal(t, "message.create", raw.Method)
	assert.JSONEq(t, `{"channel_id":"1","content":"1"}`, string(raw.Body))

	back, err := TypedFromRaw(raw)
	require.NoError(t, err)
	assert.Equal(t, call, back)
}

func TestTypedApiCall_UnknownMethodRejected(t *testing.T) {
	_, err := TypedFromRaw(RawApiCall{Method: "wtf", Body: json.RawMessage("null")})
	assert.Error(t, err)
}
