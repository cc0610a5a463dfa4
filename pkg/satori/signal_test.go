package satori

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_EventRoundTrip(t *testing.T) {
	self := "me"
	event := Event{ID: 1, Type: "message-created", Platform: "test", SelfID: "me", Timestamp: 100,
		Channel: &Channel{ID: "c1"}, Login: &Login{SelfID: &self, Status: StatusOnline}}

	sig, err := NewEventSignal(event)
	require.NoError(t, err)

	encoded, err := sig.Encode()
	require.NoError(t, err)

	decodedSig, err := DecodeSignal(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint8(OpEvent), decodedSig.Op)

	decoded, err := decodedSig.DecodeEvent()
	require.NoError(t, err)
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.Type, decoded.Type)
	assert.Equal(t, event.Channel.ID, decoded.Channel.ID)
}

func TestSignal_PingPongCanonicalBody(t *testing.T) {
	ping := NewPingSignal()
	encoded, err := ping.Encode()
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &raw))
	assert.JSONEq(t, "{}", string(raw["body"]))

	// decoder accepts body: null as well as body: {}
	nullBody := Signal{Op: OpPing, Body: json.RawMessage("null")}
	assert.True(t, nullBody.IsPingOrPong())

	emptyBody := Signal{Op: OpPong, Body: json.RawMessage("{}")}
	assert.True(t, emptyBody.IsPingOrPong())
}

func TestSignal_IdentifyRoundTrip(t *testing.T) {
	sig := NewIdentifySignal("tok", 7)
	encoded, err := sig.Encode()
	require.NoError(t, err)

	decodedSig, err := DecodeSignal(encoded)
	require.NoError(t, err)

	token, seq, err := decodedSig.DecodeIdentify()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, int64(7), seq)
}

func TestSignal_ReadyCanonicalShape(t *testing.T) {
	self := "bot1"
	platform := "p"
	sig := NewReadySignal([]Login{{SelfID: &self, Platform: &platform, Status: StatusOnline}})
	encoded, err := sig.Encode()
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &raw))

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["body"], &body))
	_, hasLoginsKey := body["logins"]
	assert.True(t, hasLoginsKey, "ready body must be {logins: [...]}, not a bare array")
}

func TestSignal_OpBodyMismatchRejected(t *testing.T) {
	// op=4 (Ready) decoded as an Event must be rejected on the op check,
	// regardless of whether the body happens to parse.
	sig := Signal{Op: OpReady, Body: json.RawMessage(`{"logins":[]}`)}
	_, err := sig.DecodeEvent()
	assert.Error(t, err)

	wrongOp := Signal{Op: OpEvent, Body: json.RawMessage(`{"id":1}`)}
	_, err = wrongOp.DecodeReady()
	assert.Error(t, err)
}
