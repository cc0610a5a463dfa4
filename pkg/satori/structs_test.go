package satori

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_ExtraFieldsRoundTrip(t *testing.T) {
	raw := []byte(`{"id":1,"type":"custom","platform":"p","self_id":"s","timestamp":1,"weird_field":"value","count":3}`)

	var e Event
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, json.RawMessage(`"value"`), e.Extra["weird_field"])
	assert.Equal(t, json.RawMessage(`3`), e.Extra["count"])

	out, err := json.Marshal(e)
	require.NoError(t, err)

	var roundTripped map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &roundTripped))
	assert.Equal(t, json.RawMessage(`"value"`), roundTripped["weird_field"])
	assert.Equal(t, json.RawMessage(`3`), roundTripped["count"])
}

func TestEvent_Clone(t *testing.T) {
	e := Event{ID: 1, Extra: map[string]json.RawMessage{"a": json.RawMessage("1")}}
	clone := e.Clone()
	clone.Extra["a"] = json.RawMessage("2")
	assert.Equal(t, json.RawMessage("1"), e.Extra["a"])
}

func TestChannelType_SerializesAsInteger(t *testing.T) {
	ty := ChannelDirect
	ch := Channel{ID: "c1", Type: &ty}
	out, err := json.Marshal(ch)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"c1","type":3}`, string(out))
}
