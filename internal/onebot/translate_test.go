package onebot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapilot/satori-bridge/pkg/satori"
)

func TestEventFromMessage_Private(t *testing.T) {
	msg := Message{Time: 100, SelfID: 1, MsgType: "private", UserID: 42, MessageID: 7, Message: "hi"}
	event := eventFromMessage(msg)

	assert.Equal(t, "message-created", event.Type)
	assert.Equal(t, "OneBot", event.Platform)
	assert.Equal(t, int64(7), event.ID)
	assert.Equal(t, "private:42", event.Channel.ID)
	assert.Equal(t, satori.ChannelText, *event.Channel.Type)
	require.NotNil(t, event.Message.Content)
	assert.Equal(t, "hi", *event.Message.Content)
}

func TestEventFromMessage_Group(t *testing.T) {
	groupID := int64(99)
	msg := Message{Time: 100, SelfID: 1, MsgType: "group", UserID: 42, GroupID: &groupID, Message: "hi"}
	event := eventFromMessage(msg)
	assert.Equal(t, "group:99", event.Channel.ID)
	assert.Equal(t, satori.ChannelText, *event.Channel.Type)
}

func TestActionFromMessageCreate_Private(t *testing.T) {
	body, _ := json.Marshal(satori.MessageCreate{ChannelID: "private:42", Content: "hello"})
	action, err := actionFromMessageCreate(satori.RawApiCall{Method: "message.create", Body: body})
	require.NoError(t, err)
	assert.Equal(t, "send_private_msg", action.Action)

	var params sendParams
	require.NoError(t, json.Unmarshal(action.Params, &params))
	assert.Equal(t, "42", params.UserID)
	assert.Equal(t, "hello", params.Message)
}

func TestActionFromMessageCreate_Group(t *testing.T) {
	body, _ := json.Marshal(satori.MessageCreate{ChannelID: "group:99", Content: "hello"})
	action, err := actionFromMessageCreate(satori.RawApiCall{Method: "message.create", Body: body})
	require.NoError(t, err)
	assert.Equal(t, "send_group_msg", action.Action)
}

func TestActionFromMessageCreate_MalformedChannelIsBadRequest(t *testing.T) {
	body, _ := json.Marshal(satori.MessageCreate{ChannelID: "not-a-channel", Content: "hello"})
	_, err := actionFromMessageCreate(satori.RawApiCall{Method: "message.create", Body: body})
	require.Error(t, err)
	apiErr, ok := err.(*satori.APIError)
	require.True(t, ok)
	assert.Equal(t, 400, apiErr.HTTPStatus())
}

func TestActionFromMessageCreate_NonNumericIDIsBadRequest(t *testing.T) {
	body, _ := json.Marshal(satori.MessageCreate{ChannelID: "private:abc", Content: "hello"})
	_, err := actionFromMessageCreate(satori.RawApiCall{Method: "message.create", Body: body})
	require.Error(t, err)
}

func TestClassifyInbound(t *testing.T) {
	isResp, err := classifyInbound([]byte(`{"status":"ok","retcode":0,"data":{},"echo":"abc"}`))
	require.NoError(t, err)
	assert.True(t, isResp)

	isResp, err = classifyInbound([]byte(`{"post_type":"message","message":"hi"}`))
	require.NoError(t, err)
	assert.False(t, isResp)
}
