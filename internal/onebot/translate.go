package onebot

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/datapilot/satori-bridge/pkg/satori"
)

const platformName = "OneBot"

// eventFromMessage translates a OneBot v11 message event into a Satori
// Event, per spec.md §4.6.1. The channel id encodes direction as
// "private:<user_id>" or "group:<group_id>" so actionFromMessageCreate
// can invert it.
func eventFromMessage(msg Message) satori.Event {
	selfID := strconv.FormatInt(msg.SelfID, 10)
	userID := strconv.FormatInt(msg.UserID, 10)

	var channelID string
	channelType := satori.ChannelText
	switch msg.MsgType {
	case "group":
		groupID := int64(0)
		if msg.GroupID != nil {
			groupID = *msg.GroupID
		}
		channelID = fmt.Sprintf("group:%d", groupID)
	default:
		channelID = fmt.Sprintf("private:%d", msg.UserID)
	}

	content := msg.Message
	event := satori.Event{
		ID:        int64(msg.MessageID),
		Type:      "message-created",
		Platform:  platformName,
		SelfID:    selfID,
		Timestamp: msg.Time,
		Channel:   &satori.Channel{ID: channelID, Type: &channelType},
		User:      &satori.User{ID: userID},
		Message: &satori.Message{
			ID:      strconv.FormatInt(int64(msg.MessageID), 10),
			Content: &content,
		},
	}
	return event
}

// sendParams is the OneBot v11 send_private_msg / send_group_msg body.
// user_id/group_id are carried as strings (spec.md §4.6.2), not numbers.
type sendParams struct {
	UserID  string `json:"user_id,omitempty"`
	GroupID string `json:"group_id,omitempty"`
	Message string `json:"message"`
}

// actionFromMessageCreate translates a message.create RawApiCall into a
// OneBot v11 Action, per spec.md §4.6.2. A channel id lacking a
// recognized "private:"/"group:" prefix is rejected as a BadRequest, not
// a panic, per spec.md §9's unwrap-to-error policy.
func actionFromMessageCreate(raw satori.RawApiCall) (Action, error) {
	var call satori.MessageCreate
	if err := json.Unmarshal(raw.Body, &call); err != nil {
		return Action{}, satori.NewBadRequest(fmt.Errorf("decode message.create body: %w", err))
	}

	idx := strings.IndexByte(call.ChannelID, ':')
	if idx < 0 {
		return Action{}, satori.NewBadRequest(fmt.Errorf("malformed onebot channel id %q: want \"private:<id>\" or \"group:<id>\"", call.ChannelID))
	}
	kind, id := call.ChannelID[:idx], call.ChannelID[idx+1:]
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Action{}, satori.NewBadRequest(fmt.Errorf("malformed onebot channel id %q: %w", call.ChannelID, err))
	}

	idStr := strconv.FormatInt(numericID, 10)

	var action string
	var params sendParams
	switch kind {
	case "private":
		action = "send_private_msg"
		params = sendParams{UserID: idStr, Message: call.Content}
	case "group":
		action = "send_group_msg"
		params = sendParams{GroupID: idStr, Message: call.Content}
	default:
		return Action{}, satori.NewBadRequest(fmt.Errorf("malformed onebot channel id %q: unknown kind %q", call.ChannelID, kind))
	}

	body, err := json.Marshal(params)
	if err != nil {
		return Action{}, satori.NewInternalError(err)
	}
	return Action{Action: action, Params: body}, nil
}
