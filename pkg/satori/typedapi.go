package satori

import (
	"context"
	"encoding/json"
	"fmt"
)

// TypedApiCall is the closed, tagged set of strongly-typed API calls. The
// initial bar is a single variant, MessageCreate, per spec.md §3; adding a
// variant means adding a type with its own method/IntoRaw and a case to
// TypedFromRaw below, the Go equivalent of extending the Rust
// #[serde(tag = "method", content = "body")] enum.
type TypedApiCall interface {
	// method returns the RawApiCall.Method tag for this variant.
	method() string
	IntoRawApiCall
}

// MessageCreate requests a message be posted to a channel.
type MessageCreate struct {
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

func (MessageCreate) method() string { return "message.create" }

// IntoRaw converts MessageCreate to its RawApiCall envelope. This never
// fails for a well-formed Go value; the original's equivalent comment
// ("this never fails") is preserved by constructing the body directly
// instead of round-tripping through json.Marshal+Unmarshal.
func (m MessageCreate) IntoRaw() (RawApiCall, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return RawApiCall{}, NewInternalError(fmt.Errorf("marshal message.create: %w", err))
	}
	return RawApiCall{Method: m.method(), Body: body}, nil
}

// TypedFromRaw converts a RawApiCall back into a TypedApiCall, failing if
// the method is unknown or the body doesn't match the variant's schema.
func TypedFromRaw(raw RawApiCall) (TypedApiCall, error) {
	switch raw.Method {
	case "message.create":
		var m MessageCreate
		if err := json.Unmarshal(raw.Body, &m); err != nil {
			return nil, fmt.Errorf("decode message.create body: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown typed api method %q", raw.Method)
	}
}

// Caller is the minimal surface CallAPITyped/CreateMessage need from the
// dispatch core: convert-and-delegate, exactly core.call_api<T> in
// _core.rs.
type Caller interface {
	CallAPI(ctx context.Context, bot BotId, payload IntoRawApiCall) (json.RawMessage, error)
}

// CallAPITyped calls core with a typed payload and decodes the JSON
// response into R, the Go analogue of SatoriApi::call_api_typed.
func CallAPITyped[R any](ctx context.Context, core Caller, bot BotId, payload TypedApiCall) (R, error) {
	var zero R
	resp, err := core.CallAPI(ctx, bot, payload)
	if err != nil {
		return zero, err
	}
	var out R
	if err := json.Unmarshal(resp, &out); err != nil {
		return zero, NewInternalError(fmt.Errorf("decode typed response: %w", err))
	}
	return out, nil
}

// CreateMessage is a convenience wrapper around TypedApiCall::MessageCreate.
func CreateMessage(ctx context.Context, core Caller, bot BotId, channelID, content string) (json.RawMessage, error) {
	return CallAPITyped[json.RawMessage](ctx, core, bot, MessageCreate{ChannelID: channelID, Content: content})
}
