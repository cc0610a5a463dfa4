package onebot

import "encoding/json"

// Message mirrors original_source/src/impls/onebot11/events.rs's Message:
// the OneBot v11 post_type=message event payload.
type Message struct {
	Time       int64  `json:"time"`
	SelfID     int64  `json:"self_id"`
	PostType   string `json:"post_type"`
	MsgType    string `json:"message_type"`
	SubType    string `json:"sub_type"`
	MessageID  int32  `json:"message_id"`
	UserID     int64  `json:"user_id"`
	Message    string `json:"message"`
	RawMessage string `json:"raw_message"`
	Font       int32  `json:"font"`
	TargetID   *int64 `json:"target_id,omitempty"`
	GroupID    *int64 `json:"group_id,omitempty"`
}

// Action is an outbound OneBot v11 API call, echo-correlated to its
// ActionResp by the adapter's multiplexer.
type Action struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
	Echo   string          `json:"echo,omitempty"`
}

// ActionResp is the response to an Action sharing its Echo.
type ActionResp struct {
	Status  string          `json:"status"`
	RetCode int32           `json:"retcode"`
	Msg     *string         `json:"msg,omitempty"`
	Wording *string         `json:"wording,omitempty"`
	Data    json.RawMessage `json:"data"`
	Echo    string          `json:"echo,omitempty"`
}

// inboundFrame is probed to tell a server-pushed event apart from an
// ActionResp answering one of our Actions, the Go equivalent of
// original_source's #[serde(untagged)] EventOrActionResp: OneBot
// ActionResps always carry "retcode", events never do.
type inboundFrame struct {
	PostType *string `json:"post_type"`
	RetCode  *int32  `json:"retcode"`
}

func classifyInbound(data []byte) (isActionResp bool, err error) {
	var probe inboundFrame
	if err := json.Unmarshal(data, &probe); err != nil {
		return false, err
	}
	return probe.RetCode != nil, nil
}
