package satori

import (
	"encoding/json"
	"fmt"
)

// Signal op codes, fixed by the wire protocol in spec.md §3.
const (
	OpEvent    uint8 = 0
	OpPing     uint8 = 1
	OpPong     uint8 = 2
	OpIdentify uint8 = 3
	OpReady    uint8 = 4
)

// Signal is the on-wire WS control/data frame: a JSON object {op, body}
// discriminated by Op. Go's encoding/json has no tagged-union support
// equivalent to serde's untagged enum + OpCode<const V> trick used in
// impls/net/mod.rs, so Signal stores Body undecoded and exposes typed
// decode helpers that validate Op against the expected shape.
type Signal struct {
	Op   uint8           `json:"op"`
	Body json.RawMessage `json:"body,omitempty"`
}

// identifyBody is the Identify signal payload.
type identifyBody struct {
	Token    *string `json:"token,omitempty"`
	Sequence *int64  `json:"sequence,omitempty"`
}

// readyBody is the canonical Ready payload shape per spec.md §9's Open
// Question resolution: {"logins": [...]}, not a bare array.
type readyBody struct {
	Logins []Login `json:"logins"`
}

// NewEventSignal builds an Event signal frame.
func NewEventSignal(event Event) (Signal, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return Signal{}, NewInternalError(fmt.Errorf("marshal event: %w", err))
	}
	return Signal{Op: OpEvent, Body: body}, nil
}

// NewPingSignal builds a Ping signal frame with canonical body {}.
func NewPingSignal() Signal { return Signal{Op: OpPing, Body: json.RawMessage("{}")} }

// NewPongSignal builds a Pong signal frame with canonical body {}.
func NewPongSignal() Signal { return Signal{Op: OpPong, Body: json.RawMessage("{}")} }

// NewIdentifySignal builds an Identify signal frame.
func NewIdentifySignal(token string, sequence int64) Signal {
	body, _ := json.Marshal(identifyBody{Token: &token, Sequence: &sequence})
	return Signal{Op: OpIdentify, Body: body}
}

// NewReadySignal builds a Ready signal frame carrying the current logins.
func NewReadySignal(logins []Login) Signal {
	if logins == nil {
		logins = []Login{}
	}
	body, _ := json.Marshal(readyBody{Logins: logins})
	return Signal{Op: OpReady, Body: body}
}

// Encode serializes the signal to its canonical JSON text form.
func (s Signal) Encode() ([]byte, error) {
	if isEmptyBody(s.Op, s.Body) {
		s.Body = json.RawMessage("{}")
	}
	return json.Marshal(s)
}

func isEmptyBody(op uint8, body json.RawMessage) bool {
	return (op == OpPing || op == OpPong) && (len(body) == 0 || string(body) == "null")
}

// DecodeSignal parses raw JSON text into a Signal envelope without
// validating the body shape; callers dispatch on Op and call the
// matching Decode* helper, which does validate the shape.
func DecodeSignal(data []byte) (Signal, error) {
	var s Signal
	if err := json.Unmarshal(data, &s); err != nil {
		return Signal{}, fmt.Errorf("decode signal: %w", err)
	}
	return s, nil
}

// DecodeEvent validates Op == OpEvent and decodes the body.
func (s Signal) DecodeEvent() (Event, error) {
	if s.Op != OpEvent {
		return Event{}, fmt.Errorf("signal op %d is not an event", s.Op)
	}
	var e Event
	if err := json.Unmarshal(s.Body, &e); err != nil {
		return Event{}, fmt.Errorf("decode event body: %w", err)
	}
	return e, nil
}

// DecodeIdentify validates Op == OpIdentify and decodes the body.
func (s Signal) DecodeIdentify() (token string, sequence int64, err error) {
	if s.Op != OpIdentify {
		return "", 0, fmt.Errorf("signal op %d is not identify", s.Op)
	}
	var b identifyBody
	if len(s.Body) > 0 && string(s.Body) != "null" {
		if err := json.Unmarshal(s.Body, &b); err != nil {
			return "", 0, fmt.Errorf("decode identify body: %w", err)
		}
	}
	if b.Token != nil {
		token = *b.Token
	}
	if b.Sequence != nil {
		sequence = *b.Sequence
	}
	return token, sequence, nil
}

// DecodeReady validates Op == OpReady and decodes the body.
func (s Signal) DecodeReady() ([]Login, error) {
	if s.Op != OpReady {
		return nil, fmt.Errorf("signal op %d is not ready", s.Op)
	}
	var b readyBody
	if err := json.Unmarshal(s.Body, &b); err != nil {
		return nil, fmt.Errorf("decode ready body: %w", err)
	}
	return b.Logins, nil
}

// IsPingOrPong reports whether the signal's body is a valid Ping/Pong
// payload (null, {}, or absent) for the given op.
func (s Signal) IsPingOrPong() bool {
	if s.Op != OpPing && s.Op != OpPong {
		return false
	}
	if len(s.Body) == 0 || string(s.Body) == "null" {
		return true
	}
	var m map[string]json.RawMessage
	return json.Unmarshal(s.Body, &m) == nil && len(m) == 0
}
