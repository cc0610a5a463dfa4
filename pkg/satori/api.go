package satori

import "encoding/json"

// RawApiCall is the universal envelope crossing the SDK/App process
// boundary: a method name and an arbitrary JSON body.
type RawApiCall struct {
	Method string          `json:"method"`
	Body   json.RawMessage `json:"body"`
}

// IntoRawApiCall converts any typed call shape into the wire envelope.
// RawApiCall and TypedApiCall both implement it so Core.CallAPI can take
// either, matching the original's IntoRawApiCall trait.
type IntoRawApiCall interface {
	IntoRaw() (RawApiCall, error)
}

// IntoRaw implements IntoRawApiCall for RawApiCall itself (identity).
func (r RawApiCall) IntoRaw() (RawApiCall, error) { return r, nil }
