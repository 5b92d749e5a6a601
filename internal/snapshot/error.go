package snapshot

import (
	"encoding/json"
	"runtime/debug"
)

// NodeError is the structured record stamped on a node when it transitions
// to errored. It captures at least a message and a stack, and preserves any
// additional fields an already-structured error carried, so round-tripping
// through JSON does not lose information (§9 "Error serialization").
type NodeError struct {
	Message string         `json:"message"`
	Stack   string         `json:"stack"`
	Extra   map[string]any `json:"-"`
}

// extraCarrier is satisfied by errors that want to attach structured fields
// to the NodeError record they produce (e.g. a validation error exposing
// the offending field name).
type extraCarrier interface {
	ErrorExtra() map[string]any
}

// NewNodeError captures err's message, the current goroutine's stack, and
// any extra fields err chooses to expose via ErrorExtra().
func NewNodeError(err error) *NodeError {
	ne := &NodeError{
		Message: err.Error(),
		Stack:   string(debug.Stack()),
	}
	if carrier, ok := err.(extraCarrier); ok {
		ne.Extra = carrier.ErrorExtra()
	}
	return ne
}

// Error implements the error interface so a NodeError can itself be
// returned/wrapped like any other error.
func (e *NodeError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// MarshalJSON flattens Extra alongside the message/stack fields, per the
// wire contract in §6 ("errors as {message, stack, ...extra}").
func (e *NodeError) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+2)
	for k, v := range e.Extra {
		out[k] = v
	}
	out["message"] = e.Message
	out["stack"] = e.Stack
	return json.Marshal(out)
}

// UnmarshalJSON reads message/stack and keeps every other key as Extra, so
// re-ingesting a snapshot from an external store never silently drops
// fields another producer attached.
func (e *NodeError) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if msg, ok := raw["message"]; ok {
		_ = json.Unmarshal(msg, &e.Message)
		delete(raw, "message")
	}
	if stack, ok := raw["stack"]; ok {
		_ = json.Unmarshal(stack, &e.Stack)
		delete(raw, "stack")
	}
	if len(raw) > 0 {
		e.Extra = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			e.Extra[k] = val
		}
	}
	return nil
}
