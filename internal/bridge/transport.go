package bridge

import (
	"context"
	"encoding/json"
)

// Handler receives the raw payload of a pushed backend event.
type Handler func(payload json.RawMessage)

// Transport moves frames between this process and the native backend.
// Call performs one request/response round trip; Subscribe registers a
// handler for pushed events and returns its unsubscribe function.
type Transport interface {
	Call(ctx context.Context, command string, args any) (json.RawMessage, error)
	Subscribe(event string, h Handler) (func(), error)
	Close() error
}

// frame is the wire representation shared by requests, responses and events.
// A frame with a non-empty Event field is a backend push; everything else is
// matched to a pending request by ID.
type frame struct {
	ID      string          `json:"id,omitempty"`
	Command string          `json:"command,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	OK      *bool           `json:"ok,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Auth    string          `json:"auth,omitempty"`
}

type wireError struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}
