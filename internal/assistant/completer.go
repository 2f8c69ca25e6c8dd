package assistant

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrTransient marks retryable completion-service failures (server-side
// faults). Permanent errors (auth, quota, malformed request) are returned
// unwrapped and never retried.
var ErrTransient = errors.New("transient completion-service error")

// Tool declares a function the completion service may invoke, with a JSON
// schema for its parameters.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// RawToolCall is a tool invocation as returned by the completion service,
// before validation against the typed action set.
type RawToolCall struct {
	Name string
	Args json.RawMessage
}

type Request struct {
	SystemInstruction string
	History           []ChatMessage
	Utterance         string
	Tools             []Tool
	Temperature       float64
}

type Result struct {
	Text      string
	ToolCalls []RawToolCall
}

// Completer abstracts the external completion service.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Result, error)
}
