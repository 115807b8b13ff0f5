package llm

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned by providers that require a credential when
// none was configured. The check happens before any network I/O.
var ErrMissingAPIKey = errors.New("llm: missing api key")

// Provider is a chat-completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Messages    []Message
	System      string
	Model       string // overrides the provider default when set
	MaxTokens   int
	Temperature *float64 // nil leaves the provider-side default in place
}

// Temp builds a Request temperature. The pointer distinguishes "unset" from
// an explicit zero, which must reach the wire for deterministic scoring.
func Temp(v float64) *float64 {
	return &v
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type Response struct {
	Text       string
	Model      string
	StopReason string
	Usage      Usage
	LatencyMs  int64
}
