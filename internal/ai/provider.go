package ai

import (
	"context"
	"errors"
)

// ErrNoCredentials is returned when the selected provider has no API key
// available in the environment. Callers treat it as a signal to use the
// deterministic fallback summary instead of failing the run.
var ErrNoCredentials = errors.New("ai: no API credentials configured")

// Provider is the interface that all AI backends must implement.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Name() string // "openai" or "anthropic"
}

// ChatRequest is a provider-agnostic request.
type ChatRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	JSONMode    bool // request JSON-formatted output
}

// ChatResponse is a provider-agnostic response.
type ChatResponse struct {
	Content    string
	TokensUsed int
	Model      string // e.g. "gpt-4o-mini" or "claude-3-5-haiku-latest"
	Provider   string // "openai" or "anthropic"
}

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}
