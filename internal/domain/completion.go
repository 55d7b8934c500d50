package domain

import "errors"

// CompletionRequest is one provider-bound completion call: the system
// prompt, the windowed conversation, and generation parameters. It is built
// fresh per request and never reused.
type CompletionRequest struct {
	SystemPrompt string
	Messages     []ChatMessage
	Temperature  float64
	MaxTokens    int
}

// ErrProviderExhausted indicates every model candidate was attempted and
// none produced a reply.
var ErrProviderExhausted = errors.New("all completion model candidates exhausted")
