// Package llm wraps the chat-completion capability behind a narrow
// interface so the orchestration core never touches a provider SDK
// directly. Implementations: the OpenAI-backed client and a scripted
// in-memory client for tests.
package llm

import "context"

// Request is one completion call: a model, a system instruction, and the
// flattened input text.
type Request struct {
	Model        string
	Instructions string
	Input        string
	Temperature  float64
	MaxTokens    int64
	// APIKey optionally overrides the client's default credential,
	// carrying a request bearer through to the provider.
	APIKey string
}

// Client is the opaque invocation capability: call a model with an input
// and get either incremental deltas or one final text.
type Client interface {
	// Complete performs a synchronous call and returns the final text.
	Complete(ctx context.Context, req Request) (string, error)

	// Stream performs a streaming call, invoking onDelta once per text
	// delta in order, and returns the assembled final text.
	Stream(ctx context.Context, req Request, onDelta func(delta string)) (string, error)
}
