// Package llm talks to the completion model. Every workflow sees it as a
// single function from prompt text to response text.
package llm

import "context"

// Options tunes one completion. Zero values fall back to the client's
// configured defaults.
type Options struct {
	Model     string
	MaxTokens int
}

// Client completes a prompt.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Recorder receives every prompt and response that crosses a Client.
type Recorder interface {
	LogRequest(model, prompt string)
	LogResponse(response string)
}

// ClientFunc adapts an ordinary function to Client.
type ClientFunc func(ctx context.Context, prompt string, opts Options) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}
