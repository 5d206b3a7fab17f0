package labeling

import "context"

// Client sends a prompt to a language model and returns its raw text answer.
// Implementations wrap a concrete provider so the verifier can be tested
// without network access.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a plain function to the Client interface.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
