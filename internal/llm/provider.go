package llm

import "context"

// Provider is a generic text-generation interface over a local or remote
// model.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// StreamProvider is implemented by providers that can deliver tokens as they
// are produced.
type StreamProvider interface {
	Provider
	GenerateStream(ctx context.Context, prompt string, onToken func(string)) error
}
