// Package llm defines the text generation contract shared by the ollama,
// openai, lmstudio and llamacpp backends.
package llm

import (
	"context"
)

// Model generates a completion for a prompt.
type Model interface {
	// Generate returns the full completion text. When a stream callback is
	// set, tokens are also delivered incrementally as they arrive.
	Generate(ctx context.Context, prompt string, opts ...Option) (string, error)
}

// Options collects optional generation parameters.
type Options struct {
	// Temperature controls sampling randomness; zero keeps backend default.
	Temperature float64
	// MaxTokens caps the completion length; zero keeps backend default.
	MaxTokens int
	// ContextSize is the model context window hint, for backends that take one.
	ContextSize int
	// Stream receives completion fragments as they arrive.
	Stream func(chunk string)
}

// Option applies configuration to Options.
type Option func(*Options)

// NewOptions folds the given options over defaults.
func NewOptions(opts ...Option) Options {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = t }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

// WithContextSize sets the model context window hint.
func WithContextSize(n int) Option {
	return func(o *Options) { o.ContextSize = n }
}

// WithStream delivers completion fragments to fn as they arrive.
func WithStream(fn func(chunk string)) Option {
	return func(o *Options) { o.Stream = fn }
}
