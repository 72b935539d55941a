package vectorstores

import (
	"docquery/embeddings"
)

// Option applies configuration to Options.
type Option func(*Options)

// Options collects optional parameters for vector store operations.
type Options struct {
	Embedder   embeddings.Embedder
	Collection string
	// MinScore filters search results below the given similarity.
	MinScore float64
}

// NewOptions folds the given options over defaults.
func NewOptions(opts ...Option) Options {
	options := Options{Collection: "default"}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithEmbedder sets the embedder to use.
func WithEmbedder(e embeddings.Embedder) Option {
	return func(o *Options) { o.Embedder = e }
}

// WithCollection sets the logical collection to operate on.
func WithCollection(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.Collection = name
		}
	}
}

// WithMinScore filters results below the given similarity score.
func WithMinScore(score float64) Option {
	return func(o *Options) {
		if score > 0 {
			o.MinScore = score
		}
	}
}
