// Package embeddings defines the embedding contract and a deterministic
// local embedder; HTTP-backed implementations live in subpackages.
package embeddings

import "context"

// Embedder computes vector embeddings for documents and queries.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
