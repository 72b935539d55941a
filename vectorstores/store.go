// Package vectorstores defines the vector store contract shared by the
// sqlitevec, qdrant, and mem backends.
package vectorstores

import (
	"context"
	"math"

	"docquery/schema"
)

// Store persists chunk documents as vectors and retrieves them by
// similarity. Backends are external systems treated as black boxes.
type Store interface {
	// AddDocuments embeds and stores the documents, returning one id per
	// document in input order.
	AddDocuments(ctx context.Context, docs []schema.Document, opts ...Option) ([]string, error)
	// SimilaritySearch returns up to k documents ordered by descending
	// similarity to the query.
	SimilaritySearch(ctx context.Context, query string, k int, opts ...Option) ([]schema.Document, error)
	// Remove deletes the stored chunk with the given id.
	Remove(ctx context.Context, id string, opts ...Option) error
	// Close releases backend resources.
	Close() error
}

// Cosine returns the cosine similarity of two vectors, 0 when either is
// degenerate or the dimensions differ.
func Cosine(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
