// Package qa answers questions over ingested documents: it retrieves the
// passages closest to the question and feeds them with the question to a
// language model.
package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docquery/embeddings"
	"docquery/llm"
	"docquery/schema"
	"docquery/vectorstores"
)

// DefaultSourceChunks is the number of passages retrieved per question.
const DefaultSourceChunks = 4

// Answer is the result of one question.
type Answer struct {
	// Text is the model completion.
	Text string
	// Sources are the retrieved passages the answer drew on, in descending
	// similarity order.
	Sources []schema.Document
	// Elapsed is the total retrieval plus generation time.
	Elapsed time.Duration
}

// Service wires retrieval and generation.
type Service struct {
	store      vectorstores.Store
	embedder   embeddings.Embedder
	model      llm.Model
	collection string
	topK       int
	minScore   float64
}

// ServiceOption configures the QA service.
type ServiceOption func(*Service)

// WithCollection sets the vector store collection searched.
func WithCollection(name string) ServiceOption {
	return func(s *Service) {
		if name != "" {
			s.collection = name
		}
	}
}

// WithSourceChunks sets how many passages are retrieved per question.
func WithSourceChunks(k int) ServiceOption {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithMinScore drops retrieved passages below the given similarity.
func WithMinScore(score float64) ServiceOption {
	return func(s *Service) {
		if score > 0 {
			s.minScore = score
		}
	}
}

// New creates a QA service.
func New(store vectorstores.Store, embedder embeddings.Embedder, model llm.Model, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		embedder:   embedder,
		model:      model,
		collection: "default",
		topK:       DefaultSourceChunks,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask retrieves context for the question and generates an answer.
func (s *Service) Ask(ctx context.Context, question string, opts ...llm.Option) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}
	start := time.Now()

	sources, err := s.store.SimilaritySearch(ctx, question, s.topK,
		vectorstores.WithEmbedder(s.embedder),
		vectorstores.WithCollection(s.collection),
		vectorstores.WithMinScore(s.minScore))
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	prompt := BuildPrompt(question, sources)
	text, err := s.model.Generate(ctx, prompt, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &Answer{
		Text:    strings.TrimSpace(text),
		Sources: sources,
		Elapsed: time.Since(start),
	}, nil
}

// Search returns the passages closest to the query without generation.
func (s *Service) Search(ctx context.Context, query string, k int) ([]schema.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if k <= 0 {
		k = s.topK
	}
	return s.store.SimilaritySearch(ctx, query, k,
		vectorstores.WithEmbedder(s.embedder),
		vectorstores.WithCollection(s.collection),
		vectorstores.WithMinScore(s.minScore))
}
