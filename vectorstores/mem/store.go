// Package mem provides an in-process vector store with an optional binary
// snapshot on disk. It needs no external service and backs tests and
// zero-setup runs.
package mem

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"docquery/schema"
	"docquery/vectorstores"
)

type record struct {
	id     string
	doc    schema.Document
	vector []float32
}

// Store keeps vectors in memory, optionally snapshotting to a file.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]*record
	location    string
	fs          afs.Service
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithLocation enables snapshot persistence at the given file path.
func WithLocation(location string) StoreOption {
	return func(s *Store) { s.location = location }
}

// New creates a memory store, loading a prior snapshot when one exists.
func New(opts ...StoreOption) (*Store, error) {
	s := &Store{
		collections: make(map[string][]*record),
		fs:          afs.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.location != "" {
		if err := s.load(context.Background()); err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
	}
	return s, nil
}

// AddDocuments embeds and stores the documents.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, opts ...vectorstores.Option) ([]string, error) {
	options := vectorstores.NewOptions(opts...)
	if options.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if len(docs) == 0 {
		return nil, nil
	}
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := options.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	s.mu.Lock()
	records := s.collections[options.Collection]
	ids := make([]string, len(docs))
	for i, doc := range docs {
		id := documentFragmentID(&doc)
		if id == "" {
			id = uuid.New().String()
		}
		ids[i] = id
		records = upsert(records, &record{id: id, doc: doc, vector: vectors[i]})
	}
	s.collections[options.Collection] = records
	s.mu.Unlock()

	if s.location != "" {
		if err := s.persist(ctx); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// SimilaritySearch returns up to k documents by descending cosine similarity.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, opts ...vectorstores.Option) ([]schema.Document, error) {
	options := vectorstores.NewOptions(opts...)
	if options.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	qvec, err := options.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	records := s.collections[options.Collection]
	type hit struct {
		doc   schema.Document
		score float32
	}
	hits := make([]hit, 0, len(records))
	for _, rec := range records {
		score := vectorstores.Cosine(qvec, rec.vector)
		if float64(score) < options.MinScore {
			continue
		}
		hits = append(hits, hit{doc: rec.doc, score: score})
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	out := make([]schema.Document, 0, len(hits))
	for _, h := range hits {
		doc := h.doc
		doc.Score = h.score
		out = append(out, doc)
	}
	return out, nil
}

// Remove deletes the chunk with the given id.
func (s *Store) Remove(ctx context.Context, id string, opts ...vectorstores.Option) error {
	options := vectorstores.NewOptions(opts...)
	s.mu.Lock()
	records := s.collections[options.Collection]
	next := records[:0]
	for _, rec := range records {
		if rec.id == id {
			continue
		}
		next = append(next, rec)
	}
	s.collections[options.Collection] = next
	s.mu.Unlock()

	if s.location != "" {
		return s.persist(ctx)
	}
	return nil
}

// Close persists the snapshot when a location is configured.
func (s *Store) Close() error {
	if s.location == "" {
		return nil
	}
	return s.persist(context.Background())
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.RLock()
	data, err := s.snapshot().marshal()
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.fs.Upload(ctx, s.location, file.DefaultFileOsMode, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context) error {
	exists, _ := s.fs.Exists(ctx, s.location)
	if !exists {
		return nil
	}
	data, err := s.fs.DownloadWithURL(ctx, s.location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	snap := &snapshot{}
	if err := snap.unmarshal(data); err != nil {
		return err
	}
	s.collections = snap.restore()
	return nil
}

func upsert(records []*record, rec *record) []*record {
	for i, existing := range records {
		if existing.id == rec.id {
			records[i] = rec
			return records
		}
	}
	return append(records, rec)
}

func documentFragmentID(doc *schema.Document) string {
	if doc.Metadata == nil {
		return ""
	}
	if id, ok := doc.Metadata[schema.FragmentID].(string); ok {
		return id
	}
	return ""
}
