// Package ingest walks a source directory, extracts text from supported
// documents, chunks it and writes embeddings to the vector store. A cache
// of content hashes makes re-ingestion incremental: unchanged files are
// skipped, changed files are re-embedded and files removed from the source
// tree have their vectors dropped.
package ingest

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"

	"docquery/document"
	"docquery/embeddings"
	"docquery/ingest/cache"
	"docquery/loader"
	"docquery/matching"
	"docquery/schema"
	"docquery/splitter"
	"docquery/vectorstores"
)

const defaultBatchSize = 64

// Stats summarizes one ingestion run.
type Stats struct {
	// Files is the number of supported files examined.
	Files int
	// Skipped is the number of unchanged files left alone.
	Skipped int
	// Chunks is the number of chunk documents written to the store.
	Chunks int
	// Removed is the number of stale chunk vectors dropped.
	Removed int
	// Failed is the number of files that could not be loaded.
	Failed int
}

// Service ingests a source directory into a vector store.
type Service struct {
	fs         afs.Service
	store      vectorstores.Store
	embedder   embeddings.Embedder
	loaders    *loader.Registry
	splitters  *splitter.Factory
	matcher    *matching.Manager
	persistDir string
	collection string
	workers    int
	batchSize  int
	progress   func(processed, total int, location string)
	logf       func(format string, args ...interface{})
}

// New creates an ingest service persisting its cache under persistDir.
func New(store vectorstores.Store, embedder embeddings.Embedder, loaders *loader.Registry, splitters *splitter.Factory, persistDir string, opts ...Option) *Service {
	s := &Service{
		fs:         afs.New(),
		store:      store,
		embedder:   embedder,
		loaders:    loaders,
		splitters:  splitters,
		matcher:    matching.New(),
		persistDir: persistDir,
		collection: "default",
		workers:    defaultWorkers(),
		batchSize:  defaultBatchSize,
		logf:       log.Printf,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

type fileResult struct {
	entry    *document.Entry
	docs     []schema.Document
	toRemove []string
	skipped  bool
	failed   bool
}

// Ingest processes all supported documents under sourceDir.
func (s *Service) Ingest(ctx context.Context, sourceDir string) (*Stats, error) {
	entries := cache.NewMap[string, document.Entry]()
	if err := s.loadCache(ctx, entries); err != nil {
		// an unreadable cache means a cold start, every file gets reindexed
		s.logf("ingest cache unreadable, reindexing: %v", err)
		entries = cache.NewMap[string, document.Entry]()
	}

	objects, err := s.collect(ctx, sourceDir)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 && entries.Size() == 0 {
		return nil, fmt.Errorf("no supported documents found in %s (extensions: %s)", sourceDir, strings.Join(s.loaders.Extensions(), ", "))
	}

	stats := &Stats{Files: len(objects)}
	var toAdd []schema.Document
	var toRemove []string

	results := s.processAll(ctx, objects, entries)
	for _, res := range results {
		if res.skipped {
			stats.Skipped++
			continue
		}
		if res.failed {
			stats.Failed++
			continue
		}
		toAdd = append(toAdd, res.docs...)
		toRemove = append(toRemove, res.toRemove...)
		entries.Set(res.entry.ID, res.entry)
	}

	toRemove = append(toRemove, s.pruneDeleted(objects, entries)...)

	for _, id := range toRemove {
		if err := s.store.Remove(ctx, id, vectorstores.WithCollection(s.collection)); err != nil {
			return nil, fmt.Errorf("remove stale chunk %s: %w", id, err)
		}
	}
	stats.Removed = len(toRemove)

	if err := s.addDocuments(ctx, toAdd, entries); err != nil {
		return nil, err
	}
	stats.Chunks = len(toAdd)

	if err := s.persistCache(ctx, entries); err != nil {
		return nil, fmt.Errorf("persist ingest cache: %w", err)
	}
	return stats, nil
}

// collect lists supported files under location, recursing into directories.
func (s *Service) collect(ctx context.Context, location string) ([]storage.Object, error) {
	objects, err := s.fs.List(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", location, err)
	}
	var out []storage.Object
	for _, object := range objects {
		if object.IsDir() {
			if url.Equals(url.Path(object.URL()), url.Path(location)) || object.Name() == "." {
				continue
			}
			sub, err := s.collect(ctx, url.Join(location, object.Name()))
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		if s.matcher.IsExcluded(object.URL(), int(object.Size())) {
			continue
		}
		if !s.loaders.Supported(object.Name()) {
			s.logf("ingest: skipping %s: unsupported extension", url.Path(object.URL()))
			continue
		}
		out = append(out, object)
	}
	return out, nil
}

// processAll runs the per-file pipeline over a bounded worker pool.
func (s *Service) processAll(ctx context.Context, objects []storage.Object, entries *cache.Map[string, document.Entry]) []*fileResult {
	results := make([]*fileResult, len(objects))
	limiter := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	var processed int
	var mu sync.Mutex

	for i, object := range objects {
		wg.Add(1)
		limiter <- struct{}{}
		go func(i int, object storage.Object) {
			defer wg.Done()
			defer func() { <-limiter }()
			results[i] = s.processFile(ctx, object, entries)
			if s.progress != nil {
				mu.Lock()
				processed++
				s.progress(processed, len(objects), url.Path(object.URL()))
				mu.Unlock()
			}
		}(i, object)
	}
	wg.Wait()
	return results
}

// processFile loads, hashes and chunks one file. Per-file failures are
// logged and reported in stats rather than aborting the run.
func (s *Service) processFile(ctx context.Context, object storage.Object, entries *cache.Map[string, document.Entry]) *fileResult {
	docID := url.Path(object.URL())
	data, err := s.fs.DownloadWithURL(ctx, object.URL())
	if err != nil {
		s.logf("ingest: %s: download failed: %v", docID, err)
		return &fileResult{failed: true}
	}
	hash, err := cache.Hash(data)
	if err != nil || hash == 0 {
		hash = uint64(object.ModTime().Unix())
	}
	prev, ok := entries.Get(docID)
	if ok && prev.Hash == hash {
		return &fileResult{skipped: true}
	}

	text, err := s.loaders.Load(docID, data)
	if err != nil {
		s.logf("ingest: %s: load failed: %v", docID, err)
		return &fileResult{failed: true}
	}
	chunks, err := s.splitters.GetSplitter(docID).Split(text)
	if err != nil {
		s.logf("ingest: %s: split failed: %v", docID, err)
		return &fileResult{failed: true}
	}

	kind := s.splitters.Kind(docID)
	entry := &document.Entry{ID: docID, ModTime: object.ModTime(), Hash: hash}
	docs := make([]schema.Document, 0, len(chunks))
	for index, chunk := range chunks {
		checksum, _ := cache.Hash([]byte(chunk))
		fragment := &document.Fragment{
			Index:    index,
			Size:     len(chunk),
			Checksum: int(int32(checksum)),
			Kind:     kind,
		}
		entry.Fragments = append(entry.Fragments, fragment)
		docs = append(docs, fragment.NewDocument(docID, chunk))
	}

	result := &fileResult{entry: entry, docs: docs}
	if prev != nil {
		result.toRemove = prev.Fragments.VectorDBIDs()
	}
	return result
}

// pruneDeleted drops cache entries whose source files no longer exist and
// returns their stale vector ids.
func (s *Service) pruneDeleted(objects []storage.Object, entries *cache.Map[string, document.Entry]) []string {
	seen := make(map[string]bool, len(objects))
	for _, object := range objects {
		seen[url.Path(object.URL())] = true
	}
	var stale []string
	for _, id := range entries.Keys() {
		if seen[id] {
			continue
		}
		if entry, ok := entries.Get(id); ok {
			stale = append(stale, entry.Fragments.VectorDBIDs()...)
		}
		entries.Delete(id)
		s.logf("ingest: %s: removed from source, dropping vectors", id)
	}
	sort.Strings(stale)
	return stale
}

// addDocuments stores chunk documents in batches and records the assigned
// vector ids back on the cached fragments.
func (s *Service) addDocuments(ctx context.Context, docs []schema.Document, entries *cache.Map[string, document.Entry]) error {
	opts := []vectorstores.Option{
		vectorstores.WithEmbedder(s.embedder),
		vectorstores.WithCollection(s.collection),
	}
	for start := 0; start < len(docs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]
		ids, err := s.store.AddDocuments(ctx, batch, opts...)
		if err != nil {
			return fmt.Errorf("add documents: %w", err)
		}
		if err := s.assignIDs(batch, ids, entries); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) assignIDs(docs []schema.Document, ids []string, entries *cache.Map[string, document.Entry]) error {
	for i, id := range ids {
		if i >= len(docs) || id == "" {
			continue
		}
		metadata := docs[i].Metadata
		docID, _ := metadata[schema.DocumentID].(string)
		entry, ok := entries.Get(docID)
		if !ok {
			return fmt.Errorf("cache entry not found for document %s", docID)
		}
		fragmentID, _ := metadata[schema.FragmentID].(string)
		for _, fragment := range entry.Fragments {
			if fragment.ID(docID) == fragmentID {
				fragment.VectorDBID = id
				break
			}
		}
		entries.Set(docID, entry)
	}
	return nil
}

func (s *Service) cacheURL() string {
	return url.Join(s.persistDir, fmt.Sprintf("cache_%s.json", s.collection))
}

func (s *Service) loadCache(ctx context.Context, entries *cache.Map[string, document.Entry]) error {
	location := s.cacheURL()
	if ok, _ := s.fs.Exists(ctx, location); !ok {
		return nil
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return err
	}
	return entries.Load(data)
}

func (s *Service) persistCache(ctx context.Context, entries *cache.Map[string, document.Entry]) error {
	data, err := entries.Data()
	if err != nil {
		return err
	}
	return s.fs.Upload(ctx, s.cacheURL(), file.DefaultFileOsMode, strings.NewReader(string(data)))
}
