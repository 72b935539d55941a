// Package sqlitevec persists chunk vectors in a local SQLite database with
// the vec virtual table module for similarity matching. It is the default
// backend: no external service, a single file under the persist directory.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/viant/sqlite-vec/engine"
	"github.com/viant/sqlite-vec/vec"
	"github.com/viant/sqlite-vec/vector"
	_ "modernc.org/sqlite" // pure Go sqlite driver

	"docquery/embeddings"
	"docquery/schema"
	"docquery/vectorstores"
)

// Store is a sqlite-vec backed vector store.
type Store struct {
	db            *sql.DB
	dsn           string
	vtable        string
	shadow        string
	ensureSchema  bool
	embedBatch    int
	embedModel    string
	openedLocally bool
}

// Option configures the sqlite-vec store.
type Option func(*Store)

// WithDB sets an existing *sql.DB to use.
func WithDB(db *sql.DB) Option {
	return func(s *Store) { s.db = db }
}

// WithDSN sets the SQLite DSN to open (e.g. /path/to/db.sqlite).
func WithDSN(dsn string) Option {
	return func(s *Store) { s.dsn = dsn }
}

// WithVTable sets the vec virtual table name (default: emb_chunks).
func WithVTable(name string) Option {
	return func(s *Store) { s.vtable = name }
}

// WithEnsureSchema controls whether the schema is created automatically.
func WithEnsureSchema(enabled bool) Option {
	return func(s *Store) { s.ensureSchema = enabled }
}

// WithEmbedBatchSize sets the embedding batch size for AddDocuments.
func WithEmbedBatchSize(size int) Option {
	return func(s *Store) { s.embedBatch = size }
}

// WithEmbeddingModel sets the embedding_model stored with rows.
func WithEmbeddingModel(model string) Option {
	return func(s *Store) { s.embedModel = model }
}

// New opens and initializes a sqlite-vec Store.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		vtable:       "emb_chunks",
		ensureSchema: true,
		embedBatch:   64,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.vtable == "" {
		s.vtable = "emb_chunks"
	}
	s.shadow = "_vec_" + s.vtable

	if s.db == nil {
		if s.dsn == "" {
			return nil, fmt.Errorf("sqlitevec: dsn required")
		}
		db, err := engine.Open(EnsurePragmas(s.dsn, true, 5000))
		if err != nil {
			return nil, err
		}
		s.db = db
		s.db.SetMaxOpenConns(4)
		s.db.SetMaxIdleConns(4)
		s.openedLocally = true
	}
	if err := vec.Register(s.db); err != nil {
		return nil, err
	}
	if s.ensureSchema {
		if err := s.ensureSchemaDDL(context.Background()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close closes the underlying DB if Store opened it.
func (s *Store) Close() error {
	if s.openedLocally && s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying sql.DB.
func (s *Store) DB() *sql.DB { return s.db }

// AddDocuments embeds and upserts documents into the shadow table.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, opts ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	options := vectorstores.NewOptions(opts...)
	if options.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	vecs, err := embedDocuments(ctx, options.Embedder, docs, s.embedBatch)
	if err != nil {
		return nil, err
	}
	stmt, err := s.db.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(dataset_id, id, source, content, meta, embedding, embedding_model, archived)
VALUES(?,?,?,?,?,?,?,0)
ON CONFLICT(dataset_id, id) DO UPDATE SET
	source=excluded.source,
	content=excluded.content,
	meta=excluded.meta,
	embedding=excluded.embedding,
	embedding_model=excluded.embedding_model,
	archived=0`, s.shadow))
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, len(docs))
	for i, doc := range docs {
		if doc.Metadata == nil {
			doc.Metadata = map[string]interface{}{}
		}
		id := fragmentID(doc)
		ids[i] = id
		metaJSON, err := encodeMeta(doc.Metadata)
		if err != nil {
			return nil, err
		}
		blob, err := vector.EncodeEmbedding(vecs[i])
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, options.Collection, id, doc.Source(), doc.PageContent, metaJSON, blob, s.embedModel); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// SimilaritySearch performs a MATCH query over the vec virtual table,
// falling back to a brute-force scan when the vec module is unavailable.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, opts ...vectorstores.Option) ([]schema.Document, error) {
	options := vectorstores.NewOptions(opts...)
	if options.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if k <= 0 {
		k = 10
	}
	qvec, err := options.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	blob, err := vector.EncodeEmbedding(qvec)
	if err != nil {
		return nil, err
	}

	match := fmt.Sprintf(`SELECT d.id, d.content, d.meta, v.match_score
FROM %s v
JOIN %s d ON d.dataset_id = v.dataset_id AND d.id = v.doc_id
WHERE v.dataset_id = ?
  AND v.doc_id MATCH ?
  AND d.archived = 0
  AND v.match_score >= ?
ORDER BY v.match_score DESC
LIMIT ?`, s.vtable, s.shadow)

	rows, err := s.db.QueryContext(ctx, match, options.Collection, blob, options.MinScore, k)
	if err != nil && isNoVecModule(err, s.vtable) {
		return s.fallbackSearch(ctx, options.Collection, qvec, options.MinScore, k)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []schema.Document
	for rows.Next() {
		var id, content, metaJSON string
		var score float64
		if err := rows.Scan(&id, &content, &metaJSON, &score); err != nil {
			return nil, err
		}
		doc, err := buildDocument(id, content, metaJSON, float32(score))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// fallbackSearch scans the shadow table and ranks by cosine similarity.
func (s *Store) fallbackSearch(ctx context.Context, collection string, qvec []float32, minScore float64, k int) ([]schema.Document, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, content, meta, embedding FROM %s WHERE dataset_id = ? AND archived = 0`, s.shadow), collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []schema.Document
	for rows.Next() {
		var id, content, metaJSON string
		var emb []byte
		if err := rows.Scan(&id, &content, &metaJSON, &emb); err != nil {
			return nil, err
		}
		stored, err := vector.DecodeEmbedding(emb)
		if err != nil {
			continue
		}
		score := vectorstores.Cosine(qvec, stored)
		if float64(score) < minScore {
			continue
		}
		doc, err := buildDocument(id, content, metaJSON, score)
		if err != nil {
			return nil, err
		}
		hits = append(hits, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Remove soft-deletes a chunk by id.
func (s *Store) Remove(ctx context.Context, id string, opts ...vectorstores.Option) error {
	options := vectorstores.NewOptions(opts...)
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET archived=1 WHERE dataset_id=? AND id=?`, s.shadow), options.Collection, id)
	return err
}

func (s *Store) ensureSchemaDDL(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dataset_id       TEXT NOT NULL,
			id               TEXT NOT NULL,
			source           TEXT,
			content          TEXT,
			meta             TEXT,
			embedding        BLOB,
			embedding_model  TEXT,
			archived         INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (dataset_id, id)
		);`, s.shadow),
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec(doc_id);`, s.vtable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_source ON %s(dataset_id, source);`, s.vtable, s.shadow),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_archived ON %s(dataset_id, archived);`, s.vtable, s.shadow),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			if strings.Contains(err.Error(), "no such module: vec") && strings.Contains(stmt, "VIRTUAL TABLE") {
				continue
			}
			return err
		}
	}
	return nil
}

func isNoVecModule(err error, vtable string) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such module: vec") ||
		strings.Contains(msg, "no such table: "+vtable) ||
		strings.Contains(msg, "unable to use function MATCH")
}

func embedDocuments(ctx context.Context, emb embeddings.Embedder, docs []schema.Document, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = 64
	}
	out := make([][]float32, 0, len(docs))
	for i := 0; i < len(docs); i += batchSize {
		end := i + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[i:end]
		texts := make([]string, len(batch))
		for j := range batch {
			texts[j] = batch[j].PageContent
		}
		vecs, err := emb.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d docs", len(vecs), len(texts))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func buildDocument(id, content, metaJSON string, score float32) (schema.Document, error) {
	metaMap, err := decodeMeta(metaJSON)
	if err != nil {
		return schema.Document{}, err
	}
	if _, ok := metaMap[schema.FragmentID]; !ok {
		metaMap[schema.FragmentID] = id
	}
	return schema.Document{PageContent: content, Metadata: metaMap, Score: score}, nil
}

func encodeMeta(metaIn map[string]interface{}) (string, error) {
	if metaIn == nil {
		metaIn = map[string]interface{}{}
	}
	data, err := json.Marshal(metaIn)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeMeta(metaJSON string) (map[string]interface{}, error) {
	if metaJSON == "" {
		return map[string]interface{}{}, nil
	}
	metaMap := map[string]interface{}{}
	if err := json.Unmarshal([]byte(metaJSON), &metaMap); err != nil {
		return nil, err
	}
	return metaMap, nil
}

func fragmentID(doc schema.Document) string {
	if v, ok := doc.Metadata[schema.FragmentID]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if v, ok := doc.Metadata[schema.DocumentID]; ok {
		if s, ok := v.(string); ok && s != "" {
			return fmt.Sprintf("%s#%d", s, chunkIndex(doc.Metadata))
		}
	}
	return fmt.Sprintf("doc#%d", chunkIndex(doc.Metadata))
}

func chunkIndex(metaIn map[string]interface{}) int {
	switch t := metaIn[schema.ChunkKey].(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}
