package mem

import (
	"context"
	"path/filepath"
	"testing"

	"docquery/embeddings"
	"docquery/schema"
	"docquery/vectorstores"
)

func testDocs() []schema.Document {
	return []schema.Document{
		{
			PageContent: "the quick brown fox jumps over the lazy dog",
			Metadata: map[string]interface{}{
				schema.SourceKey:  "/docs/animals.txt",
				schema.DocumentID: "/docs/animals.txt",
				schema.FragmentID: "/docs/animals.txt#0",
				schema.ChunkKey:   0,
			},
		},
		{
			PageContent: "quarterly revenue grew by twelve percent",
			Metadata: map[string]interface{}{
				schema.SourceKey:  "/docs/report.txt",
				schema.DocumentID: "/docs/report.txt",
				schema.FragmentID: "/docs/report.txt#0",
				schema.ChunkKey:   0,
			},
		},
	}
}

func TestStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	store, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	embedder := embeddings.NewSimpleEmbedder(0)

	ids, err := store.AddDocuments(ctx, testDocs(), vectorstores.WithEmbedder(embedder))
	if err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if ids[0] != "/docs/animals.txt#0" {
		t.Errorf("expected fragment id reuse, got %q", ids[0])
	}

	docs, err := store.SimilaritySearch(ctx, "the quick brown fox jumps over the lazy dog", 1,
		vectorstores.WithEmbedder(embedder))
	if err != nil {
		t.Fatalf("SimilaritySearch failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 result, got %d", len(docs))
	}
	if docs[0].Source() != "/docs/animals.txt" {
		t.Errorf("wrong top result: %v", docs[0].Metadata)
	}
	if docs[0].Score <= 0 {
		t.Errorf("expected positive score, got %v", docs[0].Score)
	}
}

func TestStore_Upsert(t *testing.T) {
	ctx := context.Background()
	store, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	embedder := embeddings.NewSimpleEmbedder(0)

	docs := testDocs()[:1]
	if _, err := store.AddDocuments(ctx, docs, vectorstores.WithEmbedder(embedder)); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
	docs[0].PageContent = "updated content"
	if _, err := store.AddDocuments(ctx, docs, vectorstores.WithEmbedder(embedder)); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
	results, err := store.SimilaritySearch(ctx, "updated content", 10, vectorstores.WithEmbedder(embedder))
	if err != nil {
		t.Fatalf("SimilaritySearch failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected upsert to keep a single record, got %d", len(results))
	}
	if results[0].PageContent != "updated content" {
		t.Errorf("stale content after upsert: %q", results[0].PageContent)
	}
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	store, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	embedder := embeddings.NewSimpleEmbedder(0)

	ids, err := store.AddDocuments(ctx, testDocs(), vectorstores.WithEmbedder(embedder))
	if err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
	if err := store.Remove(ctx, ids[0]); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	docs, err := store.SimilaritySearch(ctx, "anything", 10, vectorstores.WithEmbedder(embedder))
	if err != nil {
		t.Fatalf("SimilaritySearch failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 remaining document, got %d", len(docs))
	}
	if docs[0].Source() == "/docs/animals.txt" {
		t.Errorf("removed document still returned")
	}
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	location := filepath.Join(t.TempDir(), "snapshot.bin")
	embedder := embeddings.NewSimpleEmbedder(0)

	store, err := New(WithLocation(location))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := store.AddDocuments(ctx, testDocs(), vectorstores.WithEmbedder(embedder)); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := New(WithLocation(location))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	docs, err := reopened.SimilaritySearch(ctx, "quarterly revenue grew by twelve percent", 1,
		vectorstores.WithEmbedder(embedder))
	if err != nil {
		t.Fatalf("SimilaritySearch failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 result after reload, got %d", len(docs))
	}
	if docs[0].Source() != "/docs/report.txt" {
		t.Errorf("wrong result after reload: %v", docs[0].Metadata)
	}
	if chunk, ok := docs[0].Metadata[schema.ChunkKey].(int); !ok || chunk != 0 {
		t.Errorf("chunk metadata lost in snapshot: %v", docs[0].Metadata[schema.ChunkKey])
	}
}
