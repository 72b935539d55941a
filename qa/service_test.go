package qa

import (
	"context"
	"strings"
	"testing"

	"docquery/embeddings"
	"docquery/llm"
	"docquery/schema"
	"docquery/vectorstores"
	"docquery/vectorstores/mem"
)

type fakeModel struct {
	prompt string
	reply  string
}

func (m *fakeModel) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	m.prompt = prompt
	options := llm.NewOptions(opts...)
	if options.Stream != nil {
		options.Stream(m.reply)
	}
	return m.reply, nil
}

func TestBuildPrompt(t *testing.T) {
	docs := []schema.Document{
		{PageContent: "first passage"},
		{PageContent: "  "},
		{PageContent: "second passage"},
	}
	prompt := BuildPrompt("what happened?", docs)

	if !strings.Contains(prompt, "first passage\n\nsecond passage") {
		t.Errorf("passages not stuffed: %q", prompt)
	}
	if !strings.Contains(prompt, "Question: what happened?") {
		t.Errorf("question missing: %q", prompt)
	}
	if !strings.Contains(prompt, "don't try to make up an answer") {
		t.Errorf("instruction missing: %q", prompt)
	}
	if strings.Contains(prompt, "%CONTEXT%") || strings.Contains(prompt, "%QUESTION%") {
		t.Errorf("placeholders left in prompt: %q", prompt)
	}
}

func TestService_Ask(t *testing.T) {
	ctx := context.Background()
	store, err := mem.New()
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	embedder := embeddings.NewSimpleEmbedder(0)
	docs := []schema.Document{
		{PageContent: "the fox jumped", Metadata: map[string]interface{}{schema.SourceKey: "/docs/a.txt"}},
		{PageContent: "revenue grew", Metadata: map[string]interface{}{schema.SourceKey: "/docs/b.txt"}},
	}
	if _, err := store.AddDocuments(ctx, docs, vectorstores.WithEmbedder(embedder)); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	model := &fakeModel{reply: "  The fox jumped.  "}
	svc := New(store, embedder, model, WithSourceChunks(1))

	answer, err := svc.Ask(ctx, "the fox jumped")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.Text != "The fox jumped." {
		t.Errorf("answer not trimmed: %q", answer.Text)
	}
	if len(answer.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(answer.Sources))
	}
	if answer.Sources[0].Source() != "/docs/a.txt" {
		t.Errorf("wrong source: %q", answer.Sources[0].Source())
	}
	if !strings.Contains(model.prompt, "the fox jumped") {
		t.Errorf("retrieved passage missing from prompt: %q", model.prompt)
	}
	if answer.Elapsed <= 0 {
		t.Errorf("elapsed not measured")
	}
}

func TestService_AskEmptyQuestion(t *testing.T) {
	store, err := mem.New()
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	svc := New(store, embeddings.NewSimpleEmbedder(0), &fakeModel{})
	if _, err := svc.Ask(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty question")
	}
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	store, err := mem.New()
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	embedder := embeddings.NewSimpleEmbedder(0)
	docs := []schema.Document{
		{PageContent: "alpha", Metadata: map[string]interface{}{schema.SourceKey: "/a"}},
		{PageContent: "beta", Metadata: map[string]interface{}{schema.SourceKey: "/b"}},
	}
	if _, err := store.AddDocuments(ctx, docs, vectorstores.WithEmbedder(embedder)); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	svc := New(store, embedder, nil)
	results, err := svc.Search(ctx, "alpha", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].PageContent != "alpha" {
		t.Errorf("expected best match first, got %q", results[0].PageContent)
	}
}
