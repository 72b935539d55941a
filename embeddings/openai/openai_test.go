package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization %q", auth)
		}
		// Out-of-order indices must land in input order.
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 1, "embedding": []float32{0.3, 0.4}},
				{"index": 0, "embedding": []float32{0.1, 0.2}},
			},
			"usage": map[string]int{"total_tokens": 12},
		})
	}))
	defer server.Close()

	c := NewClient("test-key", "", server.URL)
	vectors, tokens, err := c.Embed(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if vectors[0][0] != 0.1 || vectors[1][0] != 0.3 {
		t.Errorf("vectors not ordered by index: %v", vectors)
	}
	if tokens != 12 {
		t.Errorf("unexpected token count %d", tokens)
	}
}

func TestClient_EmbedAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid api key", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	c := NewClient("bad-key", "", server.URL)
	_, _, err := c.Embed(context.Background(), []string{"x"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("error should carry the API message: %v", err)
	}
}

func TestEmbedder_EmbedQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 0, "embedding": []float32{1, 2, 3}},
			},
		})
	}))
	defer server.Close()

	e := NewEmbedder("key", "text-embedding-3-small", server.URL)
	vec, err := e.EmbedQuery(context.Background(), "question")
	if err != nil {
		t.Fatalf("EmbedQuery failed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("unexpected vector %v", vec)
	}
}
