// Package huggingface embeds text through a locally served
// text-embeddings-inference instance.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "http://localhost:8080"
	embedEndpoint      = "/embed"
	defaultHTTPTimeout = 60 * time.Second
)

type embedRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate"`
}

// Client calls a text-embeddings-inference server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client; an empty baseURL targets localhost:8080.
func NewClient(baseURL string) *Client {
	c := &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	if baseURL != "" {
		c.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// Embed computes embeddings for the given texts.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no input texts provided")
	}
	reqBody, err := json.Marshal(embedRequest{Inputs: texts, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+embedEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings server error: %s", strings.TrimSpace(string(body)))
	}
	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("server returned %d vectors for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}

// Embedder bridges the client to the embeddings.Embedder interface.
type Embedder struct {
	C *Client
}

// NewEmbedder creates an embedder backed by text-embeddings-inference.
func NewEmbedder(baseURL string) *Embedder {
	return &Embedder{C: NewClient(baseURL)}
}

func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	return e.C.Embed(ctx, docs)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.C.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
