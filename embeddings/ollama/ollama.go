// Package ollama embeds text through a local Ollama server.
package ollama

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
	defaultBaseURL     = "http://localhost:11434"
	embedEndpoint      = "/api/embed"
	defaultHTTPTimeout = 60 * time.Second
)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the server base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.BaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.HTTPClient = client
		}
	}
}

// Client calls the Ollama embeddings API.
type Client struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings      [][]float32 `json:"embeddings"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	Error           string      `json:"error"`
}

// NewClient creates an Ollama embeddings client for the given model.
func NewClient(model string, opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:    defaultBaseURL,
		Model:      model,
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Embed computes embeddings for the given texts. It returns one vector per
// input and the prompt token count reported by the server.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, int, error) {
	if c.Model == "" {
		return nil, 0, fmt.Errorf("ollama model is required")
	}
	if len(texts) == 0 {
		return nil, 0, fmt.Errorf("no input texts provided")
	}
	reqBody, err := json.Marshal(embedRequest{Model: c.Model, Input: texts})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+embedEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("ollama API error: %s", strings.TrimSpace(string(body)))
	}
	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, 0, fmt.Errorf("ollama API error: %s", out.Error)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, 0, fmt.Errorf("ollama returned %d vectors for %d inputs", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, out.PromptEvalCount, nil
}

// Embedder bridges the client to the embeddings.Embedder interface.
type Embedder struct {
	C *Client
}

// NewEmbedder creates an Ollama-backed embedder.
func NewEmbedder(model, baseURL string) *Embedder {
	var opts []ClientOption
	if baseURL != "" {
		opts = append(opts, WithBaseURL(baseURL))
	}
	return &Embedder{C: NewClient(model, opts...)}
}

func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if e == nil || e.C == nil {
		return nil, fmt.Errorf("ollama embedder not configured")
	}
	vecs, _, err := e.C.Embed(ctx, docs)
	return vecs, err
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(vecs))
	}
	return vecs[0], nil
}
