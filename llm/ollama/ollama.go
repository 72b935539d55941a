// Package ollama generates completions through a local Ollama server.
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

	"docquery/llm"
)

const (
	defaultBaseURL     = "http://localhost:11434"
	generateEndpoint   = "/api/generate"
	defaultHTTPTimeout = 10 * time.Minute
)

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Model is an Ollama backed llm.Model.
type Model struct {
	BaseURL    string
	Name       string
	HTTPClient *http.Client
}

// ModelOption configures the model client.
type ModelOption func(*Model)

// WithBaseURL overrides the server URL (default http://localhost:11434).
func WithBaseURL(baseURL string) ModelOption {
	return func(m *Model) {
		if baseURL != "" {
			m.BaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) ModelOption {
	return func(m *Model) {
		if client != nil {
			m.HTTPClient = client
		}
	}
}

// New creates an Ollama model client for the named model.
func New(name string, opts ...ModelOption) *Model {
	m := &Model{
		BaseURL:    defaultBaseURL,
		Name:       name,
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate streams a completion from /api/generate and returns the full text.
func (m *Model) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	options := llm.NewOptions(opts...)
	modelOptions := map[string]interface{}{}
	if options.Temperature > 0 {
		modelOptions["temperature"] = options.Temperature
	}
	if options.ContextSize > 0 {
		modelOptions["num_ctx"] = options.ContextSize
	}
	if options.MaxTokens > 0 {
		modelOptions["num_predict"] = options.MaxTokens
	}
	reqBody, err := json.Marshal(generateRequest{
		Model:   m.Name,
		Prompt:  prompt,
		Stream:  true,
		Options: modelOptions,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+generateEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama server error: %s", strings.TrimSpace(string(body)))
	}

	var out strings.Builder
	decoder := json.NewDecoder(resp.Body)
	for {
		var chunk generateResponse
		if err := decoder.Decode(&chunk); err != nil {
			if err == io.EOF {
				break
			}
			return "", fmt.Errorf("decode response: %w", err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("ollama: %s", chunk.Error)
		}
		if chunk.Response != "" {
			out.WriteString(chunk.Response)
			if options.Stream != nil {
				options.Stream(chunk.Response)
			}
		}
		if chunk.Done {
			break
		}
	}
	return out.String(), nil
}
