// Package llamacpp generates completions through a llama.cpp server.
package llamacpp

import (
	"bufio"
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
	defaultBaseURL     = "http://localhost:8080"
	completionEndpoint = "/completion"
	defaultHTTPTimeout = 10 * time.Minute
)

type completionRequest struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature,omitempty"`
	NPredict    int     `json:"n_predict,omitempty"`
	Stream      bool    `json:"stream"`
}

type completionResponse struct {
	Content string `json:"content"`
	Stop    bool   `json:"stop"`
}

// Model is a llama.cpp server backed llm.Model.
type Model struct {
	BaseURL    string
	HTTPClient *http.Client
}

// ModelOption configures the model client.
type ModelOption func(*Model)

// WithBaseURL overrides the server URL (default http://localhost:8080).
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

// New creates a llama.cpp model client. The model itself is selected when
// the server is started, not per request.
func New(opts ...ModelOption) *Model {
	m := &Model{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate streams a completion from /completion and returns the full text.
func (m *Model) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	options := llm.NewOptions(opts...)
	reqBody, err := json.Marshal(completionRequest{
		Prompt:      prompt,
		Temperature: options.Temperature,
		NPredict:    options.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+completionEndpoint, bytes.NewReader(reqBody))
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
		return "", fmt.Errorf("llama.cpp server error: %s", strings.TrimSpace(string(body)))
	}

	var out strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		var chunk completionResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", fmt.Errorf("decode stream event: %w", err)
		}
		if chunk.Content != "" {
			out.WriteString(chunk.Content)
			if options.Stream != nil {
				options.Stream(chunk.Content)
			}
		}
		if chunk.Stop {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	return out.String(), nil
}
