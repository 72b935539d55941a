// Package lmstudio generates completions through a local LM Studio server.
package lmstudio

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
	defaultBaseURL     = "http://localhost:1234"
	chatEndpoint       = "/v1/chat/completions"
	defaultHTTPTimeout = 10 * time.Minute
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Model is an LM Studio backed llm.Model.
type Model struct {
	BaseURL    string
	Name       string
	HTTPClient *http.Client
}

// ModelOption configures the model client.
type ModelOption func(*Model)

// WithBaseURL overrides the server URL (default http://localhost:1234).
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

// New creates an LM Studio model client. The model name is the identifier
// of the model loaded in the server.
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

// Generate returns a chat completion. LM Studio responses are delivered in
// one piece; a stream callback receives the full text once.
func (m *Model) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	options := llm.NewOptions(opts...)
	reqBody, err := json.Marshal(chatRequest{
		Model:       m.Name,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+chatEndpoint, bytes.NewReader(reqBody))
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
		return "", fmt.Errorf("lmstudio server error: %s", strings.TrimSpace(string(body)))
	}
	var envelope chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Choices) == 0 {
		return "", fmt.Errorf("lmstudio returned no choices")
	}
	content := envelope.Choices[0].Message.Content
	if options.Stream != nil {
		options.Stream(content)
	}
	return content, nil
}
