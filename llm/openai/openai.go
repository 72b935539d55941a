// Package openai generates completions through an OpenAI-compatible chat
// completions endpoint.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"docquery/llm"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	chatEndpoint       = "/chat/completions"
	defaultModel       = "gpt-4o-mini"
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
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
		Delta   chatMessage `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Model is an OpenAI backed llm.Model.
type Model struct {
	BaseURL    string
	APIKey     string
	Name       string
	HTTPClient *http.Client
}

// ModelOption configures the model client.
type ModelOption func(*Model)

// WithBaseURL overrides the API base URL, for compatible servers.
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

// New creates an OpenAI model client. An empty apiKey falls back to the
// OPENAI_API_KEY environment variable, an empty name to gpt-4o-mini.
func New(apiKey, name string, opts ...ModelOption) *Model {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if name == "" {
		name = defaultModel
	}
	m := &Model{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		Name:       name,
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate returns a chat completion, streamed over SSE when a stream
// callback is set.
func (m *Model) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	options := llm.NewOptions(opts...)
	reqBody, err := json.Marshal(chatRequest{
		Model:       m.Name,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
		Stream:      options.Stream != nil,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+chatEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.APIKey)
	}

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var envelope chatResponse
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
			return "", fmt.Errorf("openai: %s", envelope.Error.Message)
		}
		return "", fmt.Errorf("openai server error: %s", strings.TrimSpace(string(body)))
	}

	if options.Stream != nil {
		return readStream(resp.Body, options.Stream)
	}
	var envelope chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return envelope.Choices[0].Message.Content, nil
}

// readStream consumes server-sent events until the [DONE] sentinel.
func readStream(body io.Reader, stream func(chunk string)) (string, error) {
	var out strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			if payload == "[DONE]" {
				break
			}
			continue
		}
		var envelope chatResponse
		if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
			return "", fmt.Errorf("decode stream event: %w", err)
		}
		if len(envelope.Choices) == 0 {
			continue
		}
		delta := envelope.Choices[0].Delta.Content
		if delta != "" {
			out.WriteString(delta)
			stream(delta)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	return out.String(), nil
}
