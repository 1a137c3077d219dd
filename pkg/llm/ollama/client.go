// Package ollama provides a completion provider backed by a local or
// remote Ollama service.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meeralabs/hivemind-go/pkg/llm"
)

// Client implements llm.Provider against the Ollama chat API.
type Client struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
}

// Config is the configuration for the Ollama completion client.
type Config struct {
	// APIKey is optional; local deployments usually run without one.
	APIKey string

	// Model is the model name, defaults to "llama3.1".
	Model string

	// BaseURL is the service address, defaults to
	// "http://localhost:11434".
	BaseURL string

	// HTTPClient overrides the default client (120 second timeout).
	HTTPClient *http.Client
}

// NewClient creates an Ollama completion client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	model := cfg.Model
	if model == "" {
		model = "llama3.1"
	}

	client := cfg.HTTPClient
	if client == nil {
		// Large local models can take a while per request.
		client = &http.Client{Timeout: 120 * time.Second}
	}

	return &Client{
		client:  client,
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Complete generates a reply for the current message under the given
// system context and history.
func (c *Client) Complete(ctx context.Context, system, message string, history []llm.Message, opts ...llm.GenerateOption) (string, error) {
	return c.CompleteMessages(ctx, llm.BuildMessages(system, message, history), opts...)
}

// CompleteMessages generates a reply from an assembled message
// sequence. Ollama names the token limit num_predict.
func (c *Client) CompleteMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	chatMessages := make([]map[string]string, len(messages))
	for i, msg := range messages {
		chatMessages[i] = map[string]string{
			"role":    msg.Role,
			"content": msg.Content,
		}
	}

	reqBody := map[string]interface{}{
		"model":    c.model,
		"messages": chatMessages,
		"stream":   false,
		"options": map[string]interface{}{
			"temperature": options.Temperature,
			"num_predict": options.MaxTokens,
			"top_p":       options.TopP,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if response.Message.Content == "" {
		return "", errors.New("completion failed: empty response from Ollama API")
	}

	return response.Message.Content, nil
}

// Close is a no-op; the HTTP client needs no explicit shutdown.
func (c *Client) Close() error {
	return nil
}
