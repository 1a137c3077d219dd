// Package gemini provides a completion provider backed by Google's
// Gemini API.
package gemini

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"github.com/meeralabs/hivemind-go/pkg/llm"
	"github.com/meeralabs/hivemind-go/pkg/memory"
)

// Client implements llm.Provider on top of the Gemini generate-content
// API.
type Client struct {
	client *genai.Client
	model  string
}

// Config is the configuration for the Gemini completion client.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the model name, defaults to "gemini-2.0-flash".
	Model string
}

// NewClient creates a Gemini completion client.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, memory.NewEngineError("gemini.NewClient", memory.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// Complete generates a reply for the current message under the given
// system context and history.
func (c *Client) Complete(ctx context.Context, system, message string, history []llm.Message, opts ...llm.GenerateOption) (string, error) {
	return c.CompleteMessages(ctx, llm.BuildMessages(system, message, history), opts...)
}

// CompleteMessages generates a reply from an assembled message
// sequence. Gemini carries the system text as a separate instruction
// and names the assistant role "model".
func (c *Client) CompleteMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(options.Temperature)),
		TopP:            genai.Ptr(float32(options.TopP)),
		MaxOutputTokens: int32(options.MaxTokens),
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			config.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("completion failed: empty response from Gemini API")
	}

	return text, nil
}

// Close is a no-op; the genai client holds no persistent connections.
func (c *Client) Close() error {
	return nil
}
