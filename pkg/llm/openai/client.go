// Package openai provides an OpenAI-backed completion provider. Any
// OpenAI-compatible endpoint works through BaseURL.
package openai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/meeralabs/hivemind-go/pkg/llm"
	"github.com/meeralabs/hivemind-go/pkg/memory"
)

// Client implements llm.Provider on top of the OpenAI chat completion
// API.
type Client struct {
	client *openai.Client
	model  string
}

// Config is the configuration for the OpenAI completion client.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// Model is the model name, defaults to "gpt-4o-mini".
	Model string

	// BaseURL overrides the API endpoint for compatible services.
	BaseURL string
}

// NewClient creates an OpenAI completion client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, memory.NewEngineError("openai.NewClient", memory.ErrInvalidConfig)
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Complete generates a reply for the current message under the given
// system context and history.
func (c *Client) Complete(ctx context.Context, system, message string, history []llm.Message, opts ...llm.GenerateOption) (string, error) {
	return c.CompleteMessages(ctx, llm.BuildMessages(system, message, history), opts...)
}

// CompleteMessages generates a reply from an assembled message
// sequence.
func (c *Client) CompleteMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMessages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
		TopP:        float32(options.TopP),
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("completion failed: no choices returned from OpenAI API")
	}

	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op; the OpenAI SDK holds no persistent connections.
func (c *Client) Close() error {
	return nil
}
