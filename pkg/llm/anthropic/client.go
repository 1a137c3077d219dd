// Package anthropic provides a completion provider backed by the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/meeralabs/hivemind-go/pkg/llm"
	"github.com/meeralabs/hivemind-go/pkg/memory"
)

// Client implements llm.Provider on top of the Anthropic SDK.
type Client struct {
	client *anthropic.Client
	model  string
}

// Config is the configuration for the Anthropic completion client.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// Model is the model name, defaults to "claude-3-5-sonnet-latest".
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string
}

// NewClient creates an Anthropic completion client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, memory.NewEngineError("anthropic.NewClient", memory.ErrInvalidConfig)
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(requestOpts...)

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}

	return &Client{
		client: &client,
		model:  model,
	}, nil
}

// Complete generates a reply for the current message under the given
// system context and history.
func (c *Client) Complete(ctx context.Context, system, message string, history []llm.Message, opts ...llm.GenerateOption) (string, error) {
	return c.CompleteMessages(ctx, llm.BuildMessages(system, message, history), opts...)
}

// CompleteMessages generates a reply from an assembled message
// sequence. The Messages API takes system text as a separate field,
// never inside the messages array.
func (c *Client) CompleteMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(options.MaxTokens),
		Temperature: anthropic.Float(options.Temperature),
		TopP:        anthropic.Float(options.TopP),
	}

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			params.System = []anthropic.TextBlockParam{{Text: msg.Content}}
		case llm.RoleAssistant:
			params.Messages = append(params.Messages,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			params.Messages = append(params.Messages,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			return text.Text, nil
		}
	}

	return "", errors.New("completion failed: no text content returned from Anthropic API")
}

// Close is a no-op; the SDK client holds no persistent connections.
func (c *Client) Close() error {
	return nil
}
