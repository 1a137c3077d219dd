// Package llm defines the completion service contract consumed by the
// pipeline, along with message types and generation options.
//
// All provider implementations (Gemini, OpenAI, Anthropic, Ollama) must
// satisfy the Provider interface.
package llm

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single message in a conversation.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// Provider is the completion capability: an ordered message sequence in,
// a single text result out. Failures are reported as errors; the
// orchestrator decides which ones are fatal.
type Provider interface {
	// Complete generates a reply given a system context, the current user
	// message, and optional prior turns (alternating user/assistant text).
	Complete(ctx context.Context, system, message string, history []Message, opts ...GenerateOption) (string, error)

	// CompleteMessages generates a reply from an already-assembled
	// message sequence.
	CompleteMessages(ctx context.Context, messages []Message, opts ...GenerateOption) (string, error)

	// Close releases provider resources.
	Close() error
}

// BuildMessages assembles the canonical message order: system context
// first, then prior turns, then the current message. History entries
// with roles other than user/assistant are skipped.
func BuildMessages(system, message string, history []Message) []Message {
	messages := make([]Message, 0, len(history)+2)
	if system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: system})
	}
	for _, turn := range history {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			continue
		}
		if turn.Content == "" {
			continue
		}
		messages = append(messages, turn)
	}
	messages = append(messages, Message{Role: RoleUser, Content: message})
	return messages
}

// GenerateOptions contains options for text generation.
type GenerateOptions struct {
	// Temperature controls randomness (0.0-2.0).
	Temperature float64

	// MaxTokens limits the response length.
	MaxTokens int

	// TopP controls nucleus sampling (0.0-1.0).
	TopP float64
}

// GenerateOption configures GenerateOptions.
type GenerateOption func(*GenerateOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(opts *GenerateOptions) {
		opts.Temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens in the response.
func WithMaxTokens(max int) GenerateOption {
	return func(opts *GenerateOptions) {
		opts.MaxTokens = max
	}
}

// WithTopP sets the top-p (nucleus sampling) parameter.
func WithTopP(topP float64) GenerateOption {
	return func(opts *GenerateOptions) {
		opts.TopP = topP
	}
}

// ApplyGenerateOptions resolves options against the defaults
// (Temperature=0.7, MaxTokens=4096, TopP=1.0).
func ApplyGenerateOptions(opts []GenerateOption) *GenerateOptions {
	options := &GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   4096,
		TopP:        1.0,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
