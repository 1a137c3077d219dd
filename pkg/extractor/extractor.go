// Package extractor turns finished conversational exchanges into memory
// signals and materializes signals into records.
//
// Extraction never fails: classification output is untrusted text
// parsed defensively, and every failure path degrades to a single
// raw-trace signal so information is never silently dropped.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"

	"github.com/meeralabs/hivemind-go/pkg/embedder"
	"github.com/meeralabs/hivemind-go/pkg/llm"
	"github.com/meeralabs/hivemind-go/pkg/memory"
)

// DefaultSnippetLimit bounds the stored context snippet.
const DefaultSnippetLimit = 500

// Exchange is a completed conversational turn.
type Exchange struct {
	// UserMessage is the user's text.
	UserMessage string

	// AssistantReply is the generated reply.
	AssistantReply string

	// SystemContext is the system context the reply was generated under,
	// kept only as a truncated audit snippet.
	SystemContext string
}

// Trace renders the exchange as a plain two-line transcript.
func (ex Exchange) Trace() string {
	return fmt.Sprintf("User: %s\nAssistant: %s", ex.UserMessage, ex.AssistantReply)
}

// Signal is a candidate memory extracted from an exchange, prior to
// being materialized into a record.
type Signal struct {
	// Content is the memory summary. Never empty for a valid signal.
	Content string `json:"content"`

	// Category is the validated classification.
	Category memory.Category `json:"category"`

	// Tags are optional labels.
	Tags []string `json:"tags,omitempty"`
}

// Config contains configuration for creating an Extractor.
type Config struct {
	// LLM is the classification capability. Nil disables classification
	// and puts extraction in raw-trace mode.
	LLM llm.Provider

	// Embedder is the embedding capability for record materialization.
	// Nil or failing leaves records without embeddings.
	Embedder embedder.Provider

	// SnippetLimit bounds the context snippet in bytes
	// (default DefaultSnippetLimit).
	SnippetLimit int

	// NodeID seeds the snowflake ID generator (default 1).
	NodeID int64

	// Logger receives extraction diagnostics.
	Logger zerolog.Logger
}

// Extractor extracts and classifies memory signals.
type Extractor struct {
	llm          llm.Provider
	embedder     embedder.Provider
	node         *snowflake.Node
	snippetLimit int
	logger       zerolog.Logger
}

// New creates an extractor.
func New(cfg Config) (*Extractor, error) {
	nodeID := cfg.NodeID
	if nodeID == 0 {
		nodeID = 1
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, memory.NewEngineError("NewExtractor", err)
	}

	snippetLimit := cfg.SnippetLimit
	if snippetLimit <= 0 {
		snippetLimit = DefaultSnippetLimit
	}

	return &Extractor{
		llm:          cfg.LLM,
		embedder:     cfg.Embedder,
		node:         node,
		snippetLimit: snippetLimit,
		logger:       cfg.Logger.With().Str("component", "extractor").Logger(),
	}, nil
}

// Extract turns an exchange into one or more signals.
//
// With classification disabled, or when the classifier fails or returns
// nothing parseable, the result is exactly one raw-trace signal holding
// the verbatim exchange. Extract never returns an error.
func (e *Extractor) Extract(ctx context.Context, ex Exchange) []Signal {
	if e.llm == nil {
		return []Signal{rawTraceSignal(ex)}
	}

	response, err := e.llm.CompleteMessages(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: extractionPrompt(ex)},
	}, llm.WithTemperature(0.3))
	if err != nil {
		e.logger.Warn().Err(err).Msg("classification failed, storing raw trace")
		return []Signal{rawTraceSignal(ex)}
	}

	signals := parseSignals(response)
	if len(signals) == 0 {
		e.logger.Warn().Str("response_preview", truncate(response, 200)).
			Msg("no parseable signals in classification response, storing raw trace")
		return []Signal{rawTraceSignal(ex)}
	}
	return signals
}

// ToRecord materializes a signal into a personal memory record for the
// owner. The embedding is best-effort: failure leaves it absent.
func (e *Extractor) ToRecord(ctx context.Context, ownerID string, signal Signal, ex Exchange) *memory.MemoryRecord {
	return &memory.MemoryRecord{
		ID:              e.node.Generate().String(),
		OwnerID:         ownerID,
		Content:         signal.Content,
		Category:        signal.Category,
		CreatedAt:       time.Now().UTC(),
		Tags:            signal.Tags,
		RecencyWeight:   1.0,
		Origin:          "conversation",
		Embedding:       e.embed(ctx, signal.Content),
		ExchangeSnippet: ex.Trace(),
		ContextSnippet:  truncate(ex.SystemContext, e.snippetLimit),
		Shared:          false,
	}
}

// NewSharedRecord builds a shared (hive-mind) record directly from
// caller-supplied content, with no classification step. OwnerID marks
// the original contributor.
func (e *Extractor) NewSharedRecord(ctx context.Context, ownerID, content string, category memory.Category, tags []string) *memory.MemoryRecord {
	return &memory.MemoryRecord{
		ID:            e.node.Generate().String(),
		OwnerID:       ownerID,
		Content:       content,
		Category:      category,
		CreatedAt:     time.Now().UTC(),
		Tags:          tags,
		RecencyWeight: 1.0,
		Origin:        "shared-insight",
		Embedding:     e.embed(ctx, content),
		Shared:        true,
	}
}

func (e *Extractor) embed(ctx context.Context, text string) []float64 {
	if e.embedder == nil {
		return nil
	}
	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		e.logger.Warn().Err(err).Msg("embedding failed, record stored without vector")
		return nil
	}
	return vector
}

// rawTraceSignal is the deterministic fallback: the verbatim exchange
// as a single factual signal.
func rawTraceSignal(ex Exchange) Signal {
	return Signal{
		Content:  ex.Trace(),
		Category: memory.CategoryFactual,
	}
}

// rawSignal mirrors the classifier's requested output shape before
// validation. Tags stays loosely typed so non-sequence values can be
// coerced to empty instead of failing the whole array.
type rawSignal struct {
	Content  string `json:"content"`
	Category string `json:"category"`
	Tags     any    `json:"tags"`
}

// parseSignals locates the first well-formed JSON array in the response
// and validates each element. Anything malformed yields zero signals,
// never an error.
func parseSignals(response string) []Signal {
	response = stripCodeFences(response)

	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end <= start {
		return nil
	}

	var raw []rawSignal
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return nil
	}

	signals := make([]Signal, 0, len(raw))
	for _, candidate := range raw {
		content := strings.TrimSpace(candidate.Content)
		if content == "" {
			continue
		}
		signals = append(signals, Signal{
			Content:  content,
			Category: memory.ParseCategory(candidate.Category),
			Tags:     coerceTags(candidate.Tags),
		})
	}
	return signals
}

// coerceTags keeps string elements of a sequence and maps anything else
// to empty.
func coerceTags(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		if tag, ok := item.(string); ok && tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// stripCodeFences removes ```json ... ``` markers classifiers like to
// wrap around their output.
func stripCodeFences(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}

// truncate cuts s to at most limit bytes without splitting a UTF-8
// rune, backing up to the previous rune boundary when the cut lands
// mid-sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
