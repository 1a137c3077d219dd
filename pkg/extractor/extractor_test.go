package extractor_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeralabs/hivemind-go/pkg/extractor"
	"github.com/meeralabs/hivemind-go/pkg/llm"
	"github.com/meeralabs/hivemind-go/pkg/memory"
)

type fakeLLM struct {
	response string
	err      error
	lastMsgs []llm.Message
}

var _ llm.Provider = (*fakeLLM)(nil)

func (f *fakeLLM) Complete(ctx context.Context, system, message string, history []llm.Message, opts ...llm.GenerateOption) (string, error) {
	return f.CompleteMessages(ctx, llm.BuildMessages(system, message, history), opts...)
}

func (f *fakeLLM) CompleteMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	f.lastMsgs = messages
	return f.response, f.err
}

func (f *fakeLLM) Close() error { return nil }

type fakeEmbedder struct {
	vector []float64
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vector) }

func (f *fakeEmbedder) Close() error { return nil }

func newExtractor(t *testing.T, provider llm.Provider, emb *fakeEmbedder) *extractor.Extractor {
	t.Helper()
	cfg := extractor.Config{LLM: provider, Logger: zerolog.Nop()}
	if emb != nil {
		cfg.Embedder = emb
	}
	ext, err := extractor.New(cfg)
	require.NoError(t, err)
	return ext
}

var exchange = extractor.Exchange{
	UserMessage:    "I moved to Pune last month",
	AssistantReply: "Congratulations on the move!",
	SystemContext:  "some system context",
}

func TestExtractParsesSignals(t *testing.T) {
	provider := &fakeLLM{response: `[
		{"content": "User moved to Pune recently", "category": "identity", "tags": ["location"]},
		{"content": "User is settling into a new city", "category": "emotional-state", "tags": []}
	]`}
	ext := newExtractor(t, provider, nil)

	signals := ext.Extract(context.Background(), exchange)
	require.Len(t, signals, 2)
	assert.Equal(t, "User moved to Pune recently", signals[0].Content)
	assert.Equal(t, memory.CategoryIdentity, signals[0].Category)
	assert.Equal(t, []string{"location"}, signals[0].Tags)
	assert.Equal(t, memory.CategoryEmotionalState, signals[1].Category)
	assert.Nil(t, signals[1].Tags)
}

func TestExtractStripsCodeFences(t *testing.T) {
	provider := &fakeLLM{response: "```json\n[{\"content\": \"fact\", \"category\": \"factual\"}]\n```"}
	ext := newExtractor(t, provider, nil)

	signals := ext.Extract(context.Background(), exchange)
	require.Len(t, signals, 1)
	assert.Equal(t, "fact", signals[0].Content)
}

func TestExtractUnknownCategoryMapsToFactual(t *testing.T) {
	provider := &fakeLLM{response: `[{"content": "something", "category": "mystery"}]`}
	ext := newExtractor(t, provider, nil)

	signals := ext.Extract(context.Background(), exchange)
	require.Len(t, signals, 1)
	assert.Equal(t, memory.CategoryFactual, signals[0].Category)
}

func TestExtractCoercesBadTags(t *testing.T) {
	provider := &fakeLLM{response: `[{"content": "something", "category": "factual", "tags": "oops"}]`}
	ext := newExtractor(t, provider, nil)

	signals := ext.Extract(context.Background(), exchange)
	require.Len(t, signals, 1)
	assert.Nil(t, signals[0].Tags)
}

func TestExtractSkipsEmptyContent(t *testing.T) {
	provider := &fakeLLM{response: `[{"content": "  ", "category": "factual"}, {"content": "kept", "category": "factual"}]`}
	ext := newExtractor(t, provider, nil)

	signals := ext.Extract(context.Background(), exchange)
	require.Len(t, signals, 1)
	assert.Equal(t, "kept", signals[0].Content)
}

func TestExtractFallsBackToRawTrace(t *testing.T) {
	cases := map[string]*fakeLLM{
		"provider error": {err: errors.New("llm down")},
		"no json array":  {response: "I could not find anything."},
		"malformed json": {response: "[{'content': broken}]"},
		"all empty":      {response: `[{"content": "", "category": "factual"}]`},
		"empty response": {response: ""},
		"stray brackets": {response: "] ["},
	}

	for name, provider := range cases {
		t.Run(name, func(t *testing.T) {
			ext := newExtractor(t, provider, nil)
			signals := ext.Extract(context.Background(), exchange)
			require.Len(t, signals, 1)
			assert.Equal(t, exchange.Trace(), signals[0].Content)
			assert.Equal(t, memory.CategoryFactual, signals[0].Category)
		})
	}
}

func TestExtractWithoutLLMStoresRawTrace(t *testing.T) {
	ext := newExtractor(t, nil, nil)

	signals := ext.Extract(context.Background(), exchange)
	require.Len(t, signals, 1)
	assert.Equal(t, "User: I moved to Pune last month\nAssistant: Congratulations on the move!", signals[0].Content)
}

func TestToRecordFields(t *testing.T) {
	emb := &fakeEmbedder{vector: []float64{0.1, 0.2}}
	ext := newExtractor(t, nil, emb)

	signal := extractor.Signal{
		Content:  "User moved to Pune",
		Category: memory.CategoryIdentity,
		Tags:     []string{"location"},
	}
	record := ext.ToRecord(context.Background(), "u1", signal, exchange)

	require.NoError(t, record.Validate())
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "u1", record.OwnerID)
	assert.Equal(t, signal.Content, record.Content)
	assert.Equal(t, memory.CategoryIdentity, record.Category)
	assert.Equal(t, []string{"location"}, record.Tags)
	assert.Equal(t, 1.0, record.RecencyWeight)
	assert.Equal(t, "conversation", record.Origin)
	assert.Equal(t, []float64{0.1, 0.2}, record.Embedding)
	assert.Equal(t, exchange.Trace(), record.ExchangeSnippet)
	assert.Equal(t, exchange.SystemContext, record.ContextSnippet)
	assert.False(t, record.Shared)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestToRecordEmbeddingFailureIsNonFatal(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("embedding down")}
	ext := newExtractor(t, nil, emb)

	record := ext.ToRecord(context.Background(), "u1", extractor.Signal{
		Content:  "fact",
		Category: memory.CategoryFactual,
	}, exchange)

	require.NoError(t, record.Validate())
	assert.Nil(t, record.Embedding)
}

func TestToRecordTruncatesContextSnippet(t *testing.T) {
	ext, err := extractor.New(extractor.Config{SnippetLimit: 10, Logger: zerolog.Nop()})
	require.NoError(t, err)

	long := extractor.Exchange{
		UserMessage:    "hi",
		AssistantReply: "hello",
		SystemContext:  strings.Repeat("x", 100),
	}
	record := ext.ToRecord(context.Background(), "u1", extractor.Signal{
		Content:  "fact",
		Category: memory.CategoryFactual,
	}, long)

	assert.Len(t, record.ContextSnippet, 10)
}

func TestToRecordSnippetKeepsValidUTF8(t *testing.T) {
	ext, err := extractor.New(extractor.Config{SnippetLimit: 10, Logger: zerolog.Nop()})
	require.NoError(t, err)

	// Nine ASCII bytes followed by a three-byte rune: a byte cut at 10
	// would land mid-rune.
	multibyte := extractor.Exchange{
		UserMessage:    "hi",
		AssistantReply: "hello",
		SystemContext:  "123456789" + strings.Repeat("₹", 5),
	}
	record := ext.ToRecord(context.Background(), "u1", extractor.Signal{
		Content:  "fact",
		Category: memory.CategoryFactual,
	}, multibyte)

	assert.True(t, utf8.ValidString(record.ContextSnippet))
	assert.Equal(t, "123456789", record.ContextSnippet)
	assert.LessOrEqual(t, len(record.ContextSnippet), 10)
}

func TestNewSharedRecord(t *testing.T) {
	ext := newExtractor(t, nil, &fakeEmbedder{vector: []float64{0.5}})

	record := ext.NewSharedRecord(context.Background(), "u1", "insight", memory.CategoryFactual, []string{"t"})

	require.NoError(t, record.Validate())
	assert.True(t, record.Shared)
	assert.Equal(t, "u1", record.OwnerID)
	assert.Equal(t, "shared-insight", record.Origin)
	assert.Equal(t, 1.0, record.RecencyWeight)
	assert.Equal(t, []float64{0.5}, record.Embedding)
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	ext := newExtractor(t, nil, nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		record := ext.ToRecord(context.Background(), "u1", extractor.Signal{
			Content:  "fact",
			Category: memory.CategoryFactual,
		}, exchange)
		assert.False(t, seen[record.ID])
		seen[record.ID] = true
	}
}
