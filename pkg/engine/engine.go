// Package engine wires the document store, vector index, providers, and
// pipeline into a single conversational memory engine.
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/meeralabs/hivemind-go/pkg/docstore"
	"github.com/meeralabs/hivemind-go/pkg/docstore/mysql"
	"github.com/meeralabs/hivemind-go/pkg/docstore/postgres"
	"github.com/meeralabs/hivemind-go/pkg/docstore/sqlite"
	"github.com/meeralabs/hivemind-go/pkg/embedder"
	embeddergemini "github.com/meeralabs/hivemind-go/pkg/embedder/gemini"
	embedderopenai "github.com/meeralabs/hivemind-go/pkg/embedder/openai"
	"github.com/meeralabs/hivemind-go/pkg/extractor"
	"github.com/meeralabs/hivemind-go/pkg/llm"
	llmanthropic "github.com/meeralabs/hivemind-go/pkg/llm/anthropic"
	llmgemini "github.com/meeralabs/hivemind-go/pkg/llm/gemini"
	llmollama "github.com/meeralabs/hivemind-go/pkg/llm/ollama"
	llmopenai "github.com/meeralabs/hivemind-go/pkg/llm/openai"
	"github.com/meeralabs/hivemind-go/pkg/memory"
	"github.com/meeralabs/hivemind-go/pkg/pipeline"
	"github.com/meeralabs/hivemind-go/pkg/prompt"
	"github.com/meeralabs/hivemind-go/pkg/retriever"
	"github.com/meeralabs/hivemind-go/pkg/store"
	"github.com/meeralabs/hivemind-go/pkg/vectorindex"
	vichromem "github.com/meeralabs/hivemind-go/pkg/vectorindex/chromem"
)

// Engine is the top-level client. One engine serves all users; scoping
// happens per call through user IDs.
type Engine struct {
	store        *store.Store
	retriever    *retriever.Retriever
	extractor    *extractor.Extractor
	orchestrator *pipeline.Orchestrator
	completion   llm.Provider
	embedder     embedder.Provider
	logger       zerolog.Logger
}

// Option configures an Engine during construction.
type Option func(*options)

type options struct {
	logger   zerolog.Logger
	renderer pipeline.ContextRenderer
}

// WithLogger sets the logger used by all engine components. The
// default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRenderer replaces the default system prompt renderer.
func WithRenderer(renderer pipeline.ContextRenderer) Option {
	return func(o *options) {
		o.renderer = renderer
	}
}

// New creates an engine from the configuration.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, memory.NewEngineError("NewEngine", memory.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.renderer == nil {
		o.renderer = prompt.NewBuilder(cfg.Persona)
	}

	docs, err := initDocStore(&cfg.DocStore)
	if err != nil {
		return nil, err
	}

	index, err := initVectorIndex(&cfg.VectorIndex)
	if err != nil {
		docs.Close()
		return nil, err
	}

	completion, err := initLLM(ctx, &cfg.LLM)
	if err != nil {
		docs.Close()
		return nil, err
	}

	emb, err := initEmbedder(ctx, &cfg.Embedder)
	if err != nil {
		docs.Close()
		completion.Close()
		return nil, err
	}

	cleanup := func() {
		docs.Close()
		completion.Close()
		if emb != nil {
			emb.Close()
		}
	}

	st := store.New(docs, index, o.logger)
	ret := retriever.New(st, emb, o.logger)

	var extractionLLM llm.Provider
	if cfg.ExtractionEnabled {
		extractionLLM = completion
	}
	ext, err := extractor.New(extractor.Config{
		LLM:      extractionLLM,
		Embedder: emb,
		Logger:   o.logger,
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	orch, err := pipeline.New(pipeline.Config{
		Store:      st,
		Retriever:  ret,
		Extractor:  ext,
		Completion: completion,
		Renderer:   o.renderer,
		Logger:     o.logger,
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	return &Engine{
		store:        st,
		retriever:    ret,
		extractor:    ext,
		orchestrator: orch,
		completion:   completion,
		embedder:     emb,
		logger:       o.logger.With().Str("component", "engine").Logger(),
	}, nil
}

// NewFromEnv creates an engine from environment configuration.
func NewFromEnv(ctx context.Context, opts ...Option) (*Engine, error) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, opts...)
}

// Respond runs a full conversational turn for the user: memory-aware
// context assembly, reply generation, and memory update.
func (e *Engine) Respond(ctx context.Context, userID, message string, history []llm.Message) (*pipeline.Result, error) {
	return e.orchestrator.Respond(ctx, userID, message, history)
}

// ShareInsight publishes a memory into the shared hive-mind scope,
// attributed to the contributing user. It returns the new record ID.
func (e *Engine) ShareInsight(ctx context.Context, userID, content string, category memory.Category, tags []string) (string, error) {
	if userID == "" || content == "" {
		return "", memory.NewEngineError("ShareInsight", memory.ErrInvalidInput)
	}
	record := e.extractor.NewSharedRecord(ctx, userID, content, category, tags)
	return e.store.Save(ctx, record)
}

// RetrievePersonal returns the user's personal memories most relevant
// to the text.
func (e *Engine) RetrievePersonal(ctx context.Context, userID, text string) []*memory.MemoryRecord {
	return e.retriever.RetrievePersonal(ctx, userID, text)
}

// RetrieveShared returns the hive-mind memories most relevant to the
// text.
func (e *Engine) RetrieveShared(ctx context.Context, text string) []*memory.MemoryRecord {
	return e.retriever.RetrieveShared(ctx, text)
}

// Identity returns the user's stored profile, or memory.ErrNotFound for
// users never seen before.
func (e *Engine) Identity(ctx context.Context, userID string) (*memory.UserIdentity, error) {
	return e.retriever.Identity(ctx, userID)
}

// PutIdentity persists a user profile, stamping timestamps as needed.
func (e *Engine) PutIdentity(ctx context.Context, identity *memory.UserIdentity) error {
	return e.store.PutIdentity(ctx, identity)
}

// Close releases all engine resources.
func (e *Engine) Close() error {
	err := e.store.Close()
	if e.completion != nil {
		if cerr := e.completion.Close(); err == nil {
			err = cerr
		}
	}
	if e.embedder != nil {
		if cerr := e.embedder.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// initDocStore builds the configured document store backend.
func initDocStore(cfg *DocStoreConfig) (docstore.Store, error) {
	switch cfg.Provider {
	case "sqlite":
		return sqlite.NewClient(&sqlite.Config{DBPath: cfg.SQLitePath})
	case "postgres":
		return postgres.NewClient(&postgres.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
			SSLMode:  cfg.SSLMode,
		})
	case "mysql":
		return mysql.NewClient(&mysql.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
		})
	default:
		return nil, memory.NewEngineError("initDocStore",
			fmt.Errorf("%w: unsupported document store provider %q", memory.ErrInvalidConfig, cfg.Provider))
	}
}

// initVectorIndex builds the vector index.
func initVectorIndex(cfg *VectorIndexConfig) (vectorindex.Index, error) {
	return vichromem.New(&vichromem.Config{
		Path:           cfg.Path,
		CollectionName: cfg.CollectionName,
	})
}

// initLLM builds the configured completion provider.
func initLLM(ctx context.Context, cfg *LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return llmgemini.NewClient(ctx, &llmgemini.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})
	case "openai":
		return llmopenai.NewClient(&llmopenai.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "anthropic":
		return llmanthropic.NewClient(&llmanthropic.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "ollama":
		return llmollama.NewClient(&llmollama.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, memory.NewEngineError("initLLM",
			fmt.Errorf("%w: unsupported LLM provider %q", memory.ErrInvalidConfig, cfg.Provider))
	}
}

// initEmbedder builds the configured embedding provider. An empty
// provider disables embedding entirely.
func initEmbedder(ctx context.Context, cfg *EmbedderConfig) (embedder.Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "gemini":
		return embeddergemini.NewClient(ctx, &embeddergemini.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	case "openai":
		return embedderopenai.NewClient(&embedderopenai.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, memory.NewEngineError("initEmbedder",
			fmt.Errorf("%w: unsupported embedding provider %q", memory.ErrInvalidConfig, cfg.Provider))
	}
}
