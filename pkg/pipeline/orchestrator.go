// Package pipeline sequences a single request through context assembly,
// response generation, and memory update.
//
// The failure policy is asymmetric and deliberate: BuildContext and
// UpdateMemory degrade or are swallowed, only a Generate failure
// surfaces to the caller. The user-facing reply is never held hostage
// to the memory subsystem.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/meeralabs/hivemind-go/pkg/extractor"
	"github.com/meeralabs/hivemind-go/pkg/llm"
	"github.com/meeralabs/hivemind-go/pkg/memory"
	"github.com/meeralabs/hivemind-go/pkg/retriever"
	"github.com/meeralabs/hivemind-go/pkg/store"
)

// Result is the outcome of one pipeline run.
type Result struct {
	// Reply is the generated response text.
	Reply string

	// UserID is the requesting user.
	UserID string

	// MemoryIDs lists the records created by the update stage. Empty
	// when the stage failed or extracted nothing.
	MemoryIDs []string

	// Identity is the resolved (possibly freshly initialized) profile.
	Identity *memory.UserIdentity

	// PersonalMemories and SharedMemories are the context candidates
	// used for generation.
	PersonalMemories []*memory.MemoryRecord
	SharedMemories   []*memory.MemoryRecord
}

// Config contains the orchestrator's collaborators. All are injected;
// the pipeline holds no global state.
type Config struct {
	Store      *store.Store
	Retriever  *retriever.Retriever
	Extractor  *extractor.Extractor
	Completion llm.Provider
	Renderer   ContextRenderer
	Logger     zerolog.Logger
}

// Orchestrator drives the three-stage pipeline for one request at a
// time. Independent requests may run concurrently over the shared store
// connections.
type Orchestrator struct {
	store      *store.Store
	retriever  *retriever.Retriever
	extractor  *extractor.Extractor
	completion llm.Provider
	renderer   ContextRenderer
	logger     zerolog.Logger
}

// New creates an orchestrator. Store, retriever, extractor, completion
// provider, and renderer are all required.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil || cfg.Retriever == nil || cfg.Extractor == nil ||
		cfg.Completion == nil || cfg.Renderer == nil {
		return nil, memory.NewEngineError("NewOrchestrator", memory.ErrInvalidConfig)
	}
	return &Orchestrator{
		store:      cfg.Store,
		retriever:  cfg.Retriever,
		extractor:  cfg.Extractor,
		completion: cfg.Completion,
		renderer:   cfg.Renderer,
		logger:     cfg.Logger.With().Str("component", "pipeline").Logger(),
	}, nil
}

// requestContext is the bundle assembled by the BuildContext stage.
type requestContext struct {
	identity *memory.UserIdentity
	personal []*memory.MemoryRecord
	shared   []*memory.MemoryRecord
	system   string
}

// Respond runs one request end to end: BuildContext, Generate,
// UpdateMemory. Only a generation failure returns an error; a memory
// update failure still returns the reply with an empty MemoryIDs list.
func (o *Orchestrator) Respond(ctx context.Context, userID, message string, history []llm.Message) (*Result, error) {
	if userID == "" || message == "" {
		return nil, memory.NewEngineError("Respond", memory.ErrInvalidInput)
	}

	reqCtx := o.buildContext(ctx, userID, message)

	reply, err := o.generate(ctx, reqCtx.system, message, history)
	if err != nil {
		return nil, err
	}

	memoryIDs := o.updateMemory(ctx, userID, reqCtx, extractor.Exchange{
		UserMessage:    message,
		AssistantReply: reply,
		SystemContext:  reqCtx.system,
	})

	return &Result{
		Reply:            reply,
		UserID:           userID,
		MemoryIDs:        memoryIDs,
		Identity:         reqCtx.identity,
		PersonalMemories: reqCtx.personal,
		SharedMemories:   reqCtx.shared,
	}, nil
}

// buildContext resolves the identity and retrieves memory candidates.
// Every failure degrades: missing identity becomes a fresh profile,
// retrieval failures become empty lists. This stage never aborts the
// pipeline.
func (o *Orchestrator) buildContext(ctx context.Context, userID, message string) requestContext {
	identity, err := o.retriever.Identity(ctx, userID)
	if err != nil {
		identity = memory.NewUserIdentity(userID)
		o.logger.Debug().Str("user_id", userID).Msg("initialized fresh identity")
	}

	personal := o.retriever.RetrievePersonal(ctx, userID, message)
	shared := o.retriever.RetrieveShared(ctx, message)

	system := o.renderer.Render(identity, personal, shared, message)

	o.logger.Debug().
		Str("user_id", userID).
		Int("personal", len(personal)).
		Int("shared", len(shared)).
		Msg("context assembled")

	return requestContext{
		identity: identity,
		personal: personal,
		shared:   shared,
		system:   system,
	}
}

// generate invokes the completion service. This is the one stage whose
// failure is fatal to the request: no reply can be produced without it,
// so the provider's error is kept in the chain for the caller.
func (o *Orchestrator) generate(ctx context.Context, system, message string, history []llm.Message) (string, error) {
	reply, err := o.completion.Complete(ctx, system, message, history)
	if err != nil {
		o.logger.Error().Err(err).Msg("completion failed")
		return "", memory.NewEngineError("Generate", fmt.Errorf("%w: %w", memory.ErrCompletionFailed, err))
	}
	return reply, nil
}

// updateMemory extracts signals from the finished exchange and persists
// the resulting records plus the identity. Any failure here is logged
// and swallowed; the already-produced reply is returned regardless.
func (o *Orchestrator) updateMemory(ctx context.Context, userID string, reqCtx requestContext, ex extractor.Exchange) []string {
	var memoryIDs []string

	for _, signal := range o.extractor.Extract(ctx, ex) {
		record := o.extractor.ToRecord(ctx, userID, signal, ex)
		id, err := o.store.Save(ctx, record)
		if err != nil {
			o.logger.Error().Err(err).Str("user_id", userID).Msg("memory save failed")
			continue
		}
		memoryIDs = append(memoryIDs, id)
	}

	if err := o.store.PutIdentity(ctx, reqCtx.identity); err != nil {
		o.logger.Error().Err(err).Str("user_id", userID).Msg("identity save failed")
	}

	o.logger.Debug().
		Str("user_id", userID).
		Int("memories_created", len(memoryIDs)).
		Msg("memory update finished")
	return memoryIDs
}
