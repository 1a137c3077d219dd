// Package retriever wraps the memory store with the query-construction
// policy: fixed top-3 candidate sets per scope, with a recency fallback
// when no query vector can be produced.
package retriever

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/meeralabs/hivemind-go/pkg/embedder"
	"github.com/meeralabs/hivemind-go/pkg/memory"
	"github.com/meeralabs/hivemind-go/pkg/store"
)

// DefaultLimit bounds each candidate set so prompt size stays
// predictable.
const DefaultLimit = 3

// Retriever produces ranked memory candidates for a scope and query text.
type Retriever struct {
	store    *store.Store
	embedder embedder.Provider
	limit    int
	logger   zerolog.Logger
}

// New creates a retriever. The embedder may be nil, which disables
// similarity search and makes every retrieval fall back to recency.
func New(st *store.Store, emb embedder.Provider, logger zerolog.Logger) *Retriever {
	return &Retriever{
		store:    st,
		embedder: emb,
		limit:    DefaultLimit,
		logger:   logger.With().Str("component", "retriever").Logger(),
	}
}

// RetrievePersonal returns up to three of the owner's personal memories
// relevant to the text, falling back to the most recent ones when
// embedding is unavailable.
func (r *Retriever) RetrievePersonal(ctx context.Context, ownerID, text string) []*memory.MemoryRecord {
	return r.retrieve(ctx, memory.PersonalScope(ownerID), text)
}

// RetrieveShared returns up to three hive-mind memories relevant to the
// text, independent of any particular user.
func (r *Retriever) RetrieveShared(ctx context.Context, text string) []*memory.MemoryRecord {
	return r.retrieve(ctx, memory.SharedScope(), text)
}

func (r *Retriever) retrieve(ctx context.Context, scope memory.Scope, text string) []*memory.MemoryRecord {
	if r.embedder == nil {
		return r.store.Recent(ctx, scope, r.limit)
	}

	vector, err := r.embedder.Embed(ctx, text)
	if err != nil || len(vector) == 0 {
		// Degrade to recency rather than produce empty context on an
		// embedding outage.
		r.logger.Debug().Err(err).Stringer("scope", scope).Msg("embedding unavailable, falling back to recent")
		return r.store.Recent(ctx, scope, r.limit)
	}

	return r.store.Search(ctx, vector, scope, r.limit)
}

// Identity passes through to the store, letting the orchestrator decide
// between an existing profile and a fresh one.
func (r *Retriever) Identity(ctx context.Context, userID string) (*memory.UserIdentity, error) {
	return r.store.GetIdentity(ctx, userID)
}
