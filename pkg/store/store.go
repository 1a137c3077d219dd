// Package store composes the document backend and the vector index into
// the memory store with the engine's consistency contract: the document
// write is authoritative, the vector entry is a derived, best-effort
// index.
package store

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/meeralabs/hivemind-go/pkg/docstore"
	"github.com/meeralabs/hivemind-go/pkg/memory"
	"github.com/meeralabs/hivemind-go/pkg/vectorindex"
)

// Store is the dual-backend memory store.
//
// Reads and writes are round trips to the backing stores; the store
// holds no locks and no in-process cache. Concurrent saves of distinct
// IDs are independent; equal IDs race with last-writer-wins on both
// backends.
type Store struct {
	docs   docstore.Store
	index  vectorindex.Index
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a memory store over the given backends. The index may be
// nil, which leaves similarity search permanently empty while keeping
// every document-store path correct.
func New(docs docstore.Store, index vectorindex.Index, logger zerolog.Logger) *Store {
	return &Store{
		docs:   docs,
		index:  index,
		logger: logger.With().Str("component", "store").Logger(),
		now:    time.Now,
	}
}

// Save writes the record to the document backend and, when an embedding
// is present, upserts the parallel vector entry.
//
// The document write is authoritative: its failure fails the save. A
// vector upsert failure after a successful document write is logged and
// the save still reports success, since retrieval stays correct with a
// missing or stale index entry.
func (s *Store) Save(ctx context.Context, record *memory.MemoryRecord) (string, error) {
	if err := s.docs.SaveRecord(ctx, record); err != nil {
		return "", memory.NewEngineError("Save", err)
	}

	if s.index != nil && len(record.Embedding) > 0 {
		entry := &vectorindex.Entry{
			ID:     record.ID,
			Vector: record.Embedding,
			Metadata: vectorindex.Metadata{
				OwnerID:   record.OwnerID,
				Category:  record.Category,
				CreatedAt: record.CreatedAt,
				Shared:    record.Shared,
				Tags:      record.Tags,
			},
		}
		if err := s.index.Upsert(ctx, entry); err != nil {
			s.logger.Warn().
				Err(err).
				Str("memory_id", record.ID).
				Msg("vector index diverged from document store")
		}
	}

	s.logger.Debug().
		Str("memory_id", record.ID).
		Str("owner_id", record.OwnerID).
		Bool("shared", record.Shared).
		Msg("memory saved")
	return record.ID, nil
}

// Search selects candidates by vector similarity under the scope and
// optional category filter, hydrates them from the document backend,
// and re-sorts descending by recency weight.
//
// Similarity order only picks the candidate set; the final order is the
// document store's recency weight. Any backend error yields an empty
// sequence so retrieval never blocks generation.
func (s *Store) Search(ctx context.Context, vector []float64, scope memory.Scope, limit int, categories ...memory.Category) []*memory.MemoryRecord {
	if s.index == nil || len(vector) == 0 || limit <= 0 {
		return nil
	}

	filter := vectorindex.Filter{Scope: scope, Categories: categories}
	matches, err := s.index.Search(ctx, vector, filter, limit)
	if err != nil {
		s.logger.Warn().Err(err).Stringer("scope", scope).Msg("vector search failed")
		return nil
	}
	if len(matches) == 0 {
		return nil
	}

	ids := make([]string, len(matches))
	for i, match := range matches {
		ids[i] = match.ID
	}

	records, err := s.docs.GetRecords(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Stringer("scope", scope).Msg("candidate hydration failed")
		return nil
	}

	// The index can be stale: drop hydrated records that no longer
	// match the scope.
	filtered := records[:0]
	for _, record := range records {
		if record.Matches(scope) {
			filtered = append(filtered, record)
		}
	}

	sort.SliceStable(filtered, func(a, b int) bool {
		return filtered[a].RecencyWeight > filtered[b].RecencyWeight
	})
	return filtered
}

// Recent returns up to limit records in the scope by creation time
// descending, newest first. This is the document-store-only fallback
// used when no query vector is available. Backend errors yield an empty
// sequence.
func (s *Store) Recent(ctx context.Context, scope memory.Scope, limit int) []*memory.MemoryRecord {
	if limit <= 0 {
		return nil
	}
	records, err := s.docs.Recent(ctx, scope, limit)
	if err != nil {
		s.logger.Warn().Err(err).Stringer("scope", scope).Msg("recent query failed")
		return nil
	}
	return records
}

// GetIdentity fetches a user's identity profile. Returns
// memory.ErrNotFound when the user has none yet.
func (s *Store) GetIdentity(ctx context.Context, userID string) (*memory.UserIdentity, error) {
	identity, err := s.docs.GetIdentity(ctx, userID)
	if err != nil {
		return nil, memory.NewEngineError("GetIdentity", err)
	}
	return identity, nil
}

// PutIdentity upserts a user identity, always refreshing UpdatedAt to
// the current time regardless of the caller-supplied value. A zero
// CreatedAt is stamped server-side.
func (s *Store) PutIdentity(ctx context.Context, identity *memory.UserIdentity) error {
	if identity == nil || identity.UserID == "" {
		return memory.NewEngineError("PutIdentity", memory.ErrInvalidInput)
	}

	now := s.now().UTC()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.Touch(now)

	if err := s.docs.PutIdentity(ctx, identity); err != nil {
		return memory.NewEngineError("PutIdentity", err)
	}
	s.logger.Debug().Str("user_id", identity.UserID).Msg("identity updated")
	return nil
}

// Close closes both backends.
func (s *Store) Close() error {
	var firstErr error
	if err := s.docs.Close(); err != nil {
		firstErr = err
	}
	if s.index != nil {
		if err := s.index.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return memory.NewEngineError("Close", firstErr)
}
