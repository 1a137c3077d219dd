// Package docstore defines the authoritative document backend for
// memory records and user identities.
//
// The document store is the record of truth; the vector index is a
// derived, best-effort projection maintained elsewhere. All backends
// (SQLite, PostgreSQL, MySQL) must satisfy the Store interface.
package docstore

import (
	"context"

	"github.com/meeralabs/hivemind-go/pkg/memory"
)

// Store is the document backend contract.
type Store interface {
	// SaveRecord upserts a record keyed by its ID. Saving an existing ID
	// overwrites the stored content (last writer wins).
	SaveRecord(ctx context.Context, record *memory.MemoryRecord) error

	// GetRecord fetches a record by ID. Returns memory.ErrNotFound when
	// no record exists.
	GetRecord(ctx context.Context, id string) (*memory.MemoryRecord, error)

	// GetRecords fetches records by ID. IDs with no stored record are
	// skipped; order follows the input IDs.
	GetRecords(ctx context.Context, ids []string) ([]*memory.MemoryRecord, error)

	// Recent returns up to limit records in the given scope ordered by
	// CreatedAt descending.
	Recent(ctx context.Context, scope memory.Scope, limit int) ([]*memory.MemoryRecord, error)

	// GetIdentity fetches a user identity. Returns memory.ErrNotFound
	// when no profile exists for the user.
	GetIdentity(ctx context.Context, userID string) (*memory.UserIdentity, error)

	// PutIdentity upserts a user identity as given. Timestamp policy
	// (refreshing UpdatedAt) is the composing store's concern.
	PutIdentity(ctx context.Context, identity *memory.UserIdentity) error

	// Close releases backend resources.
	Close() error
}
