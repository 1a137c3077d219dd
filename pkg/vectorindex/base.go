// Package vectorindex defines the similarity-search capability consumed
// by the memory store.
//
// The index is a derived projection of the document store, never the
// record of truth: an entry may be missing or stale without affecting
// correctness of document-store reads.
package vectorindex

import (
	"context"
	"time"

	"github.com/meeralabs/hivemind-go/pkg/memory"
)

// Metadata is the projection of a record stored alongside its vector,
// used for exact-match filtering during search.
type Metadata struct {
	// OwnerID is the record's originating user.
	OwnerID string

	// Category is the record's classification.
	Category memory.Category

	// CreatedAt is the record's creation time.
	CreatedAt time.Time

	// Shared marks hive-mind visibility.
	Shared bool

	// Tags are the record's labels.
	Tags []string
}

// Entry is a vector plus its metadata projection, keyed by record ID.
type Entry struct {
	ID       string
	Vector   []float64
	Metadata Metadata
}

// Match is a search hit, similarity-ordered by the backend.
type Match struct {
	// ID is the matched record's ID.
	ID string

	// Score is the backend's similarity score, higher is closer.
	Score float64
}

// Filter constrains a search to a scope and, optionally, categories.
// Multiple categories are OR'd with each other and AND'd with the scope.
type Filter struct {
	Scope      memory.Scope
	Categories []memory.Category
}

// Index is the vector backend contract.
type Index interface {
	// Upsert inserts or replaces the entry for the entry's ID.
	Upsert(ctx context.Context, entry *Entry) error

	// Search returns up to limit matches by vector similarity under the
	// filter, best first.
	Search(ctx context.Context, vector []float64, filter Filter, limit int) ([]Match, error)

	// Close releases index resources.
	Close() error
}
