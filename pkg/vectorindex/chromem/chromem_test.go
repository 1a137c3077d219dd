package chromem_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeralabs/hivemind-go/pkg/memory"
	"github.com/meeralabs/hivemind-go/pkg/vectorindex"
	"github.com/meeralabs/hivemind-go/pkg/vectorindex/chromem"
)

func newTestIndex(t *testing.T) *chromem.Index {
	t.Helper()
	index, err := chromem.New(&chromem.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func entry(id, owner string, shared bool, category memory.Category, vector []float64) *vectorindex.Entry {
	return &vectorindex.Entry{
		ID:     id,
		Vector: vector,
		Metadata: vectorindex.Metadata{
			OwnerID:   owner,
			Category:  category,
			CreatedAt: time.Now().UTC(),
			Shared:    shared,
			Tags:      []string{"t1"},
		},
	}
}

func TestUpsertRejectsInvalidEntries(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.Error(t, index.Upsert(ctx, nil))
	require.Error(t, index.Upsert(ctx, &vectorindex.Entry{ID: "", Vector: []float64{1}}))
	require.Error(t, index.Upsert(ctx, &vectorindex.Entry{ID: "m1"}))
}

func TestSearchFindsNearestInScope(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, entry("close", "alice", false, memory.CategoryFactual, []float64{1, 0, 0})))
	require.NoError(t, index.Upsert(ctx, entry("far", "alice", false, memory.CategoryFactual, []float64{0, 1, 0})))

	matches, err := index.Search(ctx, []float64{0.9, 0.1, 0}, vectorindex.Filter{
		Scope: memory.PersonalScope("alice"),
	}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "close", matches[0].ID)
}

func TestSearchScopeIsolation(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, entry("mine", "alice", false, memory.CategoryFactual, []float64{1, 0, 0})))
	require.NoError(t, index.Upsert(ctx, entry("theirs", "bob", false, memory.CategoryFactual, []float64{1, 0, 0})))
	require.NoError(t, index.Upsert(ctx, entry("hive", "bob", true, memory.CategoryFactual, []float64{1, 0, 0})))

	matches, err := index.Search(ctx, []float64{1, 0, 0}, vectorindex.Filter{
		Scope: memory.PersonalScope("alice"),
	}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "mine", matches[0].ID)

	matches, err = index.Search(ctx, []float64{1, 0, 0}, vectorindex.Filter{
		Scope: memory.SharedScope(),
	}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "hive", matches[0].ID)
}

func TestSearchMultipleCategoriesAreUnioned(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, entry("pref", "alice", false, memory.CategoryPreference, []float64{1, 0, 0})))
	require.NoError(t, index.Upsert(ctx, entry("fact", "alice", false, memory.CategoryFactual, []float64{0.9, 0.1, 0})))
	require.NoError(t, index.Upsert(ctx, entry("mood", "alice", false, memory.CategoryEmotionalState, []float64{0, 1, 0})))

	matches, err := index.Search(ctx, []float64{1, 0, 0}, vectorindex.Filter{
		Scope:      memory.PersonalScope("alice"),
		Categories: []memory.Category{memory.CategoryPreference, memory.CategoryFactual},
	}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	ids := []string{matches[0].ID, matches[1].ID}
	assert.Contains(t, ids, "pref")
	assert.Contains(t, ids, "fact")
	// Best first.
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestSearchLimitExceedsDocumentCount(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, entry("only", "alice", false, memory.CategoryFactual, []float64{1, 0, 0})))

	// Asking for more results than stored documents must not error.
	matches, err := index.Search(ctx, []float64{1, 0, 0}, vectorindex.Filter{
		Scope: memory.PersonalScope("alice"),
	}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestSearchEmptyIndex(t *testing.T) {
	index := newTestIndex(t)

	matches, err := index.Search(context.Background(), []float64{1, 0, 0}, vectorindex.Filter{
		Scope: memory.SharedScope(),
	}, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestUpsertOverwritesExistingID(t *testing.T) {
	index := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, entry("m1", "alice", false, memory.CategoryFactual, []float64{1, 0, 0})))
	require.NoError(t, index.Upsert(ctx, entry("m1", "alice", false, memory.CategoryFactual, []float64{0, 1, 0})))

	// After the overwrite the old vector no longer matches best.
	matches, err := index.Search(ctx, []float64{0, 1, 0}, vectorindex.Filter{
		Scope: memory.PersonalScope("alice"),
	}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "m1", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 0.001)
}
