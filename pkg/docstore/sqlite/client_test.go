package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeralabs/hivemind-go/pkg/docstore/sqlite"
	"github.com/meeralabs/hivemind-go/pkg/memory"
)

func newTestClient(t *testing.T) *sqlite.Client {
	t.Helper()
	client, err := sqlite.NewClient(&sqlite.Config{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testRecord(id, owner string, createdAt time.Time) *memory.MemoryRecord {
	return &memory.MemoryRecord{
		ID:              id,
		OwnerID:         owner,
		Content:         "content of " + id,
		Category:        memory.CategoryPreference,
		CreatedAt:       createdAt,
		Tags:            []string{"a", "b"},
		RecencyWeight:   0.8,
		Origin:          "conversation",
		Embedding:       []float64{0.1, 0.2, 0.3},
		ExchangeSnippet: "User: hi\nAssistant: hello",
		ContextSnippet:  "system context",
		Shared:          false,
	}
}

func TestSaveAndGetRecord(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	createdAt := time.Now().UTC().Truncate(time.Second)
	record := testRecord("m1", "alice", createdAt)
	require.NoError(t, client.SaveRecord(ctx, record))

	got, err := client.GetRecord(ctx, "m1")
	require.NoError(t, err)

	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.OwnerID, got.OwnerID)
	assert.Equal(t, record.Content, got.Content)
	assert.Equal(t, record.Category, got.Category)
	assert.Equal(t, record.Tags, got.Tags)
	assert.Equal(t, record.RecencyWeight, got.RecencyWeight)
	assert.Equal(t, record.Origin, got.Origin)
	assert.Equal(t, record.Embedding, got.Embedding)
	assert.Equal(t, record.ExchangeSnippet, got.ExchangeSnippet)
	assert.Equal(t, record.ContextSnippet, got.ContextSnippet)
	assert.Equal(t, record.Shared, got.Shared)
	assert.WithinDuration(t, createdAt, got.CreatedAt, time.Second)
}

func TestGetRecordNotFound(t *testing.T) {
	client := newTestClient(t)

	_, err := client.GetRecord(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, memory.ErrNotFound))
}

func TestSaveRecordUpsertOverwrites(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	record := testRecord("m1", "alice", time.Now().UTC())
	require.NoError(t, client.SaveRecord(ctx, record))

	record.Content = "updated content"
	record.RecencyWeight = 0.4
	require.NoError(t, client.SaveRecord(ctx, record))

	got, err := client.GetRecord(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "updated content", got.Content)
	assert.Equal(t, 0.4, got.RecencyWeight)
}

func TestGetRecordsFollowsInputOrderAndSkipsMissing(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, client.SaveRecord(ctx, testRecord("m1", "alice", now)))
	require.NoError(t, client.SaveRecord(ctx, testRecord("m2", "alice", now)))

	records, err := client.GetRecords(ctx, []string{"m2", "missing", "m1"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "m2", records[0].ID)
	assert.Equal(t, "m1", records[1].ID)
}

func TestRecentOrderingAndScopeIsolation(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, client.SaveRecord(ctx, testRecord("old", "alice", base)))
	require.NoError(t, client.SaveRecord(ctx, testRecord("new", "alice", base.Add(time.Minute))))
	require.NoError(t, client.SaveRecord(ctx, testRecord("other", "bob", base.Add(2*time.Minute))))

	sharedRecord := testRecord("hive", "alice", base.Add(3*time.Minute))
	sharedRecord.Shared = true
	require.NoError(t, client.SaveRecord(ctx, sharedRecord))

	records, err := client.Recent(ctx, memory.PersonalScope("alice"), 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, "old", records[1].ID)

	records, err = client.Recent(ctx, memory.SharedScope(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "hive", records[0].ID)
}

func TestRecentHonorsLimit(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"m1", "m2", "m3", "m4"} {
		require.NoError(t, client.SaveRecord(ctx, testRecord(id, "alice", base.Add(time.Duration(i)*time.Minute))))
	}

	records, err := client.Recent(ctx, memory.PersonalScope("alice"), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "m4", records[0].ID)
	assert.Equal(t, "m3", records[1].ID)
}

func TestIdentityRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	identity := memory.NewUserIdentity("u1")
	identity.Name = "Ananya"
	identity.Age = 29
	identity.PrimaryRole = "robotics engineer"
	identity.ProfessionalTraits = map[string]memory.ProfileValue{
		"skills": memory.SequenceValue(memory.StringValue("go"), memory.StringValue("ros")),
	}
	require.NoError(t, client.PutIdentity(ctx, identity))

	got, err := client.GetIdentity(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ananya", got.Name)
	assert.Equal(t, 29, got.Age)
	assert.Equal(t, "robotics engineer", got.PrimaryRole)
	require.Contains(t, got.ProfessionalTraits, "skills")
	assert.Len(t, got.ProfessionalTraits["skills"].Sequence(), 2)
}

func TestPutIdentityUpsertIsIdempotent(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	identity := memory.NewUserIdentity("u1")
	identity.Name = "First"
	require.NoError(t, client.PutIdentity(ctx, identity))

	identity.Name = "Second"
	require.NoError(t, client.PutIdentity(ctx, identity))

	got, err := client.GetIdentity(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Name)
}

func TestGetIdentityNotFound(t *testing.T) {
	client := newTestClient(t)

	_, err := client.GetIdentity(context.Background(), "stranger")
	require.Error(t, err)
	assert.True(t, errors.Is(err, memory.ErrNotFound))
}
