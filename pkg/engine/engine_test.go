package engine_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeralabs/hivemind-go/pkg/engine"
	"github.com/meeralabs/hivemind-go/pkg/memory"
)

func TestNewRejectsNilOrInvalidConfig(t *testing.T) {
	ctx := context.Background()

	_, err := engine.New(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, memory.ErrInvalidConfig))

	_, err = engine.New(ctx, &engine.Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, memory.ErrInvalidConfig))
}

func TestNewRejectsUnknownProviders(t *testing.T) {
	ctx := context.Background()
	base := engine.Config{
		DocStore: engine.DocStoreConfig{
			Provider:   "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "engine.db"),
		},
	}

	cfg := base
	cfg.LLM = engine.LLMConfig{Provider: "carrier-pigeon"}
	_, err := engine.New(ctx, &cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, memory.ErrInvalidConfig))

	cfg = base
	cfg.DocStore.Provider = "flat-files"
	cfg.LLM = engine.LLMConfig{Provider: "openai", APIKey: "sk-test"}
	_, err = engine.New(ctx, &cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, memory.ErrInvalidConfig))
}

func TestNewRejectsMissingAPIKey(t *testing.T) {
	cfg := &engine.Config{
		DocStore: engine.DocStoreConfig{
			Provider:   "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "engine.db"),
		},
		LLM: engine.LLMConfig{Provider: "openai"},
	}

	_, err := engine.New(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, memory.ErrInvalidConfig))
}

func TestNewWithLocalProviders(t *testing.T) {
	// Ollama needs no API key and no connection at construction time, so
	// the full engine graph can be wired without external services.
	cfg := &engine.Config{
		DocStore: engine.DocStoreConfig{
			Provider:   "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "engine.db"),
		},
		LLM: engine.LLMConfig{Provider: "ollama"},
	}

	eng, err := engine.New(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, eng)
	require.NoError(t, eng.Close())
}

func TestShareInsightValidatesInput(t *testing.T) {
	cfg := &engine.Config{
		DocStore: engine.DocStoreConfig{
			Provider:   "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "engine.db"),
		},
		LLM: engine.LLMConfig{Provider: "ollama"},
	}

	eng, err := engine.New(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	_, err = eng.ShareInsight(context.Background(), "", "content", memory.CategoryFactual, nil)
	require.Error(t, err)

	_, err = eng.ShareInsight(context.Background(), "u1", "", memory.CategoryFactual, nil)
	require.Error(t, err)
}

func TestShareInsightStoresRetrievableRecord(t *testing.T) {
	cfg := &engine.Config{
		DocStore: engine.DocStoreConfig{
			Provider:   "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "engine.db"),
		},
		LLM: engine.LLMConfig{Provider: "ollama"},
	}

	eng, err := engine.New(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	id, err := eng.ShareInsight(context.Background(), "u1", "an insight", memory.CategoryFactual, []string{"t"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// No embedder is configured, so retrieval falls back to recency and
	// still surfaces the shared record for another user.
	records := eng.RetrieveShared(context.Background(), "anything")
	require.Len(t, records, 1)
	assert.Equal(t, "an insight", records[0].Content)
	assert.True(t, records[0].Shared)
	assert.Equal(t, "u1", records[0].OwnerID)

	// It must not leak into anyone's personal scope.
	assert.Empty(t, eng.RetrievePersonal(context.Background(), "u1", "anything"))
}

func TestIdentityLifecycle(t *testing.T) {
	cfg := &engine.Config{
		DocStore: engine.DocStoreConfig{
			Provider:   "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "engine.db"),
		},
		LLM: engine.LLMConfig{Provider: "ollama"},
	}

	eng, err := engine.New(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	_, err = eng.Identity(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, memory.ErrNotFound))

	identity := memory.NewUserIdentity("u1")
	identity.Name = "Ananya"
	require.NoError(t, eng.PutIdentity(context.Background(), identity))

	got, err := eng.Identity(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ananya", got.Name)
}
