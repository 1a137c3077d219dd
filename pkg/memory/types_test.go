package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeralabs/hivemind-go/pkg/memory"
)

func TestParseCategory(t *testing.T) {
	assert.Equal(t, memory.CategoryIdentity, memory.ParseCategory("identity"))
	assert.Equal(t, memory.CategoryPreference, memory.ParseCategory("  Preference "))
	assert.Equal(t, memory.CategoryEmotionalState, memory.ParseCategory("EMOTIONAL-STATE"))
	assert.Equal(t, memory.CategoryFactual, memory.ParseCategory("factual"))
}

func TestParseCategoryUnknownFallsBackToFactual(t *testing.T) {
	assert.Equal(t, memory.CategoryFactual, memory.ParseCategory(""))
	assert.Equal(t, memory.CategoryFactual, memory.ParseCategory("banana"))
	assert.Equal(t, memory.CategoryFactual, memory.ParseCategory("emotional state"))
}

func TestRecordValidate(t *testing.T) {
	record := &memory.MemoryRecord{
		ID:            "m1",
		OwnerID:       "u1",
		Content:       "likes chai",
		Category:      memory.CategoryPreference,
		RecencyWeight: 1.0,
	}
	require.NoError(t, record.Validate())
}

func TestRecordValidateRejectsInvalid(t *testing.T) {
	cases := map[string]*memory.MemoryRecord{
		"nil record":      nil,
		"missing id":      {OwnerID: "u1", Content: "x", RecencyWeight: 0.5},
		"missing owner":   {ID: "m1", Content: "x", RecencyWeight: 0.5},
		"blank content":   {ID: "m1", OwnerID: "u1", Content: "   ", RecencyWeight: 0.5},
		"weight too high": {ID: "m1", OwnerID: "u1", Content: "x", RecencyWeight: 1.5},
		"negative weight": {ID: "m1", OwnerID: "u1", Content: "x", RecencyWeight: -0.1},
	}

	for name, record := range cases {
		t.Run(name, func(t *testing.T) {
			err := record.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, memory.ErrInvalidInput))
		})
	}
}

func TestScopeMatching(t *testing.T) {
	personal := &memory.MemoryRecord{ID: "m1", OwnerID: "alice", Content: "x", Shared: false}
	shared := &memory.MemoryRecord{ID: "m2", OwnerID: "alice", Content: "y", Shared: true}

	assert.True(t, personal.Matches(memory.PersonalScope("alice")))
	assert.False(t, personal.Matches(memory.PersonalScope("bob")))
	assert.False(t, personal.Matches(memory.SharedScope()))

	// Shared records belong to the hive pool only, even for their
	// contributor's personal scope.
	assert.True(t, shared.Matches(memory.SharedScope()))
	assert.False(t, shared.Matches(memory.PersonalScope("alice")))
}

func TestScopeAccessors(t *testing.T) {
	personal := memory.PersonalScope("alice")
	assert.False(t, personal.IsShared())
	assert.Equal(t, "alice", personal.OwnerID())
	assert.Equal(t, "personal(alice)", personal.String())

	shared := memory.SharedScope()
	assert.True(t, shared.IsShared())
	assert.Equal(t, "", shared.OwnerID())
	assert.Equal(t, "shared", shared.String())
}

func TestNewUserIdentity(t *testing.T) {
	identity := memory.NewUserIdentity("u1")
	require.NotNil(t, identity)
	assert.Equal(t, "u1", identity.UserID)
	assert.False(t, identity.CreatedAt.IsZero())
	assert.Equal(t, identity.CreatedAt, identity.UpdatedAt)
}

func TestIdentityTouch(t *testing.T) {
	identity := memory.NewUserIdentity("u1")
	created := identity.CreatedAt

	later := created.Add(time.Hour)
	identity.Touch(later)

	assert.Equal(t, created, identity.CreatedAt)
	assert.Equal(t, later, identity.UpdatedAt)
}

func TestEngineErrorWrapping(t *testing.T) {
	err := memory.NewEngineError("Save", memory.ErrStorageOperation)
	require.Error(t, err)
	assert.Equal(t, "hivemind: Save: storage operation failed", err.Error())
	assert.True(t, errors.Is(err, memory.ErrStorageOperation))

	assert.NoError(t, memory.NewEngineError("Save", nil))
}
