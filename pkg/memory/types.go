// Package memory defines the core data model for the hivemind engine:
// memory records, retrieval scopes, and user identity profiles.
package memory

import (
	"strings"
	"time"
)

// Category classifies a memory record.
//
// The set is closed: identity, preference, factual, emotional-state.
// Classifier output that does not match one of these maps to factual.
type Category string

const (
	// CategoryIdentity covers who the user is (name, location, life changes).
	CategoryIdentity Category = "identity"

	// CategoryPreference covers likes, dislikes, and stated preferences.
	CategoryPreference Category = "preference"

	// CategoryFactual covers general facts worth remembering.
	CategoryFactual Category = "factual"

	// CategoryEmotionalState covers the user's emotional context.
	CategoryEmotionalState Category = "emotional-state"
)

// Categories lists all valid categories.
var Categories = []Category{
	CategoryIdentity,
	CategoryPreference,
	CategoryFactual,
	CategoryEmotionalState,
}

// ParseCategory maps a raw string to a Category.
//
// Unknown or empty input maps to CategoryFactual, never an error:
// classifier output is untrusted text.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryIdentity:
		return CategoryIdentity
	case CategoryPreference:
		return CategoryPreference
	case CategoryFactual:
		return CategoryFactual
	case CategoryEmotionalState:
		return CategoryEmotionalState
	default:
		return CategoryFactual
	}
}

// MemoryRecord is a single long-term memory.
//
// Records are immutable once created: corrections are new records,
// there is no update or merge operation.
type MemoryRecord struct {
	// ID is the opaque unique identifier, assigned at creation.
	ID string `json:"id"`

	// OwnerID identifies the user who originated the memory. For shared
	// memories this is the original contributor, not a current owner.
	OwnerID string `json:"owner_id"`

	// Content is the memory payload. Never empty.
	Content string `json:"content"`

	// Category is one of the closed category set.
	Category Category `json:"category"`

	// CreatedAt is set once at creation.
	CreatedAt time.Time `json:"created_at"`

	// Tags is an ordered list of short labels. May be empty.
	Tags []string `json:"tags,omitempty"`

	// RecencyWeight is in [0,1]. New records start at 1.0; decay, if
	// desired, is an external policy.
	RecencyWeight float64 `json:"recency_weight"`

	// Origin is a free-text provenance marker ("conversation",
	// "shared-insight").
	Origin string `json:"origin"`

	// Embedding is the vector for similarity search. Absent when the
	// embedding service is disabled or failed.
	Embedding []float64 `json:"embedding,omitempty"`

	// ExchangeSnippet captures the triggering exchange for audit.
	ExchangeSnippet string `json:"exchange_snippet,omitempty"`

	// ContextSnippet is a bounded-length slice of the system context the
	// record was extracted under.
	ContextSnippet string `json:"context_snippet,omitempty"`

	// Shared marks a hive-mind memory visible across all users.
	Shared bool `json:"shared"`
}

// Validate checks the record invariants required before persistence.
func (r *MemoryRecord) Validate() error {
	if r == nil {
		return NewEngineError("Validate", ErrInvalidInput)
	}
	if r.ID == "" || r.OwnerID == "" || strings.TrimSpace(r.Content) == "" {
		return NewEngineError("Validate", ErrInvalidInput)
	}
	if r.RecencyWeight < 0 || r.RecencyWeight > 1 {
		return NewEngineError("Validate", ErrInvalidInput)
	}
	return nil
}

// Matches reports whether the record is visible under the given scope.
func (r *MemoryRecord) Matches(scope Scope) bool {
	if scope.IsShared() {
		return r.Shared
	}
	return !r.Shared && r.OwnerID == scope.OwnerID()
}

// Scope constrains a retrieval to either a single owner's personal
// space or the shared hive pool. Exactly one of the two forms exists;
// there is no scope that mixes both in one query.
type Scope struct {
	ownerID string
	shared  bool
}

// PersonalScope matches records with shared=false and the given owner.
func PersonalScope(ownerID string) Scope {
	return Scope{ownerID: ownerID}
}

// SharedScope matches records with shared=true, any owner.
func SharedScope() Scope {
	return Scope{shared: true}
}

// IsShared reports whether this is the shared/hive scope.
func (s Scope) IsShared() bool { return s.shared }

// OwnerID returns the owner for a personal scope, "" for the shared scope.
func (s Scope) OwnerID() string {
	if s.shared {
		return ""
	}
	return s.ownerID
}

func (s Scope) String() string {
	if s.shared {
		return "shared"
	}
	return "personal(" + s.ownerID + ")"
}

// UserIdentity is the evolving profile of a single user.
//
// Created lazily on first contact, updated idempotently, never deleted.
type UserIdentity struct {
	// UserID is the unique key; one profile per user.
	UserID string `json:"user_id"`

	// Core scalar identity fields. All optional and independently settable.
	Name           string `json:"name,omitempty"`
	Age            int    `json:"age,omitempty"`
	Gender         string `json:"gender,omitempty"`
	Origin         string `json:"origin,omitempty"`
	CurrentContext string `json:"current_context,omitempty"`
	PrimaryRole    string `json:"primary_role,omitempty"`

	// PersonalTraits and ProfessionalTraits are free-form profile facts,
	// not schema-constrained.
	PersonalTraits     map[string]ProfileValue `json:"personal_traits,omitempty"`
	ProfessionalTraits map[string]ProfileValue `json:"professional_traits,omitempty"`

	// CreatedAt is set once; UpdatedAt is refreshed on every accepted
	// mutation.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserIdentity initializes a fresh profile for a user.
func NewUserIdentity(userID string) *UserIdentity {
	now := time.Now().UTC()
	return &UserIdentity{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch refreshes the profile's UpdatedAt timestamp.
func (u *UserIdentity) Touch(now time.Time) {
	u.UpdatedAt = now
}
