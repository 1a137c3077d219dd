package pipeline

import "github.com/meeralabs/hivemind-go/pkg/memory"

// ContextRenderer assembles the system context text from structured
// context. It is a pure function with no side effects; the engine ships
// a default implementation in the prompt package.
type ContextRenderer interface {
	Render(identity *memory.UserIdentity, personal, shared []*memory.MemoryRecord, userMessage string) string
}

// RendererFunc adapts a plain function to ContextRenderer.
type RendererFunc func(identity *memory.UserIdentity, personal, shared []*memory.MemoryRecord, userMessage string) string

// Render calls the wrapped function.
func (f RendererFunc) Render(identity *memory.UserIdentity, personal, shared []*memory.MemoryRecord, userMessage string) string {
	return f(identity, personal, shared, userMessage)
}
