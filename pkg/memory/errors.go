package memory

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrNotFound indicates that a requested record or identity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStorageOperation indicates that a storage backend operation failed.
	ErrStorageOperation = errors.New("storage operation failed")

	// ErrEmbeddingFailed indicates that embedding generation failed.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrCompletionFailed indicates that text generation failed. This is
	// the one failure the pipeline surfaces to its caller.
	ErrCompletionFailed = errors.New("completion failed")
)

// EngineError wraps errors with operation context.
type EngineError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns "hivemind: <Op>: <Err>".
func (e *EngineError) Error() string {
	return fmt.Sprintf("hivemind: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error so errors.Is and errors.As work
// through EngineError.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError wraps err with operation context. Returns nil if err is
// nil, so it can wrap return values directly.
func NewEngineError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Op: op, Err: err}
}
