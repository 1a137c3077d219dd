// Package embedder defines the embedding service contract: text in,
// numeric vector out. The capability is optional everywhere it is
// consumed; absence or failure must never be fatal to a caller.
package embedder

import "context"

// Provider is the embedding capability.
type Provider interface {
	// Embed converts a text string into a vector embedding.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch converts multiple texts into vectors in one request.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimension of vectors produced by this provider.
	Dimensions() int

	// Close releases provider resources.
	Close() error
}
