// Package gemini provides an embedding provider backed by Google's
// Gemini embedding models.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/meeralabs/hivemind-go/pkg/memory"
)

// Client implements embedder.Provider on top of the Gemini
// embed-content API.
type Client struct {
	client     *genai.Client
	model      string
	dimensions int
}

// Config is the configuration for the Gemini embedding client.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model, defaults to "text-embedding-004".
	Model string

	// Dimensions is the output vector size, defaults to 768.
	Dimensions int
}

// NewClient creates a Gemini embedding client.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, memory.NewEngineError("gemini.NewClient", memory.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-004"
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = 768
	}

	return &Client{
		client:     client,
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Embed converts a single text to a vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch converts multiple texts to vectors in one request,
// preserving input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(int32(c.dimensions)),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding failed: unexpected number of results from Gemini API (got %d, expected %d)", len(resp.Embeddings), len(texts))
	}

	embeddings := make([][]float64, len(texts))
	for i, embedding := range resp.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, errors.New("embedding failed: empty embedding returned from Gemini API")
		}
		values := make([]float64, len(embedding.Values))
		for j, v := range embedding.Values {
			values[j] = float64(v)
		}
		embeddings[i] = values
	}
	return embeddings, nil
}

// Dimensions returns the vector dimension.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is a no-op; the genai client holds no persistent connections.
func (c *Client) Close() error {
	return nil
}
