// Package chromem provides a vector index backend on chromem-go, a
// pure-Go embedded vector database with cosine similarity search and
// metadata filtering.
package chromem

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/meeralabs/hivemind-go/pkg/memory"
	"github.com/meeralabs/hivemind-go/pkg/vectorindex"
)

// Index implements vectorindex.Index using chromem-go.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// Config contains configuration for creating a chromem index.
type Config struct {
	// Path enables on-disk persistence when set; empty keeps the index
	// in memory only.
	Path string

	// CollectionName is the collection to use (default "memories").
	CollectionName string
}

// New creates a new chromem-backed vector index.
func New(cfg *Config) (*Index, error) {
	name := cfg.CollectionName
	if name == "" {
		name = "memories"
	}

	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path != "" {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("NewChromemIndex: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	// No embedding func: callers always supply vectors. Distance is
	// chromem's default cosine similarity.
	collection, err := db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("NewChromemIndex: %w", err)
	}

	return &Index{db: db, collection: collection}, nil
}

// Upsert inserts or replaces the entry for its ID. chromem keys
// documents by ID, so adding an existing ID overwrites it.
func (i *Index) Upsert(ctx context.Context, entry *vectorindex.Entry) error {
	if entry == nil || entry.ID == "" || len(entry.Vector) == 0 {
		return memory.NewEngineError("Upsert", memory.ErrInvalidInput)
	}

	doc := chromem.Document{
		ID:        entry.ID,
		Content:   entry.ID,
		Embedding: toFloat32(entry.Vector),
		Metadata:  encodeMetadata(entry.Metadata),
	}
	if err := i.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// Search returns up to limit matches under the filter, best first.
//
// chromem where-filters are conjunctive string equality, so a filter
// with several categories runs one query per category and merges the
// results by best score.
func (i *Index) Search(ctx context.Context, vector []float64, filter vectorindex.Filter, limit int) ([]vectorindex.Match, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, nil
	}

	query := toFloat32(vector)
	scopeWhere := scopeClause(filter.Scope)

	if len(filter.Categories) <= 1 {
		where := scopeWhere
		if len(filter.Categories) == 1 {
			where = cloneWith(scopeWhere, "category", string(filter.Categories[0]))
		}
		return i.query(ctx, query, where, limit)
	}

	best := make(map[string]float64)
	for _, category := range filter.Categories {
		matches, err := i.query(ctx, query, cloneWith(scopeWhere, "category", string(category)), limit)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if score, ok := best[match.ID]; !ok || match.Score > score {
				best[match.ID] = match.Score
			}
		}
	}

	merged := make([]vectorindex.Match, 0, len(best))
	for id, score := range best {
		merged = append(merged, vectorindex.Match{ID: id, Score: score})
	}
	sort.Slice(merged, func(a, b int) bool { return merged[a].Score > merged[b].Score })
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// query runs a single chromem query, shrinking nResults until it fits
// the number of documents matching the filter. chromem rejects queries
// asking for more results than the filtered collection holds.
func (i *Index) query(ctx context.Context, vector []float32, where map[string]string, limit int) ([]vectorindex.Match, error) {
	if count := i.collection.Count(); limit > count {
		limit = count
	}
	if limit == 0 {
		return nil, nil
	}

	var (
		results []chromem.Result
		err     error
	)
	for n := limit; n >= 1; n-- {
		results, err = i.collection.QueryEmbedding(ctx, vector, n, where, nil)
		if err == nil {
			break
		}
		if !isInsufficientDocsError(err) {
			return nil, fmt.Errorf("Search: %w", err)
		}
		if n == 1 {
			return nil, nil
		}
	}

	matches := make([]vectorindex.Match, 0, len(results))
	for _, result := range results {
		matches = append(matches, vectorindex.Match{
			ID:    result.ID,
			Score: float64(result.Similarity),
		})
	}
	return matches, nil
}

// Close releases index resources. chromem holds everything in process
// memory (plus its own persistence files), so there is nothing to close.
func (i *Index) Close() error {
	return nil
}

func scopeClause(scope memory.Scope) map[string]string {
	if scope.IsShared() {
		return map[string]string{"shared": "true"}
	}
	return map[string]string{
		"shared":   "false",
		"owner_id": scope.OwnerID(),
	}
}

func cloneWith(base map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	out[key] = value
	return out
}

// encodeMetadata flattens the projection to chromem's string-only
// metadata, the same stringification the scope filters match against.
func encodeMetadata(meta vectorindex.Metadata) map[string]string {
	out := map[string]string{
		"owner_id":   meta.OwnerID,
		"category":   string(meta.Category),
		"created_at": meta.CreatedAt.UTC().Format(time.RFC3339Nano),
		"shared":     strconv.FormatBool(meta.Shared),
	}
	if len(meta.Tags) > 0 {
		out["tags"] = strings.Join(meta.Tags, ",")
	}
	return out
}

func toFloat32(vector []float64) []float32 {
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(v)
	}
	return out
}

func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
