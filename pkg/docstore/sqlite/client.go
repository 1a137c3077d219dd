// Package sqlite provides the SQLite document store backend.
//
// SQLite is a lightweight, file-based database suitable for local
// development and single-node deployments. Tags, embeddings, and profile
// documents are stored as JSON strings in TEXT fields.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meeralabs/hivemind-go/pkg/memory"
)

// Client implements docstore.Store using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// recordsTable is the table storing memory records.
	recordsTable string

	// identitiesTable is the table storing user identities.
	identitiesTable string
}

// Config contains configuration for creating a SQLite document store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// RecordsTable is the memory records table name (default "memories").
	RecordsTable string

	// IdentitiesTable is the identities table name (default "identities").
	IdentitiesTable string
}

// NewClient creates a new SQLite document store client and bootstraps
// the schema.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.DBPath == "" {
		return nil, memory.NewEngineError("NewSQLiteClient", memory.ErrInvalidConfig)
	}
	if cfg.RecordsTable == "" {
		cfg.RecordsTable = "memories"
	}
	if cfg.IdentitiesTable == "" {
		cfg.IdentitiesTable = "identities"
	}

	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{
		db:              db,
		recordsTable:    cfg.RecordsTable,
		identitiesTable: cfg.IdentitiesTable,
	}
	if err := client.initTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return client, nil
}

// initTables initializes the database table structure.
func (c *Client) initTables(ctx context.Context) error {
	recordsQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			content TEXT NOT NULL,
			category TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			tags TEXT,
			recency_weight REAL NOT NULL DEFAULT 1.0,
			origin TEXT,
			embedding TEXT,
			exchange_snippet TEXT,
			context_snippet TEXT,
			shared INTEGER NOT NULL DEFAULT 0
		)
	`, c.recordsTable)
	if _, err := c.db.ExecContext(ctx, recordsQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	scopeIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_scope ON %s(shared, owner_id, created_at)
	`, c.recordsTable, c.recordsTable)
	if _, err := c.db.ExecContext(ctx, scopeIndex); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	identitiesQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_id TEXT PRIMARY KEY,
			profile TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`, c.identitiesTable)
	if _, err := c.db.ExecContext(ctx, identitiesQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}
	return nil
}

// SaveRecord upserts a record keyed by ID.
func (c *Client) SaveRecord(ctx context.Context, record *memory.MemoryRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	tagsJSON, embeddingJSON, err := encodeRecordColumns(record)
	if err != nil {
		return fmt.Errorf("SaveRecord: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, owner_id, content, category, created_at, tags, recency_weight,
		 origin, embedding, exchange_snippet, context_snippet, shared)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			content = excluded.content,
			category = excluded.category,
			created_at = excluded.created_at,
			tags = excluded.tags,
			recency_weight = excluded.recency_weight,
			origin = excluded.origin,
			embedding = excluded.embedding,
			exchange_snippet = excluded.exchange_snippet,
			context_snippet = excluded.context_snippet,
			shared = excluded.shared
	`, c.recordsTable)

	_, err = c.db.ExecContext(ctx, query,
		record.ID,
		record.OwnerID,
		record.Content,
		string(record.Category),
		record.CreatedAt.UTC(),
		tagsJSON,
		record.RecencyWeight,
		record.Origin,
		embeddingJSON,
		record.ExchangeSnippet,
		record.ContextSnippet,
		boolToInt(record.Shared),
	)
	if err != nil {
		return fmt.Errorf("SaveRecord: %w", err)
	}
	return nil
}

// GetRecord fetches a record by ID.
func (c *Client) GetRecord(ctx context.Context, id string) (*memory.MemoryRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, content, category, created_at, tags, recency_weight,
		       origin, embedding, exchange_snippet, context_snippet, shared
		FROM %s WHERE id = ?
	`, c.recordsTable)

	record, err := scanRecord(c.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, memory.NewEngineError("GetRecord", memory.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetRecord: %w", err)
	}
	return record, nil
}

// GetRecords fetches records by ID, preserving the input order and
// skipping missing IDs.
func (c *Client) GetRecords(ctx context.Context, ids []string) ([]*memory.MemoryRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(`
		SELECT id, owner_id, content, category, created_at, tags, recency_weight,
		       origin, embedding, exchange_snippet, context_snippet, shared
		FROM %s WHERE id IN (%s)
	`, c.recordsTable, placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GetRecords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[string]*memory.MemoryRecord, len(ids))
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("GetRecords: %w", err)
		}
		byID[record.ID] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetRecords: %w", err)
	}

	records := make([]*memory.MemoryRecord, 0, len(byID))
	for _, id := range ids {
		if record, ok := byID[id]; ok {
			records = append(records, record)
		}
	}
	return records, nil
}

// Recent returns the newest records in the scope by CreatedAt descending.
func (c *Client) Recent(ctx context.Context, scope memory.Scope, limit int) ([]*memory.MemoryRecord, error) {
	var (
		where string
		args  []any
	)
	if scope.IsShared() {
		where = "shared = 1"
	} else {
		where = "shared = 0 AND owner_id = ?"
		args = append(args, scope.OwnerID())
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, owner_id, content, category, created_at, tags, recency_weight,
		       origin, embedding, exchange_snippet, context_snippet, shared
		FROM %s WHERE %s ORDER BY created_at DESC LIMIT ?
	`, c.recordsTable, where)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*memory.MemoryRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("Recent: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	return records, nil
}

// GetIdentity fetches a user identity.
func (c *Client) GetIdentity(ctx context.Context, userID string) (*memory.UserIdentity, error) {
	query := fmt.Sprintf(`SELECT profile FROM %s WHERE user_id = ?`, c.identitiesTable)

	var profileJSON string
	err := c.db.QueryRowContext(ctx, query, userID).Scan(&profileJSON)
	if err == sql.ErrNoRows {
		return nil, memory.NewEngineError("GetIdentity", memory.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetIdentity: %w", err)
	}

	var identity memory.UserIdentity
	if err := json.Unmarshal([]byte(profileJSON), &identity); err != nil {
		return nil, fmt.Errorf("GetIdentity: %w", err)
	}
	return &identity, nil
}

// PutIdentity upserts a user identity.
func (c *Client) PutIdentity(ctx context.Context, identity *memory.UserIdentity) error {
	if identity == nil || identity.UserID == "" {
		return memory.NewEngineError("PutIdentity", memory.ErrInvalidInput)
	}

	profileJSON, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("PutIdentity: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, profile, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			profile = excluded.profile,
			updated_at = excluded.updated_at
	`, c.identitiesTable)

	_, err = c.db.ExecContext(ctx, query,
		identity.UserID,
		string(profileJSON),
		identity.CreatedAt.UTC(),
		identity.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("PutIdentity: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*memory.MemoryRecord, error) {
	var (
		record        memory.MemoryRecord
		category      string
		createdAt     time.Time
		tagsJSON      sql.NullString
		origin        sql.NullString
		embeddingJSON sql.NullString
		exchange      sql.NullString
		contextSnip   sql.NullString
		shared        int
	)
	err := row.Scan(
		&record.ID,
		&record.OwnerID,
		&record.Content,
		&category,
		&createdAt,
		&tagsJSON,
		&record.RecencyWeight,
		&origin,
		&embeddingJSON,
		&exchange,
		&contextSnip,
		&shared,
	)
	if err != nil {
		return nil, err
	}

	record.Category = memory.ParseCategory(category)
	record.CreatedAt = createdAt.UTC()
	record.Origin = origin.String
	record.ExchangeSnippet = exchange.String
	record.ContextSnippet = contextSnip.String
	record.Shared = shared != 0

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &record.Tags); err != nil {
			return nil, err
		}
	}
	if embeddingJSON.Valid && embeddingJSON.String != "" {
		if err := json.Unmarshal([]byte(embeddingJSON.String), &record.Embedding); err != nil {
			return nil, err
		}
	}
	return &record, nil
}

func encodeRecordColumns(record *memory.MemoryRecord) (tagsJSON, embeddingJSON string, err error) {
	if len(record.Tags) > 0 {
		data, err := json.Marshal(record.Tags)
		if err != nil {
			return "", "", err
		}
		tagsJSON = string(data)
	}
	if len(record.Embedding) > 0 {
		data, err := json.Marshal(record.Embedding)
		if err != nil {
			return "", "", err
		}
		embeddingJSON = string(data)
	}
	return tagsJSON, embeddingJSON, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
