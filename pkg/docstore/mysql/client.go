// Package mysql provides the MySQL document store backend.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/meeralabs/hivemind-go/pkg/memory"
)

// Client implements docstore.Store using MySQL as the backend.
type Client struct {
	db              *sql.DB
	recordsTable    string
	identitiesTable string
}

// Config contains configuration for creating a MySQL document store.
type Config struct {
	// Host is the database host.
	Host string

	// Port is the database port (default 3306).
	Port int

	// User is the database user.
	User string

	// Password is the database password.
	Password string

	// DBName is the database name.
	DBName string

	// RecordsTable is the memory records table name (default "memories").
	RecordsTable string

	// IdentitiesTable is the identities table name (default "identities").
	IdentitiesTable string
}

// NewClient creates a new MySQL document store client and bootstraps the
// schema.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.Host == "" || cfg.DBName == "" {
		return nil, memory.NewEngineError("NewMySQLClient", memory.ErrInvalidConfig)
	}
	if cfg.Port == 0 {
		cfg.Port = 3306
	}
	if cfg.RecordsTable == "" {
		cfg.RecordsTable = "memories"
	}
	if cfg.IdentitiesTable == "" {
		cfg.IdentitiesTable = "identities"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
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

func (c *Client) initTables(ctx context.Context) error {
	recordsQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			owner_id VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			category VARCHAR(32) NOT NULL,
			created_at DATETIME(6) NOT NULL,
			tags TEXT,
			recency_weight DOUBLE NOT NULL DEFAULT 1.0,
			origin VARCHAR(255),
			embedding LONGTEXT,
			exchange_snippet TEXT,
			context_snippet TEXT,
			shared TINYINT(1) NOT NULL DEFAULT 0,
			INDEX idx_scope (shared, owner_id, created_at)
		)
	`, c.recordsTable)
	if _, err := c.db.ExecContext(ctx, recordsQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	identitiesQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_id VARCHAR(255) PRIMARY KEY,
			profile LONGTEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL
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
		ON DUPLICATE KEY UPDATE
			owner_id = VALUES(owner_id),
			content = VALUES(content),
			category = VALUES(category),
			created_at = VALUES(created_at),
			tags = VALUES(tags),
			recency_weight = VALUES(recency_weight),
			origin = VALUES(origin),
			embedding = VALUES(embedding),
			exchange_snippet = VALUES(exchange_snippet),
			context_snippet = VALUES(context_snippet),
			shared = VALUES(shared)
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
		record.Shared,
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

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
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
		ON DUPLICATE KEY UPDATE
			profile = VALUES(profile),
			updated_at = VALUES(updated_at)
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
		&record.Shared,
	)
	if err != nil {
		return nil, err
	}

	record.Category = memory.ParseCategory(category)
	record.CreatedAt = createdAt.UTC()
	record.Origin = origin.String
	record.ExchangeSnippet = exchange.String
	record.ContextSnippet = contextSnip.String

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
