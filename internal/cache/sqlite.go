package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tordrt/schemadesigner/internal/db"
	"github.com/tordrt/schemadesigner/internal/schema"
)

const sqliteTable = `
	CREATE TABLE IF NOT EXISTS workspaces (
		key        TEXT PRIMARY KEY,
		document   TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)
`

// SQLiteCache keeps workspaces in a local SQLite file
type SQLiteCache struct {
	client *db.SQLiteClient
	key    string
	now    func() time.Time
	owned  bool
}

// NewSQLiteCache creates the workspaces table if needed. The client stays
// owned by the caller.
func NewSQLiteCache(ctx context.Context, client *db.SQLiteClient, key string) (*SQLiteCache, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if _, err := client.DB().ExecContext(ctx, sqliteTable); err != nil {
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &SQLiteCache{client: client, key: key, now: time.Now}, nil
}

// Save implements store.Persister
func (c *SQLiteCache) Save(ctx context.Context, ws schema.Workspace) error {
	doc, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("failed to encode workspace: %w", err)
	}

	query := `
		INSERT INTO workspaces (key, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at
	`
	if _, err := c.client.DB().ExecContext(ctx, query, c.key, string(doc), c.now().UTC()); err != nil {
		return fmt.Errorf("failed to save workspace %s: %w", c.key, err)
	}
	return nil
}

// Load implements store.Persister
func (c *SQLiteCache) Load(ctx context.Context) (schema.Workspace, bool, error) {
	var doc string
	err := c.client.DB().QueryRowContext(ctx, `SELECT document FROM workspaces WHERE key = ?`, c.key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Workspace{}, false, nil
	}
	if err != nil {
		return schema.Workspace{}, false, fmt.Errorf("failed to load workspace %s: %w", c.key, err)
	}

	var ws schema.Workspace
	if err := json.Unmarshal([]byte(doc), &ws); err != nil {
		return schema.Workspace{}, false, fmt.Errorf("failed to decode workspace %s: %w", c.key, err)
	}
	return ws, true, nil
}

// UpdatedAt implements Cache
func (c *SQLiteCache) UpdatedAt(ctx context.Context) (time.Time, bool, error) {
	var at time.Time
	err := c.client.DB().QueryRowContext(ctx, `SELECT updated_at FROM workspaces WHERE key = ?`, c.key).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

// Close releases the connection when the cache opened it itself
func (c *SQLiteCache) Close() error {
	if !c.owned {
		return nil
	}
	return c.client.Close()
}
