package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/schemadesigner/internal/db"
	"github.com/tordrt/schemadesigner/internal/schema"
)

const postgresTable = `
	CREATE TABLE IF NOT EXISTS schemadesigner_workspaces (
		key        TEXT PRIMARY KEY,
		document   JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

// PostgresCache keeps workspaces in a shared PostgreSQL database
type PostgresCache struct {
	client *db.PostgresClient
	key    string
	now    func() time.Time
	owned  bool
}

// NewPostgresCache creates the workspaces table if needed. The client
// stays owned by the caller.
func NewPostgresCache(ctx context.Context, client *db.PostgresClient, key string) (*PostgresCache, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if _, err := client.Pool().Exec(ctx, postgresTable); err != nil {
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &PostgresCache{client: client, key: key, now: time.Now}, nil
}

// Save implements store.Persister
func (c *PostgresCache) Save(ctx context.Context, ws schema.Workspace) error {
	doc, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("failed to encode workspace: %w", err)
	}

	query := `
		INSERT INTO schemadesigner_workspaces (key, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := c.client.Pool().Exec(ctx, query, c.key, string(doc), c.now().UTC()); err != nil {
		return fmt.Errorf("failed to save workspace %s: %w", c.key, err)
	}
	return nil
}

// Load implements store.Persister
func (c *PostgresCache) Load(ctx context.Context) (schema.Workspace, bool, error) {
	var doc []byte
	err := c.client.Pool().QueryRow(ctx,
		`SELECT document::text FROM schemadesigner_workspaces WHERE key = $1`, c.key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return schema.Workspace{}, false, nil
	}
	if err != nil {
		return schema.Workspace{}, false, fmt.Errorf("failed to load workspace %s: %w", c.key, err)
	}

	var ws schema.Workspace
	if err := json.Unmarshal(doc, &ws); err != nil {
		return schema.Workspace{}, false, fmt.Errorf("failed to decode workspace %s: %w", c.key, err)
	}
	return ws, true, nil
}

// UpdatedAt implements Cache
func (c *PostgresCache) UpdatedAt(ctx context.Context) (time.Time, bool, error) {
	var at time.Time
	err := c.client.Pool().QueryRow(ctx,
		`SELECT updated_at FROM schemadesigner_workspaces WHERE key = $1`, c.key).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

// Close releases the pool when the cache opened it itself
func (c *PostgresCache) Close() error {
	if c.owned {
		c.client.Close()
	}
	return nil
}
