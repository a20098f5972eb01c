// Package cache persists the workspace document between sessions. It
// implements store.Persister on top of the same database clients the
// importers use.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tordrt/schemadesigner/internal/db"
	"github.com/tordrt/schemadesigner/internal/store"
)

// DefaultKey names the workspace when no key is configured
const DefaultKey = "default"

// DefaultURL is the local cache used when none is configured
const DefaultURL = "sqlite://.schemadesigner.db"

var (
	// ErrUnsupportedScheme is returned by Open for an unknown URL scheme
	ErrUnsupportedScheme = errors.New("unsupported cache URL scheme")
	// ErrEmptyKey is returned when a cache is opened without a workspace key
	ErrEmptyKey = errors.New("workspace key is required")
)

// Cache is a workspace Persister holding an open connection
type Cache interface {
	store.Persister
	// UpdatedAt reports when the workspace was last saved
	UpdatedAt(ctx context.Context) (time.Time, bool, error)
	Close() error
}

var (
	_ Cache = (*SQLiteCache)(nil)
	_ Cache = (*PostgresCache)(nil)
)

// Open connects to the cache at url and prepares its table. A URL without
// a scheme is taken as a SQLite file path.
func Open(ctx context.Context, url, key string) (Cache, error) {
	if key == "" {
		key = DefaultKey
	}
	if url == "" {
		url = DefaultURL
	}

	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		client, err := db.NewPostgresClient(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to open workspace cache: %w", err)
		}
		c, err := NewPostgresCache(ctx, client, key)
		if err != nil {
			client.Close()
			return nil, err
		}
		c.owned = true
		return c, nil
	case strings.HasPrefix(url, "sqlite://"), !strings.Contains(url, "://"):
		client, err := db.NewSQLiteClient(ctx, strings.TrimPrefix(url, "sqlite://"))
		if err != nil {
			return nil, fmt.Errorf("failed to open workspace cache: %w", err)
		}
		c, err := NewSQLiteCache(ctx, client, key)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		c.owned = true
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, url)
	}
}
