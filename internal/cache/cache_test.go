package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemadesigner/internal/db"
	"github.com/tordrt/schemadesigner/internal/schema"
	"github.com/tordrt/schemadesigner/internal/store"
)

func sampleWorkspace() schema.Workspace {
	users := schema.NewTable("users", 100, schema.NewColumn("id", schema.TypeInteger))
	users.Position = schema.Position{X: 40, Y: 80}
	fk := schema.NewColumn("user_id", schema.TypeForeignKey)
	fk.Params = schema.ForeignKeyParams{TargetTableID: users.ID}
	amount := schema.NewColumn("amount", schema.TypeFloat)
	orders := schema.NewTable("orders", 500, fk, amount)
	avg := 42.5

	return schema.Workspace{
		Name:   "shop",
		Tables: []schema.Table{users, orders},
		Relationships: []schema.Relationship{
			schema.NewRelationship(users.ID, users.Columns[0].ID, orders.ID, fk.ID),
		},
		Constraints: []schema.OutcomeConstraint{{
			TableID:  orders.ID,
			ColumnID: amount.ID,
			Points: []schema.CurvePoint{
				{Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Value: 10},
				{Timestamp: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Value: 20},
			},
			TimeUnit:            schema.UnitMonth,
			AvgTransactionValue: &avg,
		}},
	}
}

func openSQLite(t *testing.T, key string) Cache {
	t.Helper()
	c, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "cache.db"), key)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openSQLite(t, "shop")

	_, found, err := c.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	ws := sampleWorkspace()
	require.NoError(t, c.Save(ctx, ws))

	got, found, err := c.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, ws, got)

	at, found, err := c.UpdatedAt(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.WithinDuration(t, time.Now(), at, time.Minute)
}

func TestSQLiteCacheOverwrites(t *testing.T) {
	ctx := context.Background()
	c := openSQLite(t, "shop")

	ws := sampleWorkspace()
	require.NoError(t, c.Save(ctx, ws))
	ws.Name = "renamed"
	ws.Tables = ws.Tables[:1]
	ws.Relationships = nil
	ws.Constraints = nil
	require.NoError(t, c.Save(ctx, ws))

	got, _, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Len(t, got.Tables, 1)
}

func TestSQLiteCacheKeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	client, err := db.NewSQLiteClient(ctx, filepath.Join(t.TempDir(), "shared.db"))
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	a, err := NewSQLiteCache(ctx, client, "a")
	require.NoError(t, err)
	b, err := NewSQLiteCache(ctx, client, "b")
	require.NoError(t, err)

	require.NoError(t, a.Save(ctx, sampleWorkspace()))
	_, found, err := b.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	// closing a borrowed client is left to its owner
	require.NoError(t, a.Close())
	_, found, err = a.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)

	_, err = NewSQLiteCache(ctx, client, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "bare path", url: filepath.Join(t.TempDir(), "bare.db")},
		{name: "sqlite scheme", url: "sqlite://" + filepath.Join(t.TempDir(), "scheme.db")},
		{name: "unknown scheme", url: "redis://localhost:6379", wantErr: ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(context.Background(), tt.url, "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, c.Close())
		})
	}
}

func TestStoreRestoresFromCache(t *testing.T) {
	ctx := context.Background()
	c := openSQLite(t, "shop")

	s := store.New(store.WithPersister(c))
	users, err := s.AddTable(schema.NewTable("users", 10, schema.NewColumn("id", schema.TypeInteger)))
	require.NoError(t, err)
	require.NoError(t, s.SetName("shop"))

	restored := store.New(store.WithPersister(c))
	loaded, err := restored.Restore(ctx)
	require.NoError(t, err)
	require.True(t, loaded)

	assert.Equal(t, "shop", restored.Name())
	g := restored.Graph()
	require.Len(t, g.Tables, 1)
	assert.Equal(t, users.ID, g.Tables[0].ID)
	assert.False(t, restored.CanUndo(), "history is not persisted")
}
