package product

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProductInventory/internal/db"
)

// newPostgresStore connects to PRODUCTS_TEST_DATABASE_URL, applies the schema
// and empties the table. Tests are skipped without a database.
func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()

	url := os.Getenv("PRODUCTS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PRODUCTS_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	conn, err := db.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "000001_create_products.up.sql"))
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, string(schema))
	require.NoError(t, err)

	s := NewPostgresStore(conn)
	require.NoError(t, s.RemoveAll(ctx))
	t.Cleanup(func() { _ = s.RemoveAll(context.Background()) })
	return s
}

func TestPostgresStore_Lifecycle(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	a, err := s.Create(ctx, Product{Name: "Asus2500", Category: "Laptop", Price: "234", Count: 23})
	require.NoError(t, err)
	assert.Equal(t, 1, a.ID)

	hp, err := s.Create(ctx, Product{Name: "Hp", Category: "Microwave", Price: "960", Count: 0})
	require.NoError(t, err)

	got, ok, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a, got)

	_, ok, err = s.Get(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)

	a.Price = "1000"
	a, err = s.Update(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "1000", a.Price)

	_, err = s.Update(ctx, Product{ID: 999, Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Create(ctx, Product{Name: "neg", Count: -1})
	assert.ErrorIs(t, err, ErrInvalidCount)

	_, err = s.Create(ctx, Product{Name: "huge", Count: MaxCount + 1})
	assert.ErrorIs(t, err, ErrInvalidCount)

	available, err := s.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, a.ID, available[0].ID)

	micro, err := s.FindBy(ctx, FieldCategory, "Microwave")
	require.NoError(t, err)
	require.Len(t, micro, 1)
	assert.Equal(t, hp.ID, micro[0].ID)

	byCount, err := s.FindBy(ctx, FieldCount, "0")
	require.NoError(t, err)
	require.Len(t, byCount, 1)

	p, err := s.AddUnit(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 24, p.Count)

	p, err = s.SellUnit(ctx, hp.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Count)

	_, err = s.SellUnit(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	full, err := s.Create(ctx, Product{Name: "full", Count: MaxCount})
	require.NoError(t, err)
	_, err = s.AddUnit(ctx, full.ID)
	assert.ErrorIs(t, err, ErrInvalidCount)
	require.NoError(t, s.Delete(ctx, full.ID))

	require.NoError(t, s.Delete(ctx, a.ID))
	require.NoError(t, s.Delete(ctx, a.ID))

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
