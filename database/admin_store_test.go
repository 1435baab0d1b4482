package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdminStore(t *testing.T) *AdminStore {
	t.Helper()
	db, driver, err := InitDB(filepath.Join(t.TempDir(), "bookbot_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAdminStore(db, driver)
}

func TestAdminAddAndCheck(t *testing.T) {
	s := newTestAdminStore(t)
	ctx := context.Background()

	ok, err := s.IsAdmin(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Add(ctx, 42, "bookkeeper"))

	ok, err = s.IsAdmin(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsAdmin(ctx, 43)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminAddIsUpsert(t *testing.T) {
	s := newTestAdminStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, 42, "old_name"))
	require.NoError(t, s.Add(ctx, 42, "new_name"))

	ok, err := s.IsAdmin(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
}
