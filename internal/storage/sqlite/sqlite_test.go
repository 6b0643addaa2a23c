package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/StartupMatch/internal/config"
	"github.com/fenggwsx/StartupMatch/internal/storage"
)

func openStore(t *testing.T, path string, maxBytes int) *Store {
	t.Helper()
	s, err := NewStore(config.StorageConfig{Path: path, Key: "k", MaxValueBytes: maxBytes})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestStoreUpsertAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s := openStore(t, path, 0)
	_, err := s.Get(ctx, "snapshot")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "snapshot", `{"version":1}`))
	require.NoError(t, s.Set(ctx, "snapshot", `{"version":2}`))
	v, err := s.Get(ctx, "snapshot")
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, v)
	require.NoError(t, s.Close())

	reopened := openStore(t, path, 0)
	defer reopened.Close()
	v, err = reopened.Get(ctx, "snapshot")
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, v)

	require.NoError(t, reopened.Delete(ctx, "snapshot"))
	_, err = reopened.Get(ctx, "snapshot")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreQuota(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "kv.db"), 16)
	defer s.Close()

	err := s.Set(ctx, "snapshot", strings.Repeat("x", 17))
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
	_, err = s.Get(ctx, "snapshot")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
