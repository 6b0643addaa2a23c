package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenggwsx/StartupMatch/internal/storage"
	"github.com/fenggwsx/StartupMatch/internal/storage/memory"
)

func TestGuardedOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore(0)
	g := storage.NewGuarded(backend, storage.BreakerSettings{MaxFailures: 2, Timeout: time.Hour}, nil)

	boom := errors.New("write failed")
	backend.FailWrites(boom)
	assert.ErrorIs(t, g.Set(ctx, "k", "v"), boom)
	assert.Equal(t, "closed", g.State())
	assert.ErrorIs(t, g.Set(ctx, "k", "v"), boom)
	assert.Equal(t, "open", g.State())

	backend.FailWrites(nil)
	err := g.Set(ctx, "k", "v")
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Zero(t, backend.Writes(), "open breaker does not reach the backend")

	_, err = g.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound, "reads pass through")
}

func TestGuardedPassesWrites(t *testing.T) {
	ctx := context.Background()
	g := storage.NewGuarded(memory.NewStore(0), storage.BreakerSettings{}, nil)
	require.NoError(t, g.Set(ctx, "k", "v"))
	v, err := g.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestCheckQuota(t *testing.T) {
	assert.NoError(t, storage.CheckQuota("k", "abc", 0))
	assert.NoError(t, storage.CheckQuota("k", "abc", 3))
	assert.ErrorIs(t, storage.CheckQuota("k", "abcd", 3), storage.ErrQuotaExceeded)
}
