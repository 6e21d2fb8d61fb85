package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
)

func TestMemoryCacheSetGet(t *testing.T) {
	cache := NewMemoryCacheRepository()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "reports:demographics", map[string]int{"total": 5}, time.Minute))

	var out map[string]int
	require.NoError(t, cache.Get(ctx, "reports:demographics", &out))
	assert.Equal(t, 5, out["total"])
}

func TestMemoryCacheMiss(t *testing.T) {
	cache := NewMemoryCacheRepository()
	var out string
	err := cache.Get(context.Background(), "missing", &out)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCacheRepository()
	ctx := context.Background()

	current := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	require.NoError(t, cache.Set(ctx, "stats", 1, 5*time.Second))

	var out int
	require.NoError(t, cache.Get(ctx, "stats", &out))

	current = current.Add(6 * time.Second)
	err := cache.Get(ctx, "stats", &out)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	cache := NewMemoryCacheRepository()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "reports:demographics", 1, 0))
	require.NoError(t, cache.Set(ctx, "reports:overall", 2, 0))
	require.NoError(t, cache.Set(ctx, "stats:summary", 3, 0))

	require.NoError(t, cache.DeleteByPattern(ctx, "reports:*"))

	var out int
	assert.ErrorIs(t, cache.Get(ctx, "reports:demographics", &out), appErrors.ErrCacheMiss)
	assert.ErrorIs(t, cache.Get(ctx, "reports:overall", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, cache.Get(ctx, "stats:summary", &out))
}
