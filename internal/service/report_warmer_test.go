package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ccc-church/evaluation-api/internal/models"
)

func TestReportWarmerRepopulatesCacheAfterClear(t *testing.T) {
	repo := &mockReportRepo{total: 4, todayCount: 1, weekCount: 2, activeUsers: 1}
	cache, _ := newTestCache()
	svc := newReportService(repo, cache)

	warmer := NewReportWarmer(svc, zap.NewNop())
	warmer.Start(context.Background())
	defer warmer.Stop()
	cache.AfterClear(warmer.Trigger)

	require.NoError(t, cache.Clear(context.Background()))

	require.Eventually(t, func() bool {
		var stats models.StatsSummary
		hit, err := cache.Get(context.Background(), CacheKeyStats, &stats)
		return err == nil && hit
	}, 2*time.Second, 10*time.Millisecond)

	var combined struct {
		Stats models.StatsSummary `json:"stats"`
	}
	hit, err := cache.Get(context.Background(), CacheKeyCombined, &combined)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, combined.Stats.Total)
}

func TestReportWarmerTriggerBeforeStartIsNoop(t *testing.T) {
	cache, _ := newTestCache()
	warmer := NewReportWarmer(newReportService(&mockReportRepo{}, cache), zap.NewNop())

	// Not started: Enqueue fails internally, Trigger must not panic.
	warmer.Trigger()
}
