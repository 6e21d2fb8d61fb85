package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
)

// Cache key namespaces. Every report and stats payload lives under the
// reports prefix so a single invalidation covers all derived data.
const (
	CacheKeyPrefix       = "reports:"
	CacheKeyDemographics = CacheKeyPrefix + "demographics"
	CacheKeyServices     = CacheKeyPrefix + "service-quality"
	CacheKeyDepartments  = CacheKeyPrefix + "departments"
	CacheKeyMinistries   = CacheKeyPrefix + "ministries"
	CacheKeyOverall      = CacheKeyPrefix + "overall-health"
	CacheKeyCombined     = CacheKeyPrefix + "combined"
	CacheKeyStats        = CacheKeyPrefix + "stats"
)

// CacheRepository abstracts the cache backend (Redis or in-memory).
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService orchestrates report caching and related metrics.
// Response writes invalidate the whole reports namespace rather than
// tracking which aggregate each write touches.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	afterClear func()
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true on a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Clear drops every cached report payload. Called after any write to
// the response store so aggregates are rebuilt on next read.
func (s *CacheService) Clear(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, CacheKeyPrefix+"*"); err != nil {
		s.logger.Warn("cache clear failed", zap.Error(err))
		return err
	}
	if s.afterClear != nil {
		s.afterClear()
	}
	return nil
}

// AfterClear registers a hook invoked after a successful Clear, used to
// schedule background rebuilds of the dropped aggregates.
func (s *CacheService) AfterClear(fn func()) {
	if s == nil {
		return
	}
	s.afterClear = fn
}
