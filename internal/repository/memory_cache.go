package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryCacheRepository is an in-process cache used when Redis is
// disabled. Entries expire lazily on read.
type MemoryCacheRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCacheRepository constructs an empty in-memory cache.
func NewMemoryCacheRepository() *MemoryCacheRepository {
	return &MemoryCacheRepository{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get retrieves and unmarshals a cached value.
func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	entry, ok := r.entries[key]
	if ok && !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		delete(r.entries, key)
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores a value with the given TTL. A zero TTL never expires.
func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = r.now().Add(ttl)
	}

	r.mu.Lock()
	r.entries[key] = memoryEntry{payload: payload, expiresAt: expiresAt}
	r.mu.Unlock()
	return nil
}

// DeleteByPattern removes entries whose key matches the glob pattern.
func (r *MemoryCacheRepository) DeleteByPattern(_ context.Context, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.entries {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return fmt.Errorf("match pattern %s: %w", pattern, err)
		}
		if matched {
			delete(r.entries, key)
		}
	}
	return nil
}

// Close is a no-op for the in-memory cache.
func (r *MemoryCacheRepository) Close() error {
	return nil
}
