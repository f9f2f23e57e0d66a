package store

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/weather-forecast-fusion/internal/weather"
)

type memoryEntry struct {
	forecast *weather.UnifiedForecast
	storedAt time.Time
	expires  time.Time
}

// MemoryCache is a concurrency-safe in-memory forecast cache.
type MemoryCache struct {
	mu sync.RWMutex

	// key: cache key, value: forecast with timestamps
	data map[string]memoryEntry

	// retention configuration
	maxEntries int // max number of cached forecasts (0 = unlimited)

	now func() time.Time
}

// NewMemoryCache creates a new MemoryCache.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		data:       make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached forecast for key, or nil when absent or expired.
func (s *MemoryCache) Get(_ context.Context, key string) (*weather.UnifiedForecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok || !s.now().Before(entry.expires) {
		return nil, nil
	}
	return entry.forecast, nil
}

// Set stores a forecast and enforces retention. A ttl <= 0 never expires.
func (s *MemoryCache) Set(_ context.Context, key string, forecast *weather.UnifiedForecast, ttl time.Duration) error {
	now := s.now()
	expires := now.Add(ttl)
	if ttl <= 0 {
		expires = time.Unix(1<<62, 0)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = memoryEntry{forecast: forecast, storedAt: now, expires: expires}

	// Enforce retention by count: evict the oldest entries first.
	for s.maxEntries > 0 && len(s.data) > s.maxEntries {
		oldestKey := ""
		var oldest time.Time
		for k, e := range s.data {
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey, oldest = k, e.storedAt
			}
		}
		delete(s.data, oldestKey)
	}
	return nil
}

// DeleteOlderThan drops expired entries and entries stored more than age ago.
func (s *MemoryCache) DeleteOlderThan(_ context.Context, age time.Duration) error {
	now := s.now()
	cutoff := now.Add(-age)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.data {
		if !now.Before(e.expires) || e.storedAt.Before(cutoff) {
			delete(s.data, k)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryCache) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
