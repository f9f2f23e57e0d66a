package weather

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Forecaster produces unified forecasts. Aggregator implements it.
type Forecaster interface {
	Aggregate(ctx context.Context, req Request) (*UnifiedForecast, error)
}

// Service fronts the aggregation pipeline with a response cache.
type Service struct {
	forecaster Forecaster
	cache      Cache
	ttl        time.Duration
	logger     *slog.Logger
	recorder   Recorder
}

// NewService creates a new Service. cache may be nil to disable caching.
func NewService(forecaster Forecaster, cache Cache, ttl time.Duration, logger *slog.Logger, recorder Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		forecaster: forecaster,
		cache:      cache,
		ttl:        ttl,
		logger:     logger.With("component", "forecast-service"),
		recorder:   recorder,
	}
}

// CacheKey identifies a cached forecast: rounded coordinates plus units.
func CacheKey(req Request) string {
	return "forecast:" + req.Coordinates.Key() + ":" + string(req.Units)
}

// Forecast returns a cached forecast for req when fresh, otherwise runs a pass
// and caches the result. Cache failures are logged and never fail the request.
func (s *Service) Forecast(ctx context.Context, req Request) (*UnifiedForecast, error) {
	if req.Units == "" {
		req.Units = UnitsMetric
	}
	if err := req.Coordinates.Validate(); err != nil {
		return nil, err
	}

	key := CacheKey(req)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("cache get failed", "key", key, "error", err)
		}
		if cached != nil {
			s.recorder.ObserveCache(true)
			// Nearby coordinates share a key; echo the caller's own point.
			out := *cached
			out.Place = req.Coordinates
			return &out, nil
		}
		s.recorder.ObserveCache(false)
	}

	forecast, err := s.forecaster.Aggregate(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, forecast, s.ttl); err != nil {
			s.logger.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return forecast, nil
}

// Warm refreshes the cache for every location concurrently, bypassing reads.
// It returns the number of locations that were refreshed.
func (s *Service) Warm(ctx context.Context, locations []Coordinates, units Units) int {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		refreshed int
	)

	for _, loc := range locations {
		wg.Add(1)
		go func(loc Coordinates) {
			defer wg.Done()

			req := Request{Coordinates: loc, Units: units}
			forecast, err := s.forecaster.Aggregate(ctx, req)
			if err != nil {
				s.logger.Warn("warm-up failed", "location", loc.Key(), "error", err)
				return
			}
			if s.cache != nil {
				if err := s.cache.Set(ctx, CacheKey(req), forecast, s.ttl); err != nil {
					s.logger.Warn("cache set failed", "location", loc.Key(), "error", err)
					return
				}
			}

			mu.Lock()
			refreshed++
			mu.Unlock()
		}(loc)
	}

	wg.Wait()
	return refreshed
}

// Purge drops cache entries older than the configured TTL.
func (s *Service) Purge(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeleteOlderThan(ctx, s.ttl)
}
