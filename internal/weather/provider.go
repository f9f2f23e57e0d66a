package weather

import (
	"context"
	"errors"
	"time"
)

// Provider abstracts a weather data source (e.g. Open-Meteo, MET Norway, WeatherAPI).
//
// Fetch must not panic or return partial failures: every problem is reported as a
// failed SourceResult. The per-adapter deadline travels on ctx.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, coords Coordinates) SourceResult
}

// Registry is the ordered list of providers. The order is the priority used when
// fusing text fields, so it must be stable across passes.
type Registry struct {
	providers []Provider
}

// NewRegistry builds a registry with the providers in priority order.
func NewRegistry(providers ...Provider) (*Registry, error) {
	if len(providers) == 0 {
		return nil, errors.New("weather: at least one provider is required")
	}
	seen := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		if _, dup := seen[p.Name()]; dup {
			return nil, errors.New("weather: duplicate provider " + p.Name())
		}
		seen[p.Name()] = struct{}{}
	}
	return &Registry{providers: providers}, nil
}

// Providers returns the registered providers in priority order.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Names returns provider names in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Cache is the contract for forecast response caches (in-memory or Redis).
// Get returns (nil, nil) on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*UnifiedForecast, error)
	Set(ctx context.Context, key string, forecast *UnifiedForecast, ttl time.Duration) error
	DeleteOlderThan(ctx context.Context, age time.Duration) error
}

// Recorder receives pipeline measurements. metrics.Collector implements it.
type Recorder interface {
	ObserveSource(provider string, status SourceStatus, d time.Duration)
	ObserveAggregation(confidence Confidence, err error, d time.Duration)
	ObserveCache(hit bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSource(string, SourceStatus, time.Duration)    {}
func (nopRecorder) ObserveAggregation(Confidence, error, time.Duration) {}
func (nopRecorder) ObserveCache(bool)                                   {}
