package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/i474232898/weather-forecast-fusion/internal/weather"
)

// Collector provides application metrics collection
type Collector struct {
	// Source adapter metrics
	SourceFetchDuration *prometheus.HistogramVec
	SourceFetchTotal    *prometheus.CounterVec

	// Aggregation metrics
	AggregationsTotal   *prometheus.CounterVec
	AggregationDuration prometheus.Histogram

	// Cache metrics
	CacheRequestsTotal *prometheus.CounterVec

	// API metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector registered on reg.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		SourceFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_fetch_duration_seconds",
				Help:      "Provider fetch duration in seconds by provider",
				Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 4.0, 8.0},
			},
			[]string{"provider"},
		),

		SourceFetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_fetch_total",
				Help:      "Total number of provider fetches by provider and status",
			},
			[]string{"provider", "status"},
		),

		AggregationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregations_total",
				Help:      "Total number of aggregation passes by outcome",
			},
			[]string{"outcome"}, // "high", "medium", "low", "all_failed", "error"
		),

		AggregationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "aggregation_duration_seconds",
				Help:      "Aggregation pass duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 4.0, 8.0},
			},
		),

		CacheRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Forecast cache lookups by result",
			},
			[]string{"result"}, // "hit", "miss"
		),

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"endpoint"},
		),
	}
}

// ObserveSource records one adapter invocation.
func (c *Collector) ObserveSource(provider string, status weather.SourceStatus, d time.Duration) {
	c.SourceFetchDuration.WithLabelValues(provider).Observe(d.Seconds())
	c.SourceFetchTotal.WithLabelValues(provider, string(status)).Inc()
}

// ObserveAggregation records the outcome of a pass.
func (c *Collector) ObserveAggregation(confidence weather.Confidence, err error, d time.Duration) {
	c.AggregationDuration.Observe(d.Seconds())

	outcome := string(confidence)
	switch {
	case errors.Is(err, weather.ErrAllSourcesFailed):
		outcome = "all_failed"
	case err != nil:
		outcome = "error"
	}
	c.AggregationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCache records a cache hit or miss.
func (c *Collector) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordAPIRequest records a served API request.
func (c *Collector) RecordAPIRequest(endpoint, method, status string, d time.Duration) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	c.APIRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}
