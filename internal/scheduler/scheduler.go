package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-forecast-fusion/internal/weather"
)

// Warmer is the part of weather.Service the scheduler drives.
type Warmer interface {
	Warm(ctx context.Context, locations []weather.Coordinates, units weather.Units) int
	Purge(ctx context.Context) error
}

// Scheduler periodically refreshes cached forecasts for configured locations
// and purges stale cache entries.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Warmer
	locations []weather.Coordinates
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. timeout bounds each job run.
func New(locations []weather.Coordinates, interval, timeout time.Duration, service Warmer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		locations: locations,
		interval:  interval,
		timeout:   timeout,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the periodic jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	if _, err := s.scheduler.Every(interval).Do(s.purge); err != nil {
		return err
	}

	if len(s.locations) == 0 {
		s.logger.Info("no warm-up locations configured; only cache purge is scheduled")
	} else if _, err := s.scheduler.Every(interval).Do(s.warm); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) warm() {
	s.logger.Info("running warm-up job", "locations", len(s.locations))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n := s.service.Warm(ctx, s.locations, weather.UnitsMetric)
	s.logger.Info("completed warm-up job", "refreshed", n, "locations", len(s.locations))
}

func (s *Scheduler) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.service.Purge(ctx); err != nil {
		s.logger.Warn("cache purge failed", "error", err)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
