package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Aggregator runs one aggregation pass: every registered provider in parallel,
// then alignment, fusion, categorization and confidence scoring.
type Aggregator struct {
	registry *Registry
	timeout  time.Duration
	plan     Plan
	now      func() time.Time
	logger   *slog.Logger
	recorder Recorder
}

// AggregatorOption customizes an Aggregator.
type AggregatorOption func(*Aggregator)

// WithPlan overrides the slot plan.
func WithPlan(p Plan) AggregatorOption {
	return func(a *Aggregator) { a.plan = p }
}

// WithClock overrides the time source used to place slots.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) AggregatorOption {
	return func(a *Aggregator) { a.recorder = r }
}

// NewAggregator creates an Aggregator. timeout bounds each provider independently.
func NewAggregator(registry *Registry, timeout time.Duration, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		registry: registry,
		timeout:  timeout,
		plan:     DefaultPlan(),
		now:      time.Now,
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "aggregator")
	return a
}

// Aggregate produces a unified forecast for req. It fails with ErrInvalidInput
// before contacting any provider, and with ErrAllSourcesFailed when no provider
// succeeded. Individual provider failures only lower confidence.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (*UnifiedForecast, error) {
	if err := req.Coordinates.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	passID := uuid.NewString()
	log := a.logger.With("pass_id", passID, "lat", req.Coordinates.Lat, "lon", req.Coordinates.Lon)

	results := a.collect(ctx, req.Coordinates, log)

	var used []SourceResult
	for _, r := range results {
		if r.OK() {
			used = append(used, r)
		}
	}

	if len(used) == 0 {
		err := ErrAllSourcesFailed
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ErrAllSourcesFailed, ctx.Err())
		}
		log.Error("no provider produced a usable result", "attempted", len(results))
		a.recorder.ObserveAggregation("", err, time.Since(start))
		return nil, err
	}

	forecast := a.build(req.Coordinates, used)
	forecast.Confidence = Score(len(used))
	forecast.SourcesUsed = len(used)
	forecast.Meta = meta(passID, results, a.now())

	log.Info("aggregation complete",
		"sources_used", len(used),
		"sources_attempted", len(results),
		"confidence", forecast.Confidence,
		"category", forecast.Category,
		"duration", time.Since(start),
	)
	a.recorder.ObserveAggregation(forecast.Confidence, nil, time.Since(start))

	return forecast.Present(req.Units), nil
}

// collect runs every provider concurrently and waits for all of them to settle.
// Results are indexed by registry position, never by completion order.
func (a *Aggregator) collect(ctx context.Context, coords Coordinates, log *slog.Logger) []SourceResult {
	providers := a.registry.Providers()
	results := make([]SourceResult, len(providers))
	done := make(chan int, len(providers))

	for i, p := range providers {
		go func(i int, p Provider) {
			results[i] = a.fetchOne(ctx, p, coords)
			done <- i
		}(i, p)
	}
	for range providers {
		<-done
	}

	for _, r := range results {
		a.recorder.ObserveSource(r.Provider, r.Status, r.Duration)
		if r.OK() {
			log.Debug("provider fetch succeeded",
				"provider", r.Provider,
				"hourly", len(r.Hourly),
				"daily", len(r.Daily),
				"duration", r.Duration,
			)
			continue
		}
		log.Warn("provider fetch failed", "provider", r.Provider, "error", r.Err, "duration", r.Duration)
	}
	return results
}

// fetchOne invokes a single provider under its own deadline. It returns once
// the provider answers or the deadline passes, whichever comes first, and
// converts panics into failed results.
func (a *Aggregator) fetchOne(ctx context.Context, p Provider, coords Coordinates) SourceResult {
	name := p.Name()
	sctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	ch := make(chan SourceResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- Failed(name, fmt.Errorf("panic: %v", r))
			}
		}()
		ch <- p.Fetch(sctx, coords)
	}()

	var res SourceResult
	select {
	case res = <-ch:
	case <-sctx.Done():
		res = Failed(name, sctx.Err())
	}

	res.Provider = name
	res.Duration = time.Since(start)
	if res.Status != StatusOK {
		res.Status = StatusFailed
		if res.Err == nil {
			res.Err = &SourceError{Provider: name, Err: fmt.Errorf("no result")}
		}
	}
	return res
}

// build folds successful results (in priority order) into a metric forecast.
func (a *Aggregator) build(coords Coordinates, used []SourceResult) *UnifiedForecast {
	zone := referenceZone(coords, used)
	now := a.now().In(zone)

	currents := make([]*Observation, len(used))
	for i, r := range used {
		currents[i] = r.Current
	}
	cur := FuseObservations(now, currents)
	curCat := Categorize(ConditionsOf(cur))

	slotTimes := HourlySlotTimes(now, a.plan.HourlyStep, a.plan.HourlySlots)
	alignedHourly := make([][]*Observation, len(used))
	for i, r := range used {
		alignedHourly[i] = AlignHourly(r.Hourly, slotTimes, a.plan.HourlyTolerance)
	}
	hourly := make([]HourlySlot, len(slotTimes))
	for s, at := range slotTimes {
		contribs := make([]*Observation, len(used))
		for i := range used {
			contribs[i] = alignedHourly[i][s]
		}
		obs := FuseObservations(at, contribs)
		cat := Categorize(ConditionsOf(obs))
		hourly[s] = HourlySlot{Observation: obs, Category: cat, Label: cat.Label(), Sources: countContributors(contribs)}
	}

	days := DailySlotDates(DateOf(now), a.plan.DailySlots)
	alignedDaily := make([][]*DailyObservation, len(used))
	for i, r := range used {
		alignedDaily[i] = AlignDaily(dailySeries(r, zone), days)
	}
	daily := make([]DailySlot, len(days))
	for s, day := range days {
		contribs := make([]*DailyObservation, len(used))
		for i := range used {
			contribs[i] = alignedDaily[i][s]
		}
		d := FuseDaily(day, contribs)
		cat := Categorize(DailyConditionsOf(d))
		daily[s] = DailySlot{DailyObservation: d, Category: cat, Label: cat.Label(), Sources: countContributors(contribs)}
	}

	var sun Sun
	if len(daily) > 0 {
		sun = Sun{Sunrise: daily[0].Sunrise, Sunset: daily[0].Sunset}
	}

	return &UnifiedForecast{
		Place: coords,
		Current: CurrentConditions{
			Observation: cur,
			Category:    curCat,
			Label:       curCat.Label(),
			Sources:     countContributors(currents),
		},
		Sun:      sun,
		Hourly:   hourly,
		Daily:    daily,
		Category: curCat,
		Label:    curCat.Label(),
	}
}

// referenceZone is the first zone reported in priority order, else one derived
// from longitude.
func referenceZone(coords Coordinates, used []SourceResult) *time.Location {
	for _, r := range used {
		if r.Zone != nil {
			return r.Zone
		}
	}
	return coords.NauticalZone()
}

func meta(passID string, results []SourceResult, now time.Time) Meta {
	m := Meta{
		PassID:           passID,
		SourcesAttempted: make([]string, 0, len(results)),
		SourcesUsed:      make([]string, 0, len(results)),
		GeneratedAt:      now.UTC(),
	}
	for _, r := range results {
		m.SourcesAttempted = append(m.SourcesAttempted, r.Provider)
		if r.OK() {
			m.SourcesUsed = append(m.SourcesUsed, r.Provider)
			continue
		}
		if m.Failures == nil {
			m.Failures = make(map[string]string)
		}
		m.Failures[r.Provider] = r.Err.Error()
	}
	return m
}
