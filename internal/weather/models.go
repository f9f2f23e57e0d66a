package weather

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Coordinates identifies the point a forecast is computed for.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate rejects non-finite or out-of-range coordinates.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("%w: latitude and longitude must be finite numbers", ErrInvalidInput)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidInput, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidInput, c.Lon)
	}
	return nil
}

// Key returns a canonical key for indexing this point in caches, rounded to ~100m.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.3f,%.3f", c.Lat, c.Lon)
}

// NauticalZone approximates the local zone from longitude (15° per hour).
// It is only used when no provider reports the location's real offset.
func (c Coordinates) NauticalZone() *time.Location {
	hours := int(math.Round(c.Lon / 15))
	if hours == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", hours), hours*3600)
}

// Units is the caller's display preference. Computation always happens in metric.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits maps a query value to Units; anything but "imperial" is metric.
func ParseUnits(s string) Units {
	if strings.EqualFold(strings.TrimSpace(s), string(UnitsImperial)) {
		return UnitsImperial
	}
	return UnitsMetric
}

// Request is the core input of one aggregation pass.
type Request struct {
	Coordinates Coordinates
	Units       Units
}

// Observation is a provider-normalized reading in metric base units
// (°C, km/h, mm, %, km). A nil field means the value is unknown.
type Observation struct {
	Time       time.Time `json:"time"`
	Temp       *float64  `json:"temp"`
	FeelsLike  *float64  `json:"feelsLike"`
	Wind       *float64  `json:"wind"`
	Gust       *float64  `json:"gust"`
	Humidity   *float64  `json:"humidity"`
	Precip     *float64  `json:"precip"`
	PrecipProb *float64  `json:"precipProb"`
	Visibility *float64  `json:"visibility"`
	UVIndex    *float64  `json:"uvIndex"`
	Condition  *string   `json:"condition"`
}

// DailyObservation is a provider's summary for one calendar day.
// Wind is the day's maximum, Precip the total, PrecipProb the maximum.
type DailyObservation struct {
	Date       Date       `json:"date"`
	Min        *float64   `json:"min"`
	Max        *float64   `json:"max"`
	Precip     *float64   `json:"precip"`
	PrecipProb *float64   `json:"precipProb"`
	Wind       *float64   `json:"wind"`
	UVIndex    *float64   `json:"uvIndex"`
	Condition  *string    `json:"condition"`
	Sunrise    *time.Time `json:"sunrise"`
	Sunset     *time.Time `json:"sunset"`
}

// Date is a civil calendar date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SourceStatus reports whether an adapter produced usable data.
type SourceStatus string

const (
	StatusOK     SourceStatus = "ok"
	StatusFailed SourceStatus = "failed"
)

// SourceResult is the outcome of one adapter invocation within a single pass.
type SourceResult struct {
	Provider string
	Status   SourceStatus
	Current  *Observation
	Hourly   []Observation
	Daily    []DailyObservation

	// Zone is the location's zone as reported by the provider, if any.
	Zone *time.Location

	// DeriveDaily is set by sources without native daily data. The aggregator
	// then builds Daily from Hourly in the reference zone; Daily may still
	// carry sunrise/sunset entries.
	DeriveDaily *DailyDerivation

	Err      error
	Duration time.Duration
}

// OK reports whether the adapter succeeded.
func (r SourceResult) OK() bool {
	return r.Status == StatusOK
}

// Failed builds a failed result for provider wrapping err in a SourceError.
func Failed(provider string, err error) SourceResult {
	return SourceResult{
		Provider: provider,
		Status:   StatusFailed,
		Err:      &SourceError{Provider: provider, Err: err},
	}
}

// CurrentConditions is the fused "now" view.
type CurrentConditions struct {
	Observation
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Sources  int      `json:"sources"`
}

// HourlySlot is one fixed point of the hourly timeline.
type HourlySlot struct {
	Observation
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Sources  int      `json:"sources"`
}

// DailySlot is one calendar day of the daily timeline.
type DailySlot struct {
	DailyObservation
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Sources  int      `json:"sources"`
}

// Sun holds the fused sunrise and sunset for today.
type Sun struct {
	Sunrise *time.Time `json:"sunrise"`
	Sunset  *time.Time `json:"sunset"`
}

// Meta describes which sources took part in a pass.
type Meta struct {
	PassID           string            `json:"passId"`
	SourcesAttempted []string          `json:"sourcesAttempted"`
	SourcesUsed      []string          `json:"sourcesUsed"`
	Failures         map[string]string `json:"failures,omitempty"`
	GeneratedAt      time.Time         `json:"generatedAt"`
}

// UnifiedForecast is the single artifact produced by an aggregation pass.
type UnifiedForecast struct {
	Place       Coordinates       `json:"place"`
	Units       UnitLabels        `json:"units"`
	Current     CurrentConditions `json:"current"`
	Sun         Sun               `json:"sun"`
	Hourly      []HourlySlot      `json:"hourly"`
	Daily       []DailySlot       `json:"daily"`
	Category    Category          `json:"category"`
	Label       string            `json:"label"`
	Confidence  Confidence        `json:"confidence"`
	SourcesUsed int               `json:"sourcesUsed"`
	Meta        Meta              `json:"meta"`
}
