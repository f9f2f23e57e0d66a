package weather

import (
	"math"
	"sort"
	"time"
)

// Median returns the median of values, or nil when values is empty.
// Even counts average the two middle elements. The input is not modified.
func Median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	m := len(sorted) / 2
	var out float64
	if len(sorted)%2 == 1 {
		out = sorted[m]
	} else {
		out = (sorted[m-1] + sorted[m]) / 2
	}
	return &out
}

// medianOf collects the non-null, finite values of field across contributors
// and returns their median. Contributor order does not matter.
func medianOf[T any](contribs []*T, field func(*T) *float64) *float64 {
	values := make([]float64, 0, len(contribs))
	for _, c := range contribs {
		if c == nil {
			continue
		}
		v := field(c)
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		values = append(values, *v)
	}
	return Median(values)
}

// firstOf returns the first non-null value of field in contributor order.
// Contributors must be in provider priority order.
func firstOf[T any, V any](contribs []*T, field func(*T) *V) *V {
	for _, c := range contribs {
		if c == nil {
			continue
		}
		if v := field(c); v != nil {
			out := *v
			return &out
		}
	}
	return nil
}

func countContributors[T any](contribs []*T) int {
	n := 0
	for _, c := range contribs {
		if c != nil {
			n++
		}
	}
	return n
}

// FuseObservations merges one slot's contributions. contribs is indexed by
// provider priority; nil entries are providers that contributed nothing.
func FuseObservations(at time.Time, contribs []*Observation) Observation {
	return Observation{
		Time:       at,
		Temp:       medianOf(contribs, func(o *Observation) *float64 { return o.Temp }),
		FeelsLike:  medianOf(contribs, func(o *Observation) *float64 { return o.FeelsLike }),
		Wind:       medianOf(contribs, func(o *Observation) *float64 { return o.Wind }),
		Gust:       medianOf(contribs, func(o *Observation) *float64 { return o.Gust }),
		Humidity:   medianOf(contribs, func(o *Observation) *float64 { return o.Humidity }),
		Precip:     medianOf(contribs, func(o *Observation) *float64 { return o.Precip }),
		PrecipProb: medianOf(contribs, func(o *Observation) *float64 { return o.PrecipProb }),
		Visibility: medianOf(contribs, func(o *Observation) *float64 { return o.Visibility }),
		UVIndex:    medianOf(contribs, func(o *Observation) *float64 { return o.UVIndex }),
		Condition:  firstOf(contribs, func(o *Observation) *string { return o.Condition }),
	}
}

// FuseDaily merges one calendar day's contributions, indexed by provider priority.
func FuseDaily(date Date, contribs []*DailyObservation) DailyObservation {
	return DailyObservation{
		Date:       date,
		Min:        medianOf(contribs, func(d *DailyObservation) *float64 { return d.Min }),
		Max:        medianOf(contribs, func(d *DailyObservation) *float64 { return d.Max }),
		Precip:     medianOf(contribs, func(d *DailyObservation) *float64 { return d.Precip }),
		PrecipProb: medianOf(contribs, func(d *DailyObservation) *float64 { return d.PrecipProb }),
		Wind:       medianOf(contribs, func(d *DailyObservation) *float64 { return d.Wind }),
		UVIndex:    medianOf(contribs, func(d *DailyObservation) *float64 { return d.UVIndex }),
		Condition:  firstOf(contribs, func(d *DailyObservation) *string { return d.Condition }),
		Sunrise:    firstOf(contribs, func(d *DailyObservation) *time.Time { return d.Sunrise }),
		Sunset:     firstOf(contribs, func(d *DailyObservation) *time.Time { return d.Sunset }),
	}
}
