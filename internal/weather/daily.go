package weather

import (
	"sort"
	"time"
)

// DailyDerivation marks a source whose daily summaries come from its own
// sub-daily series. Each sample covers SampleHours; a precipitation total is
// only reported for days with at least FullDay precipitation samples.
type DailyDerivation struct {
	SampleHours float64
	FullDay     int
}

// SummarizeDays groups series by calendar day in loc and derives one summary
// per day: min/max temperature, max wind, probability and UV, the precipitation
// total, and the condition of the sample nearest local noon. A partially
// covered day is never under-reported as dry.
func SummarizeDays(series []Observation, loc *time.Location, d DailyDerivation) []DailyObservation {
	type acc struct {
		day         DailyObservation
		precipSum   float64
		precipCount int
		condDist    time.Duration
	}

	byDate := make(map[Date]*acc)
	for _, o := range SortSeries(series) {
		local := o.Time.In(loc)
		date := DateOf(local)
		a, ok := byDate[date]
		if !ok {
			a = &acc{day: DailyObservation{Date: date}}
			byDate[date] = a
		}

		a.day.Min = minOf(a.day.Min, o.Temp)
		a.day.Max = maxOf(a.day.Max, o.Temp)
		a.day.Wind = maxOf(a.day.Wind, o.Wind)
		a.day.PrecipProb = maxOf(a.day.PrecipProb, o.PrecipProb)
		a.day.UVIndex = maxOf(a.day.UVIndex, o.UVIndex)

		if o.Precip != nil {
			a.precipSum += *o.Precip * d.SampleHours
			a.precipCount++
		}

		if o.Condition != nil {
			noon := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)
			dist := absDuration(local.Sub(noon))
			if a.day.Condition == nil || dist < a.condDist {
				c := *o.Condition
				a.day.Condition = &c
				a.condDist = dist
			}
		}
	}

	days := make([]DailyObservation, 0, len(byDate))
	for _, a := range byDate {
		if a.precipCount >= d.FullDay {
			total := a.precipSum
			a.day.Precip = &total
		}
		days = append(days, a.day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// dailySeries returns r's daily summaries in the reference zone. Derived
// summaries replace provided ones, keeping any sunrise/sunset the provider
// reported for the same date.
func dailySeries(r SourceResult, zone *time.Location) []DailyObservation {
	if r.DeriveDaily == nil {
		return r.Daily
	}

	derived := SummarizeDays(r.Hourly, zone, *r.DeriveDaily)
	for _, provided := range r.Daily {
		for i := range derived {
			if derived[i].Date != provided.Date {
				continue
			}
			if derived[i].Sunrise == nil {
				derived[i].Sunrise = provided.Sunrise
			}
			if derived[i].Sunset == nil {
				derived[i].Sunset = provided.Sunset
			}
		}
	}
	return derived
}

func minOf(cur, v *float64) *float64 {
	if v == nil {
		return cur
	}
	if cur == nil || *v < *cur {
		x := *v
		return &x
	}
	return cur
}

func maxOf(cur, v *float64) *float64 {
	if v == nil {
		return cur
	}
	if cur == nil || *v > *cur {
		x := *v
		return &x
	}
	return cur
}
