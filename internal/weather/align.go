package weather

import (
	"sort"
	"time"
)

// Plan fixes the shape of the output timeline. Slots are generated from the
// plan alone and exist whether or not any provider covers them.
type Plan struct {
	HourlyStep      time.Duration
	HourlySlots     int
	HourlyTolerance time.Duration
	DailySlots      int
}

// DefaultPlan is every 3 hours for the next 24h, plus 7 days.
func DefaultPlan() Plan {
	return Plan{
		HourlyStep:      3 * time.Hour,
		HourlySlots:     8,
		HourlyTolerance: 30 * time.Minute,
		DailySlots:      7,
	}
}

// HourlySlotTimes returns count slots at now's wall-clock hour + k*step, k = 1..count.
func HourlySlotTimes(now time.Time, step time.Duration, count int) []time.Time {
	base := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	slots := make([]time.Time, 0, count)
	for k := 1; k <= count; k++ {
		slots = append(slots, base.Add(time.Duration(k)*step))
	}
	return slots
}

// DailySlotDates returns count consecutive dates starting at today.
func DailySlotDates(today Date, count int) []Date {
	days := make([]Date, 0, count)
	for k := 0; k < count; k++ {
		days = append(days, today.AddDays(k))
	}
	return days
}

// SortSeries returns a copy of series ordered by time with duplicate timestamps
// dropped (the first occurrence wins), so the result is strictly ascending.
func SortSeries(series []Observation) []Observation {
	out := make([]Observation, len(series))
	copy(out, series)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	dedup := out[:0]
	for i, o := range out {
		if i > 0 && o.Time.Equal(dedup[len(dedup)-1].Time) {
			continue
		}
		dedup = append(dedup, o)
	}
	return dedup
}

// SortDaily is SortSeries for daily summaries.
func SortDaily(series []DailyObservation) []DailyObservation {
	out := make([]DailyObservation, len(series))
	copy(out, series)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	dedup := out[:0]
	for i, d := range out {
		if i > 0 && d.Date == dedup[len(dedup)-1].Date {
			continue
		}
		dedup = append(dedup, d)
	}
	return dedup
}

// AlignHourly picks, for each slot, the sample of series nearest to it within
// tol. A slot with no sample in range gets nil. Equidistant samples resolve to
// the earlier one.
func AlignHourly(series []Observation, slots []time.Time, tol time.Duration) []*Observation {
	sorted := SortSeries(series)
	out := make([]*Observation, len(slots))

	for i, slot := range slots {
		j := sort.Search(len(sorted), func(k int) bool { return !sorted[k].Time.Before(slot) })

		best := -1
		var bestDist time.Duration
		for _, k := range [2]int{j - 1, j} {
			if k < 0 || k >= len(sorted) {
				continue
			}
			dist := absDuration(sorted[k].Time.Sub(slot))
			if dist > tol {
				continue
			}
			if best < 0 || dist < bestDist {
				best, bestDist = k, dist
			}
		}
		if best >= 0 {
			o := sorted[best]
			out[i] = &o
		}
	}
	return out
}

// AlignDaily matches daily summaries to slot dates by calendar day.
func AlignDaily(series []DailyObservation, days []Date) []*DailyObservation {
	byDate := make(map[Date]DailyObservation, len(series))
	for _, d := range SortDaily(series) {
		byDate[d.Date] = d
	}

	out := make([]*DailyObservation, len(days))
	for i, day := range days {
		if d, ok := byDate[day]; ok {
			out[i] = &d
		}
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
