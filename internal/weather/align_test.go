package weather

import (
	"testing"
	"time"
)

func TestHourlySlotTimes(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	now := time.Date(2024, 5, 10, 14, 37, 12, 0, loc)

	slots := HourlySlotTimes(now, 3*time.Hour, 8)
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}

	first := time.Date(2024, 5, 10, 17, 0, 0, 0, loc)
	last := time.Date(2024, 5, 11, 14, 0, 0, 0, loc)
	if !slots[0].Equal(first) {
		t.Errorf("expected first slot %v, got %v", first, slots[0])
	}
	if !slots[7].Equal(last) {
		t.Errorf("expected last slot %v, got %v", last, slots[7])
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].Sub(slots[i-1]) != 3*time.Hour {
			t.Errorf("slot %d not 3h after previous", i)
		}
	}
}

func TestDailySlotDates(t *testing.T) {
	days := DailySlotDates(Date{Year: 2024, Month: time.December, Day: 29}, 7)
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	want := Date{Year: 2025, Month: time.January, Day: 4}
	if days[6] != want {
		t.Errorf("expected last day %v, got %v", want, days[6])
	}
}

func TestAlignHourly(t *testing.T) {
	base := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	series := []Observation{
		{Time: at(20, 25), Temp: fp(3)},
		{Time: at(17, 10), Temp: fp(1)},
		{Time: at(19, 50), Temp: fp(2)},
		{Time: at(17, 10), Temp: fp(99)}, // duplicate timestamp, first wins
	}
	slots := []time.Time{at(17, 0), at(20, 0), at(23, 0)}

	got := AlignHourly(series, slots, 30*time.Minute)
	if len(got) != len(slots) {
		t.Fatalf("expected %d entries, got %d", len(slots), len(got))
	}
	if got[0] == nil || *got[0].Temp != 1 {
		t.Errorf("slot 17:00: expected temp 1, got %+v", got[0])
	}
	if got[1] == nil || *got[1].Temp != 2 {
		t.Errorf("slot 20:00: expected nearest sample 19:50, got %+v", got[1])
	}
	if got[2] != nil {
		t.Errorf("slot 23:00: expected no sample, got %+v", got[2])
	}
}

func TestAlignHourlyTieAndTolerance(t *testing.T) {
	slot := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	got := AlignHourly([]Observation{
		{Time: slot.Add(15 * time.Minute), Temp: fp(2)},
		{Time: slot.Add(-15 * time.Minute), Temp: fp(1)},
	}, []time.Time{slot}, 30*time.Minute)
	if got[0] == nil || *got[0].Temp != 1 {
		t.Errorf("expected the earlier sample on a tie, got %+v", got[0])
	}

	got = AlignHourly([]Observation{{Time: slot.Add(30 * time.Minute), Temp: fp(5)}}, []time.Time{slot}, 30*time.Minute)
	if got[0] == nil {
		t.Errorf("expected sample exactly at tolerance to match")
	}

	got = AlignHourly([]Observation{{Time: slot.Add(31 * time.Minute), Temp: fp(5)}}, []time.Time{slot}, 30*time.Minute)
	if got[0] != nil {
		t.Errorf("expected sample beyond tolerance to be ignored")
	}
}

func TestAlignHourlyAcrossZones(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	slot := time.Date(2024, 5, 10, 9, 0, 0, 0, loc)

	got := AlignHourly([]Observation{{Time: time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC), Temp: fp(7)}}, []time.Time{slot}, 0)
	if got[0] == nil || *got[0].Temp != 7 {
		t.Errorf("expected instant match regardless of zone, got %+v", got[0])
	}
}

func TestAlignDaily(t *testing.T) {
	d0 := Date{Year: 2024, Month: time.May, Day: 10}
	series := []DailyObservation{
		{Date: d0.AddDays(2), Max: fp(22)},
		{Date: d0, Max: fp(20)},
		{Date: d0.AddDays(-1), Max: fp(18)},
	}

	got := AlignDaily(series, DailySlotDates(d0, 3))
	if got[0] == nil || *got[0].Max != 20 {
		t.Errorf("day 0: expected max 20, got %+v", got[0])
	}
	if got[1] != nil {
		t.Errorf("day 1: expected no summary, got %+v", got[1])
	}
	if got[2] == nil || *got[2].Max != 22 {
		t.Errorf("day 2: expected max 22, got %+v", got[2])
	}
}

func TestDateJSON(t *testing.T) {
	d := Date{Year: 2024, Month: time.March, Day: 7}
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `"2024-03-07"` {
		t.Errorf("expected \"2024-03-07\", got %s", b)
	}

	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != d {
		t.Errorf("expected %v, got %v", d, back)
	}
}
