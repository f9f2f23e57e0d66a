package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/i474232898/weather-forecast-fusion/internal/weather"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCache(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	if got, err := c.Get(ctx, "forecast:missing"); got != nil || err != nil {
		t.Fatalf("expected clean miss, got %v, %v", got, err)
	}

	temp := 12.5
	in := &weather.UnifiedForecast{
		Place:      weather.Coordinates{Lat: 52.52, Lon: 13.41},
		Units:      weather.LabelsFor(weather.UnitsMetric),
		Confidence: weather.ConfidenceMedium,
		Current: weather.CurrentConditions{
			Observation: weather.Observation{Temp: &temp},
			Category:    weather.CategoryCold,
		},
		Daily: []weather.DailySlot{{DailyObservation: weather.DailyObservation{
			Date: weather.Date{Year: 2024, Month: time.May, Day: 10},
		}}},
	}

	if err := c.Set(ctx, "forecast:k", in, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.Get(ctx, "forecast:k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached forecast")
	}
	if got.Confidence != weather.ConfidenceMedium || got.Place != in.Place {
		t.Errorf("unexpected forecast %+v", got)
	}
	if got.Current.Temp == nil || *got.Current.Temp != temp {
		t.Errorf("expected temp %v, got %v", temp, got.Current.Temp)
	}
	if got.Current.Humidity != nil {
		t.Errorf("expected nil humidity to survive the round trip")
	}
	if got.Daily[0].Date != in.Daily[0].Date {
		t.Errorf("expected date %v, got %v", in.Daily[0].Date, got.Daily[0].Date)
	}

	mr.FastForward(2 * time.Minute)
	if got, _ := c.Get(ctx, "forecast:k"); got != nil {
		t.Errorf("expected key to expire")
	}
}

func TestRedisCacheDeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "forecast:old", &weather.UnifiedForecast{}, 0)
	now = now.Add(10 * time.Minute)
	_ = c.Set(ctx, "forecast:new", &weather.UnifiedForecast{}, 0)

	if err := c.DeleteOlderThan(ctx, 5*time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mr.Exists("forecast:old") {
		t.Errorf("expected old key to be deleted")
	}
	if !mr.Exists("forecast:new") {
		t.Errorf("expected new key to be kept")
	}
	members, err := mr.ZMembers(timestampsKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 1 || members[0] != "forecast:new" {
		t.Errorf("unexpected timestamp index %v", members)
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	c := NewRedisCache(RedisConfig{Addr: "127.0.0.1:1"})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := c.Get(ctx, "forecast:k"); err == nil {
		t.Errorf("expected an error from an unreachable server")
	}
}
