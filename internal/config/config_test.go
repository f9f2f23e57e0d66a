package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "PROVIDER_TIMEOUT", "PROVIDER_MAX_RETRIES", "HOURLY_STEP", "HOURLY_SLOTS",
		"HOURLY_TOLERANCE", "DAILY_SLOTS", "CACHE_MAX_AGE", "CACHE_STALE_WHILE_REVALIDATE",
		"CACHE_MAX_ENTRIES", "REDIS_ADDR", "REDIS_DB", "REDIS_TLS", "FETCH_INTERVAL", "WARM_LOCATIONS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.LogLevel)
	}
	if cfg.ProviderTimeout != 4*time.Second || cfg.ProviderMaxRetries != 0 {
		t.Errorf("unexpected provider settings %v/%d", cfg.ProviderTimeout, cfg.ProviderMaxRetries)
	}
	if cfg.Plan.HourlyStep != 3*time.Hour || cfg.Plan.HourlySlots != 8 || cfg.Plan.DailySlots != 7 {
		t.Errorf("unexpected plan %+v", cfg.Plan)
	}
	if cfg.CacheMaxAge != 5*time.Minute || cfg.CacheStaleWhileRevalidate != 10*time.Minute {
		t.Errorf("unexpected cache policy %v/%v", cfg.CacheMaxAge, cfg.CacheStaleWhileRevalidate)
	}
	if len(cfg.WarmLocations) != 0 {
		t.Errorf("expected no warm locations, got %v", cfg.WarmLocations)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PROVIDER_TIMEOUT", "2500ms")
	t.Setenv("HOURLY_SLOTS", "4")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("WARM_LOCATIONS", "52.52,13.41; 48.85,2.35")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.ProviderTimeout != 2500*time.Millisecond {
		t.Errorf("unexpected timeout %v", cfg.ProviderTimeout)
	}
	if cfg.Plan.HourlySlots != 4 {
		t.Errorf("expected 4 hourly slots, got %d", cfg.Plan.HourlySlots)
	}
	if !cfg.RedisTLS {
		t.Errorf("expected redis TLS enabled")
	}
	if len(cfg.WarmLocations) != 2 || cfg.WarmLocations[1].Lon != 2.35 {
		t.Errorf("unexpected warm locations %v", cfg.WarmLocations)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"PROVIDER_TIMEOUT":     "soon",
		"PROVIDER_MAX_RETRIES": "-1",
		"HOURLY_SLOTS":         "0",
		"LOG_LEVEL":            "loud",
		"REDIS_TLS":            "maybe",
		"WARM_LOCATIONS":       "95,10",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestParseLocations(t *testing.T) {
	locs, err := parseLocations(" ; 10,20 ;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 1 || locs[0].Lat != 10 || locs[0].Lon != 20 {
		t.Errorf("unexpected locations %v", locs)
	}

	for _, raw := range []string{"10", "x,1", "1,y"} {
		if _, err := parseLocations(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}
