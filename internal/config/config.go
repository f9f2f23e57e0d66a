package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-forecast-fusion/internal/weather"
)

type AppConfig struct {
	Port     string
	LogLevel slog.Level

	// Optional provider credentials; an empty key disables that provider.
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	MetNoUserAgent    string

	// ProviderTimeout bounds each provider call independently.
	ProviderTimeout    time.Duration
	ProviderMaxRetries int

	Plan weather.Plan

	// Response cache and Cache-Control policy.
	CacheMaxAge               time.Duration
	CacheStaleWhileRevalidate time.Duration
	CacheMaxEntries           int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	// WarmLocations are refreshed every FetchInterval.
	WarmLocations []weather.Coordinates
	FetchInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	level, err := parseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.MetNoUserAgent = os.Getenv("METNO_USER_AGENT")

	if cfg.ProviderTimeout, err = getenvDuration("PROVIDER_TIMEOUT", 4*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProviderMaxRetries, err = getenvInt("PROVIDER_MAX_RETRIES", 0); err != nil {
		return nil, err
	}
	if cfg.ProviderMaxRetries < 0 {
		return nil, fmt.Errorf("invalid PROVIDER_MAX_RETRIES: must not be negative")
	}

	plan := weather.DefaultPlan()
	if plan.HourlyStep, err = getenvDuration("HOURLY_STEP", plan.HourlyStep); err != nil {
		return nil, err
	}
	if plan.HourlySlots, err = getenvInt("HOURLY_SLOTS", plan.HourlySlots); err != nil {
		return nil, err
	}
	if plan.HourlyTolerance, err = getenvDuration("HOURLY_TOLERANCE", plan.HourlyTolerance); err != nil {
		return nil, err
	}
	if plan.DailySlots, err = getenvInt("DAILY_SLOTS", plan.DailySlots); err != nil {
		return nil, err
	}
	if plan.HourlyStep <= 0 || plan.HourlySlots <= 0 || plan.DailySlots <= 0 || plan.HourlyTolerance < 0 {
		return nil, fmt.Errorf("invalid slot plan: step, slots and days must be positive")
	}
	cfg.Plan = plan

	if cfg.CacheMaxAge, err = getenvDuration("CACHE_MAX_AGE", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CacheStaleWhileRevalidate, err = getenvDuration("CACHE_STALE_WHILE_REVALIDATE", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CacheMaxEntries, err = getenvInt("CACHE_MAX_ENTRIES", 1024); err != nil {
		return nil, err
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = getenvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RedisTLS, err = getenvBool("REDIS_TLS", false); err != nil {
		return nil, err
	}

	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.WarmLocations, err = parseLocations(os.Getenv("WARM_LOCATIONS")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseLocations reads "lat,lon;lat,lon".
func parseLocations(raw string) ([]weather.Coordinates, error) {
	var locs []weather.Coordinates
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		latStr, lonStr, ok := strings.Cut(part, ",")
		if !ok {
			return nil, fmt.Errorf("invalid WARM_LOCATIONS entry %q: want lat,lon", part)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid WARM_LOCATIONS latitude %q: %w", latStr, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid WARM_LOCATIONS longitude %q: %w", lonStr, err)
		}
		c := weather.Coordinates{Lat: lat, Lon: lon}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid WARM_LOCATIONS entry %q: %w", part, err)
		}
		locs = append(locs, c)
	}
	return locs, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
