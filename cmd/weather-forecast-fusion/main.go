package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weather-forecast-fusion/internal/api/http"
	"github.com/i474232898/weather-forecast-fusion/internal/config"
	"github.com/i474232898/weather-forecast-fusion/internal/metrics"
	"github.com/i474232898/weather-forecast-fusion/internal/scheduler"
	"github.com/i474232898/weather-forecast-fusion/internal/store"
	"github.com/i474232898/weather-forecast-fusion/internal/weather"
	"github.com/i474232898/weather-forecast-fusion/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	// Shared HTTP client for outbound provider calls. Per-provider deadlines
	// come from the aggregation context, this is only a backstop.
	httpClient := &http.Client{
		Timeout: 2 * cfg.ProviderTimeout,
	}

	httpCfg := providers.HTTPClientConfig{
		Client: httpClient,
		Backoff: providers.BackoffConfig{
			MaxRetries:      cfg.ProviderMaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}

	// Registration order is the text-field priority order.
	registry, err := weather.NewRegistry(
		providers.NewOpenMeteoProvider(httpCfg),
		providers.NewMetNoProvider(httpCfg, cfg.MetNoUserAgent),
		providers.NewWeatherAPIProvider(httpCfg, cfg.WeatherAPIKey),
		providers.NewOpenWeatherProvider(httpCfg, cfg.OpenWeatherAPIKey),
	)
	if err != nil {
		log.Error("failed to build provider registry", "error", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector("forecast_fusion", prometheus.DefaultRegisterer)

	aggregator := weather.NewAggregator(registry, cfg.ProviderTimeout,
		weather.WithPlan(cfg.Plan),
		weather.WithLogger(log),
		weather.WithRecorder(collector),
	)

	// Redis when configured, otherwise a bounded in-process cache.
	var cache weather.Cache
	if cfg.RedisAddr != "" {
		redisCache := store.NewRedisCache(store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
		})
		defer redisCache.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			log.Warn("redis not reachable at startup; cache errors will be ignored", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		cache = redisCache
	} else {
		cache = store.NewMemoryCache(cfg.CacheMaxEntries)
	}

	service := weather.NewService(aggregator, cache, cfg.CacheMaxAge, log, collector)

	// Scheduler that keeps configured locations warm and purges stale entries.
	sched := scheduler.New(cfg.WarmLocations, cfg.FetchInterval, 4*cfg.ProviderTimeout, service, log)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-forecast-fusion",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "weather-forecast-fusion",
			"providers": registry.Names(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, service, httpapi.CachePolicy{
		MaxAge:               cfg.CacheMaxAge,
		StaleWhileRevalidate: cfg.CacheStaleWhileRevalidate,
	}, collector)

	go func() {
		log.Info("listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}
