package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-forecast-fusion/internal/weather"
)

var validate = validator.New()

// ForecastService is what the routes need from weather.Service.
type ForecastService interface {
	Forecast(ctx context.Context, req weather.Request) (*weather.UnifiedForecast, error)
}

// RequestRecorder records served requests. metrics.Collector implements it.
type RequestRecorder interface {
	RecordAPIRequest(endpoint, method, status string, d time.Duration)
}

// CachePolicy drives the Cache-Control header of successful forecasts.
type CachePolicy struct {
	MaxAge               time.Duration
	StaleWhileRevalidate time.Duration
}

// Header renders the Cache-Control value.
func (p CachePolicy) Header() string {
	maxAge := int(p.MaxAge.Seconds())
	return fmt.Sprintf("public, max-age=%d, s-maxage=%d, stale-while-revalidate=%d",
		maxAge, maxAge, int(p.StaleWhileRevalidate.Seconds()))
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. rec may be nil.
func RegisterRoutes(app *fiber.App, service ForecastService, policy CachePolicy, rec RequestRecorder) {
	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		start := time.Now()
		err := handleForecast(c, service, policy)
		if rec != nil {
			status := fiber.StatusOK
			var e *fiber.Error
			if errors.As(err, &e) {
				status = e.Code
			}
			rec.RecordAPIRequest("/api/v1/forecast", c.Method(), strconv.Itoa(status), time.Since(start))
		}
		return err
	})
}

func handleForecast(c *fiber.Ctx, service ForecastService, policy CachePolicy) error {
	q, err := parseForecastQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	forecast, err := service.Forecast(c.UserContext(), q.toRequest())
	if err != nil {
		switch {
		case errors.Is(err, weather.ErrInvalidInput):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, weather.ErrAllSourcesFailed):
			return fiber.NewError(fiber.StatusBadGateway, "all weather providers failed")
		default:
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build forecast")
		}
	}

	c.Set(fiber.HeaderCacheControl, policy.Header())
	return c.JSON(forecast)
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Lat   *float64 `validate:"required,gte=-90,lte=90"`
	Lon   *float64 `validate:"required,gte=-180,lte=180"`
	Units weather.Units
}

func (q forecastQuery) toRequest() weather.Request {
	return weather.Request{
		Coordinates: weather.Coordinates{Lat: *q.Lat, Lon: *q.Lon},
		Units:       q.Units,
	}
}

func parseForecastQuery(c *fiber.Ctx) (forecastQuery, error) {
	var q forecastQuery

	lat, err := parseCoordinate("lat", c.Query("lat"))
	if err != nil {
		return q, err
	}
	lon, err := parseCoordinate("lon", c.Query("lon"))
	if err != nil {
		return q, err
	}
	q.Lat, q.Lon = lat, lon
	q.Units = weather.ParseUnits(c.Query("units"))

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// parseCoordinate returns nil for a missing value so validation reports it as required.
func parseCoordinate(name, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q is not a number", name, raw)
	}
	return &v, nil
}
