package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-forecast-fusion/internal/weather"
)

type stubService struct {
	err  error
	last weather.Request
}

func (s *stubService) Forecast(_ context.Context, req weather.Request) (*weather.UnifiedForecast, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &weather.UnifiedForecast{
		Place:      req.Coordinates,
		Units:      weather.LabelsFor(req.Units),
		Confidence: weather.ConfidenceHigh,
		Category:   weather.CategoryClear,
		Label:      weather.CategoryClear.Label(),
	}, nil
}

type stubRecorder struct {
	statuses []string
}

func (r *stubRecorder) RecordAPIRequest(_, _, status string, _ time.Duration) {
	r.statuses = append(r.statuses, status)
}

func newTestApp(svc ForecastService, rec RequestRecorder) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc, CachePolicy{MaxAge: 5 * time.Minute, StaleWhileRevalidate: 10 * time.Minute}, rec)
	return app
}

// TestForecastCoordinateValidation verifies that the forecast endpoint rejects
// missing, malformed and out-of-range coordinates before running a pass.
func TestForecastCoordinateValidation(t *testing.T) {
	svc := &stubService{}
	app := newTestApp(svc, nil)

	tests := []string{
		"/api/v1/forecast",
		"/api/v1/forecast?lat=52.5",
		"/api/v1/forecast?lat=abc&lon=13.4",
		"/api/v1/forecast?lat=91&lon=13.4",
		"/api/v1/forecast?lat=52.5&lon=-180.5",
		"/api/v1/forecast?lat=NaN&lon=13.4",
		"/api/v1/forecast?lat=52.5&lon=Inf",
	}

	for _, target := range tests {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", target, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestForecastSuccess(t *testing.T) {
	svc := &stubService{}
	rec := &stubRecorder{}
	app := newTestApp(svc, rec)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast?lat=52.52&lon=13.41&units=imperial", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	want := "public, max-age=300, s-maxage=300, stale-while-revalidate=600"
	if got := resp.Header.Get(fiber.HeaderCacheControl); got != want {
		t.Errorf("expected Cache-Control %q, got %q", want, got)
	}

	if svc.last.Coordinates != (weather.Coordinates{Lat: 52.52, Lon: 13.41}) || svc.last.Units != weather.UnitsImperial {
		t.Errorf("unexpected request passed to service: %+v", svc.last)
	}

	var body struct {
		Confidence string `json:"confidence"`
		Units      struct {
			Temperature string `json:"temperature"`
		} `json:"units"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Confidence != "high" || body.Units.Temperature != "°F" {
		t.Errorf("unexpected body %+v", body)
	}

	if len(rec.statuses) != 1 || rec.statuses[0] != "200" {
		t.Errorf("expected one recorded 200, got %v", rec.statuses)
	}
}

func TestForecastUnknownUnitsDefaultToMetric(t *testing.T) {
	svc := &stubService{}
	app := newTestApp(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast?lat=1&lon=2&units=kelvin", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if svc.last.Units != weather.UnitsMetric {
		t.Errorf("expected metric, got %s", svc.last.Units)
	}
}

func TestForecastErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"all sources failed", fmt.Errorf("pass: %w", weather.ErrAllSourcesFailed), http.StatusBadGateway},
		{"invalid input", weather.ErrInvalidInput, http.StatusBadRequest},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &stubRecorder{}
			app := newTestApp(&stubService{err: tt.err}, rec)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast?lat=1&lon=2", nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, resp.StatusCode)
			}
			if resp.Header.Get(fiber.HeaderCacheControl) != "" {
				t.Errorf("expected no Cache-Control on errors")
			}

			var body struct {
				Error   bool   `json:"error"`
				Message string `json:"message"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if !body.Error || body.Message == "" {
				t.Errorf("unexpected error body %+v", body)
			}
			if len(rec.statuses) != 1 || rec.statuses[0] != fmt.Sprint(tt.want) {
				t.Errorf("expected recorded status %d, got %v", tt.want, rec.statuses)
			}
		})
	}
}

func TestCachePolicyHeader(t *testing.T) {
	p := CachePolicy{MaxAge: 90 * time.Second, StaleWhileRevalidate: 0}
	if got := p.Header(); got != "public, max-age=90, s-maxage=90, stale-while-revalidate=0" {
		t.Errorf("unexpected header %q", got)
	}
}
