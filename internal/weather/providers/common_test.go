package providers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testHTTPConfig() HTTPClientConfig {
	return HTTPClientConfig{Client: &http.Client{Timeout: 2 * time.Second}}
}

func approx(got *float64, want float64) bool {
	return got != nil && math.Abs(*got-want) < 1e-6
}

func sp(s string) *string { return &s }

func getRequest(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestDoRequestWithResilienceRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testHTTPConfig()
	cfg.Backoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

	resp, err := doRequestWithResilience(context.Background(), cfg, newBreaker("test"), getRequest(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if hits.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", hits.Load())
	}
}

func TestDoRequestWithResilienceSingleAttemptByDefault(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := doRequestWithResilience(context.Background(), testHTTPConfig(), newBreaker("test"), getRequest(srv.URL))
	if !errors.Is(err, errServerError) {
		t.Fatalf("expected errServerError, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", hits.Load())
	}
}

func TestDoRequestWithResilienceStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, errRateLimited},
		{http.StatusNotFound, errUnexpected},
		{http.StatusBadGateway, errServerError},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		_, err := doRequestWithResilience(context.Background(), testHTTPConfig(), newBreaker("test"), getRequest(srv.URL))
		srv.Close()
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
		}
	}
}

func TestDoRequestWithResilienceConfigErrors(t *testing.T) {
	_, err := doRequestWithResilience(context.Background(), HTTPClientConfig{}, newBreaker("test"), getRequest("http://example.invalid"))
	if !errors.Is(err, errNoHTTPClient) {
		t.Errorf("expected errNoHTTPClient, got %v", err)
	}

	cfg := testHTTPConfig()
	cfg.Backoff.MaxRetries = 1
	_, err = doRequestWithResilience(context.Background(), cfg, newBreaker("test"), getRequest("http://example.invalid"))
	if !errors.Is(err, errInvalidConfig) {
		t.Errorf("expected errInvalidConfig, got %v", err)
	}
}

func TestFetchJSONMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	var out map[string]any
	err := fetchJSON(context.Background(), testHTTPConfig(), newBreaker("test"), getRequest(srv.URL), &out)
	if !errors.Is(err, errMalformed) {
		t.Errorf("expected errMalformed, got %v", err)
	}
}
