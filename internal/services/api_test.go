package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/storysounds/internal/shared"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
		target error
		want   bool
	}{
		{http.StatusTooManyRequests, shared.ErrRateLimited, true},
		{http.StatusTooManyRequests, shared.ErrProviderUnavailable, false},
		{http.StatusBadGateway, shared.ErrProviderUnavailable, true},
		{http.StatusUnauthorized, shared.ErrAuthFailed, true},
		{http.StatusForbidden, shared.ErrAuthFailed, true},
		{http.StatusBadRequest, shared.ErrAPIRequest, true},
		{http.StatusBadRequest, shared.ErrRateLimited, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var err error = &StatusError{Service: "test", StatusCode: tt.status}
			if got := errors.Is(err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%d, %v) = %v, want %v", tt.status, tt.target, got, tt.want)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	if got := parseRetryAfter("3", now); got != 3*time.Second {
		t.Errorf("expected 3s, got %v", got)
	}
	if got := parseRetryAfter(now.Add(10*time.Second).Format(http.TimeFormat), now); got != 10*time.Second {
		t.Errorf("expected 10s from HTTP date, got %v", got)
	}
	if got := parseRetryAfter("soon", now); got != 0 {
		t.Errorf("expected 0 for garbage, got %v", got)
	}
	if got := parseRetryAfter("", now); got != 0 {
		t.Errorf("expected 0 for empty, got %v", got)
	}
}

func TestAPIClient(t *testing.T) {
	t.Run("retries rate limited request", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		a := newAPIClient("test", srv.URL, WithRetries(3, time.Millisecond))
		var out struct{ OK bool }
		if err := a.getJSON(context.Background(), "/", nil, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.OK || calls.Load() != 2 {
			t.Errorf("expected success on second attempt, got ok=%v calls=%d", out.OK, calls.Load())
		}
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "bad query", http.StatusBadRequest)
		}))
		defer srv.Close()

		a := newAPIClient("test", srv.URL, WithRetries(3, time.Millisecond))
		err := a.getJSON(context.Background(), "/", nil, nil)

		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 StatusError, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected a single attempt, got %d", calls.Load())
		}
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		a := newAPIClient("test", srv.URL, WithRetries(2, time.Millisecond))
		err := a.getJSON(context.Background(), "/", nil, nil)
		if !errors.Is(err, shared.ErrProviderUnavailable) {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 attempts, got %d", calls.Load())
		}
	})

	t.Run("breaker opens", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		settings := BreakerSettings{MinRequests: 2, FailureRatio: 0.5, Interval: time.Minute, Timeout: time.Minute, MaxRequests: 1}
		a := newAPIClient("test-breaker", srv.URL, WithRetries(1, time.Millisecond), WithBreakerSettings(settings))

		for range 2 {
			_ = a.getJSON(context.Background(), "/", nil, nil)
		}
		err := a.getJSON(context.Background(), "/", nil, nil)

		if !errors.Is(err, shared.ErrProviderUnavailable) {
			t.Errorf("expected open circuit to report ErrProviderUnavailable, got %v", err)
		}
		if calls.Load() != 2 {
			t.Errorf("open circuit should not reach the server, got %d calls", calls.Load())
		}
	})

	t.Run("malformed body is parse failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		a := newAPIClient("test", srv.URL)
		var out map[string]any
		if err := a.getJSON(context.Background(), "/", nil, &out); !errors.Is(err, shared.ErrParseFailure) {
			t.Errorf("expected ErrParseFailure, got %v", err)
		}
	})

	t.Run("honours cancellation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		a := newAPIClient("test", srv.URL)
		if err := a.getJSON(ctx, "/", nil, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
