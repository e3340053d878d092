package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/metrics"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings tunes the circuit breaker in front of a provider.
type BreakerSettings struct {
	MinRequests  uint32        // requests in the window before the ratio is considered
	FailureRatio float64       // trip when failures/requests reaches this
	Interval     time.Duration // closed-state counting window
	Timeout      time.Duration // open -> half-open delay
	MaxRequests  uint32        // probes allowed while half-open
}

// DefaultBreakerSettings opens after 60% failures over at least 10 requests and probes again after 30s.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:  10,
		FailureRatio: 0.6,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MaxRequests:  3,
	}
}

func newBreaker[T any](name string, s BreakerSettings, logger *log.Logger) *gobreaker.CircuitBreaker[T] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				logger.Warn("opening circuit", "breaker", name, "failures", counts.TotalFailures, "requests", counts.Requests)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: breakerSuccess,
	})
}

// breakerSuccess counts caller mistakes and cancellations as successes so they never trip the breaker.
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode < http.StatusInternalServerError && se.StatusCode != http.StatusTooManyRequests
	}
	return false
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
