package services

import (
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/storysounds/internal/shared"
)

// StatusError is a non-2xx provider response.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, shared.Truncate(e.Body, 200))
}

// Is maps the status code onto the shared sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case shared.ErrProviderUnavailable:
		return e.StatusCode >= http.StatusInternalServerError
	case shared.ErrAuthFailed:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
