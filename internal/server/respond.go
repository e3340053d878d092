package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/storysounds/internal/shared"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Success: false, Error: msg})
}

// statusFor maps pipeline and storage errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrEmptyFeedback),
		errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, shared.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, shared.ErrServiceUnavailable),
		errors.Is(err, shared.ErrProviderUnavailable),
		errors.Is(err, shared.ErrRateLimited):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrAuthFailed),
		errors.Is(err, shared.ErrMissingCredentials),
		errors.Is(err, shared.ErrParseFailure),
		errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage hides internal details behind a generic message for 500s.
func errorMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
