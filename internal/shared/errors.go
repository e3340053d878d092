package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed = fmt.Errorf("authentication failed")
	ErrTimeout    = fmt.Errorf("operation timed out")

	// Provider errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrProviderUnavailable = fmt.Errorf("provider unavailable")
	ErrRateLimited         = fmt.Errorf("rate limited")
	ErrParseFailure        = fmt.Errorf("unparseable provider response")

	// Pipeline outcomes
	ErrNoMatch       = fmt.Errorf("no relevant match found")
	ErrRunNotFound   = fmt.Errorf("playlist run not found")
	ErrEmptyFeedback = fmt.Errorf("feedback message is required")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
