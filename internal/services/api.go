package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/metrics"
	"github.com/desertthunder/storysounds/internal/shared"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	maxRetryAfter     = 30 * time.Second
	maxResponseBytes  = 10 << 20
)

// Option configures a provider client.
type Option func(*apiClient)

// WithHTTPClient replaces [http.DefaultClient].
func WithHTTPClient(c *http.Client) Option {
	return func(a *apiClient) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithTimeout sets the per-request timeout. Values <= 0 keep the default of 10s.
func WithTimeout(d time.Duration) Option {
	return func(a *apiClient) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithRetries sets the number of attempts for retryable failures and the base backoff.
func WithRetries(attempts int, backoff time.Duration) Option {
	return func(a *apiClient) {
		a.maxRetries = attempts
		if backoff > 0 {
			a.backoff = backoff
		}
	}
}

// WithRateLimit paces requests to rps per second. Zero or less disables pacing.
func WithRateLimit(rps float64) Option {
	return func(a *apiClient) {
		if rps <= 0 {
			a.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		a.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

// WithBreakerSettings replaces [DefaultBreakerSettings].
func WithBreakerSettings(s BreakerSettings) Option {
	return func(a *apiClient) { a.breakerSettings = s }
}

func WithLogger(l *log.Logger) Option {
	return func(a *apiClient) {
		if l != nil {
			a.logger = l
		}
	}
}

// apiClient is the JSON transport shared by every provider client.
type apiClient struct {
	name            string
	baseURL         string
	httpClient      *http.Client
	limiter         *rate.Limiter
	breaker         *gobreaker.CircuitBreaker[[]byte]
	breakerSettings BreakerSettings
	timeout         time.Duration
	maxRetries      int
	backoff         time.Duration
	authorize       func(ctx context.Context, req *http.Request) error
	logger          *log.Logger
}

func newAPIClient(name, baseURL string, opts ...Option) *apiClient {
	a := &apiClient{
		name:            name,
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      http.DefaultClient,
		limiter:         rate.NewLimiter(rate.Inf, 1),
		breakerSettings: DefaultBreakerSettings(),
		timeout:         defaultTimeout,
		maxRetries:      defaultMaxRetries,
		backoff:         defaultBackoff,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = shared.WithLogger(a.logger, "provider", name)
	a.breaker = newBreaker[[]byte](name, a.breakerSettings, a.logger)
	return a
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

func (a *apiClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return a.send(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (a *apiClient) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: failed to encode request: %w", a.name, err)
	}
	return a.send(ctx, request{method: http.MethodPost, path: path, body: body, contentType: "application/json"}, out)
}

// postMultipart uploads one file plus form fields. The body is buffered so retries can resend it.
func (a *apiClient) postMultipart(ctx context.Context, path string, fields map[string]string, fileField, filename string, file io.Reader, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("%s: failed to write field %s: %w", a.name, k, err)
		}
	}
	part, err := w.CreateFormFile(fileField, filename)
	if err != nil {
		return fmt.Errorf("%s: failed to create form file: %w", a.name, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("%s: failed to read upload: %w", a.name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: failed to finish form: %w", a.name, err)
	}

	return a.send(ctx, request{method: http.MethodPost, path: path, body: buf.Bytes(), contentType: w.FormDataContentType()}, out)
}

// send runs a request through the breaker and retry loop and decodes the JSON body into out.
func (a *apiClient) send(ctx context.Context, r request, out any) error {
	start := time.Now()
	data, err := a.breaker.Execute(func() ([]byte, error) {
		return a.withRetry(ctx, r)
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.RecordProviderCall(a.name, "rejected", time.Since(start))
			return fmt.Errorf("%s: %w: %w", a.name, shared.ErrProviderUnavailable, err)
		case errors.Is(err, shared.ErrRateLimited):
			metrics.RecordProviderCall(a.name, "rate_limited", time.Since(start))
		default:
			metrics.RecordProviderCall(a.name, "error", time.Since(start))
		}
		return err
	}
	metrics.RecordProviderCall(a.name, "success", time.Since(start))

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w: %w", a.name, shared.ErrParseFailure, err)
	}
	return nil
}

func (a *apiClient) withRetry(ctx context.Context, r request) ([]byte, error) {
	attempts := max(1, a.maxRetries)
	for attempt := 0; ; attempt++ {
		data, err := a.once(ctx, r)
		if err == nil {
			return data, nil
		}

		wait, retry := a.shouldRetry(ctx, err)
		if !retry || attempt == attempts-1 {
			return nil, err
		}

		delay := a.backoff * time.Duration(1<<attempt)
		if wait > 0 {
			delay = wait
		}
		a.logger.Warn("retrying request", "path", r.path, "attempt", attempt+1, "attempts", attempts, "delay", delay, "err", err)

		if err := sleepContext(ctx, delay); err != nil {
			return nil, fmt.Errorf("%s: %w", a.name, err)
		}
	}
}

func (a *apiClient) shouldRetry(ctx context.Context, err error) (time.Duration, bool) {
	if ctx.Err() != nil {
		return 0, false
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.RetryAfter > maxRetryAfter {
			return 0, false
		}
		return se.RetryAfter, se.retryable()
	}
	return 0, errors.Is(err, shared.ErrProviderUnavailable)
}

func (a *apiClient) once(ctx context.Context, r request) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	u := a.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(reqCtx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", a.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if a.authorize != nil {
		if err := a.authorize(reqCtx, req); err != nil {
			return nil, err
		}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", a.name, ctx.Err())
		}
		return nil, fmt.Errorf("%s: %w: %w", a.name, shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to read response: %w", a.name, shared.ErrProviderUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Service:    a.name,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}
	return data, nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(v); err == nil {
		if until := when.Sub(now); until > 0 {
			return until
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
