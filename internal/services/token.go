package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultTokenMargin = 5 * time.Minute
	defaultTokenTTL    = time.Hour
)

// TokenFetcher obtains a fresh token. [clientcredentials.Config] satisfies it.
type TokenFetcher interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// TokenCache reuses a bearer token until margin before its advertised expiry.
//
// Concurrent callers that find the cache cold may both fetch; the last write wins.
type TokenCache struct {
	fetcher TokenFetcher
	margin  time.Duration
	now     func() time.Time
	logger  *log.Logger

	mu        sync.Mutex
	value     string
	expiresAt time.Time
}

// TokenOption configures a [TokenCache].
type TokenOption func(*TokenCache)

// WithClock replaces [time.Now].
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCache) { c.now = now }
}

// WithMargin sets how long before expiry a token is considered stale.
func WithMargin(d time.Duration) TokenOption {
	return func(c *TokenCache) { c.margin = d }
}

func WithTokenLogger(l *log.Logger) TokenOption {
	return func(c *TokenCache) { c.logger = l }
}

func NewTokenCache(fetcher TokenFetcher, opts ...TokenOption) *TokenCache {
	c := &TokenCache{fetcher: fetcher, margin: defaultTokenMargin, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	return c
}

// NewClientCredentials builds the Spotify client-credentials fetcher.
func NewClientCredentials(cfg shared.SpotifyConfig) *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
}

// Token returns the cached token or fetches a new one.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.value != "" && c.now().Before(c.expiresAt) {
		v := c.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	tok, err := c.fetcher.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: token fetch: %w", shared.ErrAuthFailed, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", shared.ErrAuthFailed)
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = c.now().Add(defaultTokenTTL)
	}

	c.mu.Lock()
	c.value = tok.AccessToken
	c.expiresAt = expiry.Add(-c.margin)
	c.mu.Unlock()

	c.logger.Debug("fetched catalog token", "expires", expiry)
	return tok.AccessToken, nil
}

// Invalidate drops the cached token so the next call refetches.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.value = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}
