// Spotify Web API catalog search.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/search
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
)

const maxSpotifyLimit = 50

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a simplified album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	PreviewURL   *string         `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
	Popularity   int             `json:"popularity"`
	URI          string          `json:"uri"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// Candidate converts the API track to the pipeline's catalog model.
func (t SpotifyTrack) Candidate() models.CandidateTrack {
	c := models.CandidateTrack{
		ID:          t.ID,
		Name:        t.Name,
		ExternalURL: t.ExternalURLs.Spotify,
		Popularity:  t.Popularity,
		URI:         t.URI,
		Album:       models.Album{ID: t.Album.ID, Name: t.Album.Name},
	}
	if t.PreviewURL != nil {
		c.PreviewURL = *t.PreviewURL
	}
	for _, a := range t.Artists {
		c.Artists = append(c.Artists, models.Artist{ID: a.ID, Name: a.Name})
	}
	for _, img := range t.Album.Images {
		c.Album.Images = append(c.Album.Images, models.Image{URL: img.URL, Width: img.Width, Height: img.Height})
	}
	return c
}

// SpotifyCatalog implements [Catalog] with the client-credentials flow.
type SpotifyCatalog struct {
	api    *apiClient
	tokens *TokenCache
	market string
}

// NewSpotifyCatalog creates a catalog client. Pacing and retry count come from cfg unless overridden by opts.
func NewSpotifyCatalog(cfg shared.SpotifyConfig, tokens *TokenCache, opts ...Option) (*SpotifyCatalog, error) {
	if tokens == nil {
		if cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
		}
		tokens = NewTokenCache(NewClientCredentials(cfg))
	}

	base := []Option{WithRateLimit(cfg.RequestsPerSecond)}
	if cfg.MaxRetries > 0 {
		base = append(base, WithRetries(cfg.MaxRetries, 0))
	}

	s := &SpotifyCatalog{
		api:    newAPIClient(providerSpotify, cfg.BaseURL, append(base, opts...)...),
		tokens: tokens,
		market: cfg.Market,
	}
	s.api.authorize = s.bearer
	return s, nil
}

func (s *SpotifyCatalog) bearer(ctx context.Context, req *http.Request) error {
	tok, err := s.tokens.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return nil
}

// Authorize fetches (or reuses) the catalog token.
func (s *SpotifyCatalog) Authorize(ctx context.Context) error {
	_, err := s.tokens.Token(ctx)
	return err
}

// Search runs a track search. A 401 drops the cached token and retries once.
func (s *SpotifyCatalog) Search(ctx context.Context, query string, limit int) ([]models.CandidateTrack, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}
	limit = min(max(limit, 1), maxSpotifyLimit)

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))
	if s.market != "" {
		params.Set("market", s.market)
	}

	var resp spotifySearchResponse
	err := s.api.getJSON(ctx, "/search", params, &resp)

	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
		s.tokens.Invalidate()
		err = s.api.getJSON(ctx, "/search", params, &resp)
	}
	if err != nil {
		return nil, err
	}

	tracks := make([]models.CandidateTrack, 0, len(resp.Tracks.Items))
	for _, item := range resp.Tracks.Items {
		if item.ID == "" {
			continue
		}
		tracks = append(tracks, item.Candidate())
	}
	return tracks, nil
}
