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
	"golang.org/x/oauth2"
)

const spotifySearchBody = `{
  "tracks": {
    "total": 2,
    "items": [
      {
        "id": "0VjIjW4GlUZAMYd2vXMi3b",
        "name": "Blinding Lights",
        "artists": [{"id": "1Xyo4u8uXC1ZmMpatF05PJ", "name": "The Weeknd"}],
        "album": {"id": "4yP0hdKOZPNshxUOjY0cZj", "name": "After Hours", "images": [{"url": "https://i.scdn.co/image/large", "height": 640, "width": 640}]},
        "preview_url": null,
        "external_urls": {"spotify": "https://open.spotify.com/track/0VjIjW4GlUZAMYd2vXMi3b"},
        "popularity": 91,
        "uri": "spotify:track:0VjIjW4GlUZAMYd2vXMi3b"
      },
      {
        "id": "",
        "name": "Broken Item",
        "artists": []
      }
    ]
  }
}`

type staticFetcher struct{ calls atomic.Int32 }

func (f *staticFetcher) Token(context.Context) (*oauth2.Token, error) {
	f.calls.Add(1)
	return &oauth2.Token{AccessToken: "test-token", Expiry: time.Now().Add(time.Hour)}, nil
}

func newTestCatalog(t *testing.T, handler http.HandlerFunc) (*SpotifyCatalog, *staticFetcher) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	fetcher := &staticFetcher{}
	cfg := shared.SpotifyConfig{BaseURL: srv.URL, Market: "US"}
	catalog, err := NewSpotifyCatalog(cfg, NewTokenCache(fetcher), WithRetries(1, time.Millisecond))
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	return catalog, fetcher
}

func TestSpotifyCatalog(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		_, err := NewSpotifyCatalog(shared.SpotifyConfig{}, nil)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Search", func(t *testing.T) {
		catalog, _ := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("unexpected auth header %q", got)
			}
			q := r.URL.Query()
			if q.Get("q") != "The Weeknd Blinding Lights" || q.Get("type") != "track" || q.Get("limit") != "10" || q.Get("market") != "US" {
				t.Errorf("unexpected query %v", q)
			}
			_, _ = w.Write([]byte(spotifySearchBody))
		})

		tracks, err := catalog.Search(context.Background(), "The Weeknd Blinding Lights", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected items without an id to be skipped, got %d tracks", len(tracks))
		}

		tr := tracks[0]
		if tr.Name != "Blinding Lights" || tr.PrimaryArtist() != "The Weeknd" || tr.Popularity != 91 {
			t.Errorf("unexpected track %+v", tr)
		}
		if tr.PreviewURL != "" {
			t.Errorf("null preview_url should map to empty, got %q", tr.PreviewURL)
		}
		if tr.ImageURL() != "https://i.scdn.co/image/large" {
			t.Errorf("unexpected image %q", tr.ImageURL())
		}
		if tr.ExternalURL == "" || tr.Album.Name != "After Hours" {
			t.Errorf("expected album and external url, got %+v", tr)
		}
	})

	t.Run("clamps limit", func(t *testing.T) {
		catalog, _ := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "50" {
				t.Errorf("expected limit clamped to 50, got %s", got)
			}
			_, _ = w.Write([]byte(`{"tracks":{"items":[]}}`))
		})
		if _, err := catalog.Search(context.Background(), "The Weeknd", 200); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		catalog, _ := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("empty query should not reach the API")
		})
		if _, err := catalog.Search(context.Background(), "", 10); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unauthorized refreshes token once", func(t *testing.T) {
		var calls atomic.Int32
		catalog, fetcher := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(spotifySearchBody))
		})

		tracks, err := catalog.Search(context.Background(), "Blinding Lights", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 1 {
			t.Errorf("expected 1 track, got %d", len(tracks))
		}
		if fetcher.calls.Load() != 2 {
			t.Errorf("expected the token to be refetched, got %d fetches", fetcher.calls.Load())
		}
	})

	t.Run("server error", func(t *testing.T) {
		catalog, _ := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		if _, err := catalog.Search(context.Background(), "Blinding Lights", 10); !errors.Is(err, shared.ErrProviderUnavailable) {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("Authorize", func(t *testing.T) {
		catalog, fetcher := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {})
		if err := catalog.Authorize(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fetcher.calls.Load() != 1 {
			t.Errorf("expected one fetch, got %d", fetcher.calls.Load())
		}
	})
}
