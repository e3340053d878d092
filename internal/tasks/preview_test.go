package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/storysounds/internal/matching"
	"github.com/desertthunder/storysounds/internal/models"
	th "github.com/desertthunder/storysounds/internal/testing"
)

const preflightQuery = "Blinding Lights The Weeknd"

func preflightVideos() []models.Video {
	return []models.Video{officialVideo("pf", models.Recommendation{Song: "Blinding Lights", Artist: "The Weeknd"})}
}

// resolvedFromRecs turns recommendations into resolved tracks named after them.
func resolvedFromRecs(recs []models.Recommendation) []models.ResolvedTrack {
	out := make([]models.ResolvedTrack, len(recs))
	for i, r := range recs {
		out[i] = models.ResolvedTrack{
			CandidateTrack: th.Track(strings.ReplaceAll(r.Song, " ", ""), r.Song, 50, r.Artist),
			Recommendation: r,
			SearchMethod:   models.SearchCombined,
			SearchSuccess:  true,
		}
	}
	return out
}

func newEnricher(videos *th.FakeVideoSearcher, concurrency int) *PreviewEnricher {
	opts := DefaultEnrichOptions()
	opts.Concurrency = concurrency
	opts.ChunkDelay = 0
	scorer := matching.NewVideoScorer(matching.DefaultThresholds(), matching.DefaultVideoWeights())
	return NewPreviewEnricher(videos, scorer, opts, quietLogger())
}

func TestPreviewEnricher(t *testing.T) {
	recs := numberedRecs(5)

	stockVideos := func() *th.FakeVideoSearcher {
		videos := th.NewFakeVideoSearcher()
		videos.Results[preflightQuery] = preflightVideos()
		for i, r := range recs {
			videos.Results[r.Song+" "+r.Artist] = []models.Video{
				{VideoID: "cover", Title: r.Song + " acoustic cover", ChannelTitle: "Bedroom Covers"},
				officialVideo(string(rune('a'+i)), r),
			}
		}
		return videos
	}

	t.Run("attaches best video in order", func(t *testing.T) {
		tracks := resolvedFromRecs(recs)
		out, stats := newEnricher(stockVideos(), 2).Enrich(context.Background(), tracks, nil)

		if len(out) != len(tracks) {
			t.Fatalf("expected %d tracks, got %d", len(tracks), len(out))
		}
		for i, tr := range out {
			if tr.ID != tracks[i].ID {
				t.Errorf("track %d out of order: %s", i, tr.ID)
			}
			if tr.YouTubePreview == nil || tr.YouTubePreview.VideoID != string(rune('a'+i)) {
				t.Errorf("track %d: expected official video, got %+v", i, tr.YouTubePreview)
				continue
			}
			if tr.YouTubePreview.EmbedURL != "https://www.youtube.com/embed/"+tr.YouTubePreview.VideoID {
				t.Errorf("unexpected embed url %s", tr.YouTubePreview.EmbedURL)
			}
		}
		if stats.Attached != 5 || stats.Skipped || len(stats.Errors) != 0 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("native previews pass through", func(t *testing.T) {
		tracks := resolvedFromRecs(recs[:2])
		for i := range tracks {
			tracks[i].PreviewURL = "https://p.scdn.co/mp3-preview/" + tracks[i].ID
		}
		videos := stockVideos()

		out, stats := newEnricher(videos, 3).Enrich(context.Background(), tracks, nil)
		if stats.Native != 2 || len(videos.Queries()) != 0 {
			t.Errorf("expected no video searches, got %v", videos.Queries())
		}
		for _, tr := range out {
			if tr.YouTubePreview != nil || !tr.HasPreview() {
				t.Errorf("unexpected track %+v", tr)
			}
		}
	})

	t.Run("broken provider skips everything", func(t *testing.T) {
		for name, videos := range map[string]*th.FakeVideoSearcher{
			"No Relevant Video": func() *th.FakeVideoSearcher {
				v := stockVideos()
				v.Results[preflightQuery] = []models.Video{{VideoID: "x", Title: "Cooking pasta", ChannelTitle: "Chef"}}
				return v
			}(),
			"Search Error": func() *th.FakeVideoSearcher {
				v := stockVideos()
				v.Err = errors.New("quotaExceeded")
				return v
			}(),
		} {
			t.Run(name, func(t *testing.T) {
				tracks := resolvedFromRecs(recs)
				out, stats := newEnricher(videos, 3).Enrich(context.Background(), tracks, nil)

				if !stats.Skipped || stats.SkipReason == "" {
					t.Errorf("expected skip, got %+v", stats)
				}
				for i, tr := range out {
					if tr.YouTubePreview != nil || tr.ResolvedTrack.ID != tracks[i].ID {
						t.Errorf("track %d was mutated: %+v", i, tr)
					}
				}
				if q := videos.Queries(); len(q) != 1 || q[0] != preflightQuery {
					t.Errorf("expected only the preflight query, got %v", q)
				}
			})
		}
	})

	t.Run("nil searcher skips", func(t *testing.T) {
		scorer := matching.NewVideoScorer(matching.DefaultThresholds(), matching.DefaultVideoWeights())
		out, stats := NewPreviewEnricher(nil, scorer, DefaultEnrichOptions(), quietLogger()).Enrich(context.Background(), resolvedFromRecs(recs[:1]), nil)
		if !stats.Skipped || len(out) != 1 {
			t.Errorf("unexpected result %+v", stats)
		}
	})

	t.Run("per track failures are recorded", func(t *testing.T) {
		videos := stockVideos()
		videos.Errors[recs[1].Song+" "+recs[1].Artist] = errors.New("backend error")
		videos.Results[recs[3].Song+" "+recs[3].Artist] = nil

		out, stats := newEnricher(videos, 2).Enrich(context.Background(), resolvedFromRecs(recs), nil)
		if stats.Attached != 3 || stats.Missing != 1 || len(stats.Errors) != 1 {
			t.Fatalf("unexpected stats %+v", stats)
		}
		if stats.Errors[0].Track != recs[1].Song || stats.Errors[0].Err != "backend error" {
			t.Errorf("unexpected error entry %+v", stats.Errors[0])
		}
		if out[1].YouTubePreview != nil || out[3].YouTubePreview != nil || out[4].YouTubePreview == nil {
			t.Errorf("unexpected previews %v %v %v", out[1].YouTubePreview, out[3].YouTubePreview, out[4].YouTubePreview)
		}
	})

	t.Run("sleeps between chunks", func(t *testing.T) {
		enricher := newEnricher(stockVideos(), 2)
		enricher.opts.ChunkDelay = time.Second

		var mu sync.Mutex
		var sleeps []time.Duration
		enricher.sleep = func(_ context.Context, d time.Duration) error {
			mu.Lock()
			defer mu.Unlock()
			sleeps = append(sleeps, d)
			return nil
		}

		_, stats := enricher.Enrich(context.Background(), resolvedFromRecs(recs), nil)
		if stats.Attached != 5 {
			t.Errorf("expected 5 attached, got %+v", stats)
		}
		if len(sleeps) != 2 || sleeps[0] != time.Second {
			t.Errorf("expected two 1s pauses for three chunks, got %v", sleeps)
		}
	})

	t.Run("cancelled between chunks", func(t *testing.T) {
		enricher := newEnricher(stockVideos(), 2)
		enricher.sleep = func(context.Context, time.Duration) error { return context.Canceled }

		out, stats := enricher.Enrich(context.Background(), resolvedFromRecs(recs), nil)
		if stats.Attached != 2 || len(out) != 5 {
			t.Errorf("expected only the first chunk, got %+v", stats)
		}
	})
}
