package tasks

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/storysounds/internal/matching"
	"github.com/desertthunder/storysounds/internal/models"
)

func TestBatchResolver(t *testing.T) {
	t.Run("seventh of fifteen panics", func(t *testing.T) {
		recs := numberedRecs(15)
		catalog := stockCatalog(recs)
		q := matching.NormalizeQuery(recs[6])
		catalog.Panics[q.Artist+" "+q.Song] = true

		batch := NewBatchResolver(newResolver(catalog), 0, quietLogger())
		tracks, stats := batch.ResolveAll(context.Background(), recs, "", nil)

		if len(tracks) != 14 {
			t.Fatalf("expected 14 tracks, got %d", len(tracks))
		}
		if stats.Total != 15 || stats.Succeeded != 14 || stats.Failed != 1 || len(stats.Failures) != 1 {
			t.Errorf("unexpected stats %+v", stats)
		}
		if stats.Failures[0].Recommendation != recs[6] || !strings.Contains(stats.Failures[0].Reason, "panicked") {
			t.Errorf("unexpected failure %+v", stats.Failures[0])
		}
		if stats.ByMethod[models.SearchCombined] != 14 {
			t.Errorf("expected 14 combined resolutions, got %v", stats.ByMethod)
		}

		want := 0
		for i, tr := range tracks {
			if want == 6 {
				want++
			}
			if tr.Recommendation != recs[want] {
				t.Errorf("track %d out of order: got %v want %v", i, tr.Recommendation, recs[want])
			}
			want++
		}
	})

	t.Run("unresolved counted as failure", func(t *testing.T) {
		recs := numberedRecs(3)
		catalog := stockCatalog(recs[:2])

		_, stats := NewBatchResolver(newResolver(catalog), 0, quietLogger()).ResolveAll(context.Background(), recs, "", nil)
		if stats.Succeeded != 2 || stats.Failed != 1 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("concurrency limit", func(t *testing.T) {
		r := &gateResolver{delay: 5 * time.Millisecond}
		recs := numberedRecs(12)

		tracks, _ := NewBatchResolver(r, 3, quietLogger()).ResolveAll(context.Background(), recs, "", nil)
		if len(tracks) != 12 {
			t.Fatalf("expected 12 tracks, got %d", len(tracks))
		}
		if peak := r.peak.Load(); peak > 3 {
			t.Errorf("expected at most 3 in flight, saw %d", peak)
		}
	})

	t.Run("Progress", func(t *testing.T) {
		recs := numberedRecs(4)
		progress := make(chan ProgressUpdate, 10)

		NewBatchResolver(newResolver(stockCatalog(recs)), 0, quietLogger()).ResolveAll(context.Background(), recs, "", progress)
		close(progress)

		var n int
		for u := range progress {
			if u.Phase != Resolve {
				t.Errorf("unexpected phase %v", u.Phase)
			}
			n++
		}
		if n != 5 {
			t.Errorf("expected start + 4 updates, got %d", n)
		}
	})
}

type gateResolver struct {
	delay    time.Duration
	mu       sync.Mutex
	inFlight int32
	peak     atomic.Int32
}

func (g *gateResolver) Resolve(ctx context.Context, rec models.Recommendation, intent string) models.ResolvedTrack {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.peak.Load() {
		g.peak.Store(g.inFlight)
	}
	g.mu.Unlock()

	time.Sleep(g.delay)

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()

	return models.ResolvedTrack{
		CandidateTrack: models.CandidateTrack{ID: rec.Song, Name: rec.Song},
		Recommendation: rec,
		SearchMethod:   models.SearchCombined,
		SearchSuccess:  true,
	}
}
