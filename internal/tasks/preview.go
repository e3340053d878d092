package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/matching"
	"github.com/desertthunder/storysounds/internal/metrics"
	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/services"
	"github.com/desertthunder/storysounds/internal/shared"
	"golang.org/x/sync/errgroup"
)

// EnrichOptions controls preview backfilling.
type EnrichOptions struct {
	Concurrency     int           // tracks searched at once within a chunk
	ChunkDelay      time.Duration // pause between chunks
	MaxResults      int           // videos requested per track
	PreflightSong   string
	PreflightArtist string
}

// DefaultEnrichOptions mirrors the [pipeline] defaults.
func DefaultEnrichOptions() EnrichOptions {
	return EnrichOptions{
		Concurrency:     3,
		ChunkDelay:      500 * time.Millisecond,
		MaxResults:      15,
		PreflightSong:   "Blinding Lights",
		PreflightArtist: "The Weeknd",
	}
}

// EnrichError is a per-track enrichment failure.
type EnrichError struct {
	TrackID string
	Track   string
	Err     string
}

// EnrichStats summarises one [PreviewEnricher.Enrich] call.
type EnrichStats struct {
	Total      int
	Native     int // tracks that already had a catalog preview
	Attached   int
	Missing    int // searched, no video cleared the threshold
	Skipped    bool
	SkipReason string
	Errors     []EnrichError
}

// PreviewEnricher attaches a video preview to tracks that have no catalog preview.
type PreviewEnricher struct {
	videos services.VideoSearcher
	scorer *matching.VideoScorer
	opts   EnrichOptions
	sleep  func(ctx context.Context, d time.Duration) error
	logger *log.Logger
}

func NewPreviewEnricher(videos services.VideoSearcher, scorer *matching.VideoScorer, opts EnrichOptions, logger *log.Logger) *PreviewEnricher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxResults < 1 {
		opts.MaxResults = DefaultEnrichOptions().MaxResults
	}
	return &PreviewEnricher{
		videos: videos,
		scorer: scorer,
		opts:   opts,
		sleep:  sleepContext,
		logger: shared.WithLogger(logger, "component", "preview"),
	}
}

// Enrich returns one EnrichedTrack per input, in input order. Failures never abort other tracks.
func (p *PreviewEnricher) Enrich(ctx context.Context, tracks []models.ResolvedTrack, progress chan<- ProgressUpdate) ([]models.EnrichedTrack, EnrichStats) {
	out := make([]models.EnrichedTrack, len(tracks))
	stats := EnrichStats{Total: len(tracks)}

	var pending []int
	for i, t := range tracks {
		out[i] = models.EnrichedTrack{ResolvedTrack: t}
		if t.PreviewURL != "" {
			stats.Native++
			metrics.RecordPreview("native")
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return out, stats
	}

	if reason := p.preflight(ctx); reason != "" {
		stats.Skipped, stats.SkipReason = true, reason
		for range pending {
			metrics.RecordPreview("skipped")
		}
		p.logger.Warn("skipping video previews", "reason", reason)
		sendProgress(progress, enrichUpdate(0, len(pending), "Video previews unavailable: "+reason))
		return out, stats
	}

	var mu sync.Mutex
	done := 0
	for start := 0; start < len(pending); start += p.opts.Concurrency {
		if start > 0 {
			if err := p.sleep(ctx, p.opts.ChunkDelay); err != nil {
				break
			}
		}

		end := min(start+p.opts.Concurrency, len(pending))
		var g errgroup.Group
		for _, idx := range pending[start:end] {
			g.Go(func() error {
				preview, err := p.enrichOne(ctx, out[idx].ResolvedTrack)

				mu.Lock()
				defer mu.Unlock()
				done++
				switch {
				case err != nil:
					stats.Errors = append(stats.Errors, EnrichError{TrackID: out[idx].ID, Track: out[idx].Name, Err: err.Error()})
					metrics.RecordPreview("error")
				case preview != nil:
					out[idx].YouTubePreview = preview
					stats.Attached++
					metrics.RecordPreview("attached")
				default:
					stats.Missing++
					metrics.RecordPreview("none")
				}
				sendProgress(progress, enrichUpdate(done, len(pending), fmt.Sprintf("[%d/%d] %s", done, len(pending), out[idx].Name)))
				return nil
			})
		}
		_ = g.Wait()
	}

	p.logger.Info("previews enriched", "native", stats.Native, "attached", stats.Attached, "missing", stats.Missing, "errors", len(stats.Errors))
	return out, stats
}

// preflight returns a reason to skip enrichment, or "".
func (p *PreviewEnricher) preflight(ctx context.Context) string {
	if p.videos == nil {
		return "video search not configured"
	}
	target := matching.Target{Song: p.opts.PreflightSong, Artist: p.opts.PreflightArtist}
	videos, err := p.videos.Search(ctx, strings.TrimSpace(target.Song+" "+target.Artist), p.opts.MaxResults)
	if err != nil {
		return fmt.Sprintf("preflight search failed: %v", err)
	}
	if !p.scorer.AnyRelevant(videos, target) {
		return "preflight returned no relevant video"
	}
	return ""
}

func (p *PreviewEnricher) enrichOne(ctx context.Context, t models.ResolvedTrack) (preview *models.YouTubePreview, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("preview search panicked: %v", r)
		}
	}()

	target := matching.Target{Song: t.Name, Artist: t.PrimaryArtist()}
	videos, err := p.videos.Search(ctx, strings.TrimSpace(target.Song+" "+target.Artist), p.opts.MaxResults)
	if err != nil {
		return nil, err
	}
	best, ok := p.scorer.Best(videos, target)
	if !ok {
		return nil, nil
	}
	return models.NewYouTubePreview(best.Video, best.Score), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
