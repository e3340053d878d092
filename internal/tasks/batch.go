package tasks

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Failure is a recommendation that could not be resolved.
type Failure struct {
	Recommendation models.Recommendation
	Reason         string
}

// BatchStats summarises one [BatchResolver.ResolveAll] call.
type BatchStats struct {
	Total     int
	Succeeded int
	Failed    int
	ByMethod  map[models.SearchMethod]int
	Failures  []Failure
}

// BatchResolver resolves recommendations concurrently. Every branch settles independently.
type BatchResolver struct {
	resolver Resolver
	limit    int
	logger   *log.Logger
}

// NewBatchResolver bounds in-flight resolutions to limit. Zero or less means unbounded.
func NewBatchResolver(resolver Resolver, limit int, logger *log.Logger) *BatchResolver {
	return &BatchResolver{resolver: resolver, limit: limit, logger: shared.WithLogger(logger, "component", "batch")}
}

// ResolveAll returns the successful resolutions in input order and stats covering every input.
func (b *BatchResolver) ResolveAll(ctx context.Context, recs []models.Recommendation, intent string, progress chan<- ProgressUpdate) ([]models.ResolvedTrack, BatchStats) {
	results := make([]models.ResolvedTrack, len(recs))
	total := len(recs)
	var done atomic.Int32

	sendProgress(progress, resolveUpdate(0, total, nil, false))

	// errgroup without a derived context: one branch failing never cancels the others.
	var g errgroup.Group
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}

	for i, rec := range recs {
		g.Go(func() error {
			results[i] = b.resolveOne(ctx, rec, intent)
			step := int(done.Add(1))
			sendProgress(progress, resolveUpdate(step, total, &recs[i], results[i].SearchSuccess))
			return nil
		})
	}
	_ = g.Wait()

	stats := BatchStats{Total: total, ByMethod: map[models.SearchMethod]int{}}
	tracks := make([]models.ResolvedTrack, 0, total)
	for _, r := range results {
		if r.SearchSuccess {
			stats.Succeeded++
			stats.ByMethod[r.SearchMethod]++
			tracks = append(tracks, r)
			continue
		}
		stats.Failed++
		stats.Failures = append(stats.Failures, Failure{Recommendation: r.Recommendation, Reason: r.Error})
	}

	b.logger.Info("batch resolved", "total", stats.Total, "succeeded", stats.Succeeded, "failed", stats.Failed)
	return tracks, stats
}

func (b *BatchResolver) resolveOne(ctx context.Context, rec models.Recommendation, intent string) (out models.ResolvedTrack) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("resolution panicked", "recommendation", rec, "panic", r)
			out = unresolved(rec, fmt.Sprintf("resolution panicked: %v", r))
		}
	}()
	return b.resolver.Resolve(ctx, rec, intent)
}
