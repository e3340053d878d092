package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/matching"
	"github.com/desertthunder/storysounds/internal/metrics"
	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
)

// Strategy is one catalog query shape tried by the [TrackResolver].
type Strategy struct {
	Method models.SearchMethod
	Query  func(q matching.Query) string
	Limit  int
}

var strategies = map[models.SearchMethod]Strategy{
	models.SearchCombined: {
		Method: models.SearchCombined,
		Query:  func(q matching.Query) string { return strings.TrimSpace(q.Artist + " " + q.Song) },
		Limit:  10,
	},
	models.SearchArtistFirst: {
		Method: models.SearchArtistFirst,
		Query:  func(q matching.Query) string { return q.Artist },
		Limit:  50,
	},
	models.SearchExact: {
		Method: models.SearchExact,
		Query: func(q matching.Query) string {
			if q.Song == "" || q.Artist == "" {
				return ""
			}
			return fmt.Sprintf(`track:"%s" artist:"%s"`, q.Song, q.Artist)
		},
		Limit: 10,
	},
	models.SearchFallback: {
		Method: models.SearchFallback,
		Query:  func(q matching.Query) string { return q.Song },
		Limit:  20,
	},
}

// DefaultStrategies is combined then artist-first.
func DefaultStrategies() []Strategy {
	return []Strategy{strategies[models.SearchCombined], strategies[models.SearchArtistFirst]}
}

// StrategiesByName resolves configured method names, keeping their order.
func StrategiesByName(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		return DefaultStrategies(), nil
	}
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, ok := strategies[models.SearchMethod(name)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown search strategy %q", shared.ErrInvalidConfig, name)
		}
		out = append(out, s)
	}
	return out, nil
}

// Result is the outcome of one strategy attempt.
type Result struct {
	Track  *models.ResolvedTrack
	Reason string // why the attempt produced nothing
}

// Resolver maps one recommendation to a catalog track.
type Resolver interface {
	Resolve(ctx context.Context, rec models.Recommendation, intent string) models.ResolvedTrack
}

// TrackResolver tries each strategy in order and accepts the best relevant candidate of the first that yields one.
type TrackResolver struct {
	searcher   *CandidateSearcher
	scorer     *matching.Scorer
	strategies []Strategy
	logger     *log.Logger
}

func NewTrackResolver(searcher *CandidateSearcher, scorer *matching.Scorer, strategies []Strategy, logger *log.Logger) *TrackResolver {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &TrackResolver{
		searcher:   searcher,
		scorer:     scorer,
		strategies: strategies,
		logger:     shared.WithLogger(logger, "component", "resolver"),
	}
}

// Resolve never fails. An unresolved recommendation comes back with SearchSuccess=false and an Error.
func (r *TrackResolver) Resolve(ctx context.Context, rec models.Recommendation, intent string) models.ResolvedTrack {
	q := matching.NormalizeQuery(rec)
	target := matching.Target{Song: rec.Song, Artist: rec.Artist}

	reasons := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		if err := ctx.Err(); err != nil {
			return unresolved(rec, err.Error())
		}

		res := r.attempt(ctx, s, q, target, intent)
		if res.Track != nil {
			res.Track.Recommendation = rec
			metrics.RecordResolution(string(s.Method))
			r.logger.Debug("resolved", "recommendation", rec, "method", s.Method, "track", res.Track.Name)
			return *res.Track
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", s.Method, res.Reason))
	}

	metrics.RecordResolution("")
	return unresolved(rec, fmt.Sprintf("no relevant match for %q (%s)", rec.String(), strings.Join(reasons, "; ")))
}

func (r *TrackResolver) attempt(ctx context.Context, s Strategy, q matching.Query, target matching.Target, intent string) Result {
	query := s.Query(q)
	if query == "" {
		return Result{Reason: "empty query"}
	}

	candidates := r.searcher.Search(ctx, query, s.Limit)
	if len(candidates) == 0 {
		return Result{Reason: "no candidates"}
	}

	best, ok := r.scorer.Best(candidates, target, intent)
	if !ok {
		return Result{Reason: fmt.Sprintf("%d candidates, none relevant", len(candidates))}
	}

	return Result{Track: &models.ResolvedTrack{
		CandidateTrack: best.Track,
		SearchMethod:   s.Method,
		SearchSuccess:  true,
	}}
}

func unresolved(rec models.Recommendation, reason string) models.ResolvedTrack {
	return models.ResolvedTrack{Recommendation: rec, SearchSuccess: false, Error: reason}
}
