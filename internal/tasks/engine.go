package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/matching"
	"github.com/desertthunder/storysounds/internal/metrics"
	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/services"
	"github.com/desertthunder/storysounds/internal/shared"
)

// RunStore persists finished runs as playlist history.
type RunStore interface {
	Create(ctx context.Context, run *models.PlaylistRun) error
}

// Dependencies are the provider clients and stores a [PlaylistEngine] is built from.
type Dependencies struct {
	Completer   services.Completer     // required
	Catalog     services.Catalog       // required
	Videos      services.VideoSearcher // nil disables previews
	Transcriber services.Transcriber   // nil disables audio input
	Runs        RunStore               // nil disables history
}

// RunResult contains all data from one pipeline run.
type RunResult struct {
	Response *models.PlaylistResponse
	Run      *models.PlaylistRun // nil when history is disabled or saving failed
	Batch    BatchStats
	Enrich   EnrichStats
	Duration time.Duration
}

// PlaylistEngine wires the pipeline stages together.
type PlaylistEngine struct {
	catalog     services.Catalog
	transcriber services.Transcriber
	recommender *Recommender
	cultural    *CulturalFilter
	resolver    *TrackResolver
	batch       *BatchResolver
	enricher    *PreviewEnricher
	runs        RunStore
	runTimeout  time.Duration
	logger      *log.Logger
}

// NewPlaylistEngine builds the pipeline from configuration.
func NewPlaylistEngine(cfg *shared.Config, deps Dependencies, logger *log.Logger) (*PlaylistEngine, error) {
	if deps.Completer == nil {
		return nil, fmt.Errorf("%w: recommendation provider not initialized", shared.ErrServiceUnavailable)
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	logger = shared.WithLogger(logger, "component", "engine")

	resolver, err := NewResolverFromConfig(cfg, deps.Catalog, logger)
	if err != nil {
		return nil, err
	}
	thresholds := resolver.scorer.Thresholds()

	e := &PlaylistEngine{
		catalog:     deps.Catalog,
		transcriber: deps.Transcriber,
		recommender: NewRecommender(deps.Completer, cfg.Pipeline.RecommendationCount, cfg.Pipeline.RecommendationRetries, logger),
		resolver:    resolver,
		batch:       NewBatchResolver(resolver, cfg.Pipeline.ResolveConcurrency, logger),
		runTimeout:  cfg.Pipeline.RunTimeout,
		logger:      logger,
	}

	if cfg.Pipeline.CulturalFilter {
		e.cultural = NewCulturalFilter(deps.Completer, cfg.Pipeline.CulturalFloor, logger)
	}

	if cfg.Pipeline.PreviewEnabled && deps.Videos != nil {
		weights := matching.DefaultVideoWeights()
		if cfg.Matching.PreviewMinScore > 0 {
			weights.MinScore = cfg.Matching.PreviewMinScore
		}
		e.enricher = NewPreviewEnricher(deps.Videos, matching.NewVideoScorer(thresholds, weights), EnrichOptions{
			Concurrency:     cfg.Pipeline.PreviewConcurrency,
			ChunkDelay:      cfg.Pipeline.PreviewChunkDelay,
			MaxResults:      cfg.Pipeline.PreviewMaxResults,
			PreflightSong:   cfg.Pipeline.PreflightSong,
			PreflightArtist: cfg.Pipeline.PreflightArtist,
		}, logger)
	}

	if cfg.Pipeline.SaveRuns {
		e.runs = deps.Runs
	}
	return e, nil
}

// NewResolverFromConfig builds the strategy chain and scorer from the [pipeline] and [matching] tables.
func NewResolverFromConfig(cfg *shared.Config, catalog services.Catalog, logger *log.Logger) (*TrackResolver, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	strategies, err := StrategiesByName(cfg.Pipeline.Strategies)
	if err != nil {
		return nil, err
	}

	scorer := matching.NewScorer(
		matching.WithThresholds(ThresholdsFromConfig(cfg.Matching)),
		matching.WithKeywords(cfg.Matching.PartyKeywords, cfg.Matching.ChildKeywords),
	)
	return NewTrackResolver(NewCandidateSearcher(catalog, logger), scorer, strategies, logger), nil
}

// ThresholdsFromConfig converts the [matching] table.
func ThresholdsFromConfig(m shared.MatchingConfig) matching.Thresholds {
	return matching.Thresholds{
		SongGate:        m.SongGate,
		ArtistGate:      m.ArtistGate,
		ExcellentArtist: m.ExcellentArtist,
		ExcellentSong:   m.ExcellentSong,
		GoodArtist:      m.GoodArtist,
		GoodSong:        m.GoodSong,
		ArtistOnly:      m.ArtistOnly,
	}
}

// Run turns text into a playlist.
func (e *PlaylistEngine) Run(ctx context.Context, text string, progress chan<- ProgressUpdate) (result *RunResult, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", shared.ErrInvalidInput)
	}

	if e.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.runTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() { metrics.RecordPipelineRun(time.Since(start), err) }()

	recs, err := e.recommender.Recommend(ctx, text, progress)
	if err != nil {
		return nil, err
	}

	if e.cultural != nil {
		recs = e.cultural.Validate(ctx, text, recs, progress)
	}

	sendProgress(progress, authorizeUpdate())
	if err := e.catalog.Authorize(ctx); err != nil {
		return nil, fmt.Errorf("catalog authorization: %w", err)
	}

	resolved, batch := e.batch.ResolveAll(ctx, recs, text, progress)

	tracks := Dedupe(resolved)
	sendProgress(progress, dedupeUpdate(len(resolved), len(tracks)))

	var (
		enriched []models.EnrichedTrack
		stats    EnrichStats
	)
	if e.enricher != nil {
		enriched, stats = e.enricher.Enrich(ctx, tracks, progress)
	} else {
		enriched = make([]models.EnrichedTrack, len(tracks))
		for i, t := range tracks {
			enriched[i] = models.EnrichedTrack{ResolvedTrack: t}
		}
		stats = EnrichStats{Total: len(tracks), Skipped: true, SkipReason: "previews disabled"}
	}

	result = &RunResult{
		Response: models.NewPlaylistResponse(text, recs, enriched),
		Batch:    batch,
		Enrich:   stats,
	}
	e.save(ctx, result, progress)

	result.Duration = time.Since(start)
	sendProgress(progress, completeUpdate(result.Response))
	e.logger.Info("pipeline finished",
		"recommended", len(recs), "resolved", batch.Succeeded, "tracks", len(tracks),
		"previews", result.Response.PlaylistSummary.TotalPreviews, "duration", result.Duration)
	return result, nil
}

// save records the run. Failures are logged and never fail the request.
func (e *PlaylistEngine) save(ctx context.Context, result *RunResult, progress chan<- ProgressUpdate) {
	if e.runs == nil {
		return
	}
	run := models.NewPlaylistRun(result.Response)
	if err := e.runs.Create(context.WithoutCancel(ctx), run); err != nil {
		e.logger.Warn("failed to save playlist run", "err", err)
		return
	}
	result.Run = run
	result.Response.RunID = run.ID
	sendProgress(progress, saveUpdate(run))
}

// Transcribe converts uploaded audio to text.
func (e *PlaylistEngine) Transcribe(ctx context.Context, filename string, audio io.Reader, progress chan<- ProgressUpdate) (string, error) {
	if e.transcriber == nil {
		return "", fmt.Errorf("%w: transcription not configured", shared.ErrServiceUnavailable)
	}
	sendProgress(progress, ProgressUpdate{Phase: Transcribe, Step: 1, Total: 1, Message: "Transcribing audio..."})

	text, err := e.transcriber.Transcribe(ctx, filename, audio)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: transcription was empty", shared.ErrInvalidInput)
	}
	return text, nil
}

// ResolveOne authorizes the catalog and resolves a single recommendation.
func (e *PlaylistEngine) ResolveOne(ctx context.Context, rec models.Recommendation, intent string) (models.ResolvedTrack, error) {
	return ResolveOne(ctx, e.catalog, e.resolver, rec, intent)
}

// ResolveOne validates rec, authorizes catalog and resolves rec with resolver.
func ResolveOne(ctx context.Context, catalog services.Catalog, resolver Resolver, rec models.Recommendation, intent string) (models.ResolvedTrack, error) {
	if err := rec.Validate(); err != nil {
		return models.ResolvedTrack{}, fmt.Errorf("%w: song and artist are required", shared.ErrInvalidInput)
	}
	if err := catalog.Authorize(ctx); err != nil {
		return models.ResolvedTrack{}, fmt.Errorf("catalog authorization: %w", err)
	}
	return resolver.Resolve(ctx, rec, intent), nil
}
