package tasks

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/metrics"
	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/services"
	"github.com/desertthunder/storysounds/internal/shared"
)

// CandidateSearcher wraps a [services.Catalog] so that provider failures degrade to "no candidates".
type CandidateSearcher struct {
	catalog services.Catalog
	logger  *log.Logger
}

func NewCandidateSearcher(catalog services.Catalog, logger *log.Logger) *CandidateSearcher {
	return &CandidateSearcher{catalog: catalog, logger: shared.WithLogger(logger, "component", "search")}
}

// Search never fails. Errors are logged and counted and yield an empty slice.
func (s *CandidateSearcher) Search(ctx context.Context, query string, limit int) []models.CandidateTrack {
	tracks, err := s.catalog.Search(ctx, query, limit)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Debug("search cancelled", "query", query)
			return nil
		}
		metrics.CandidateSearchFailures.Inc()
		s.logger.Warn("catalog search failed", "query", query, "err", err)
		return nil
	}
	return tracks
}
