package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/services"
	"github.com/desertthunder/storysounds/internal/shared"
)

// Recommender asks the completion provider for recommendations and parses its reply.
type Recommender struct {
	completer services.Completer
	count     int
	retries   int
	logger    *log.Logger
}

func NewRecommender(completer services.Completer, count, retries int, logger *log.Logger) *Recommender {
	return &Recommender{
		completer: completer,
		count:     max(1, count),
		retries:   max(0, retries),
		logger:    shared.WithLogger(logger, "component", "recommender"),
	}
}

// Recommend generates recommendations for text. Unparseable replies are retried; provider errors are not.
func (r *Recommender) Recommend(ctx context.Context, text string, progress chan<- ProgressUpdate) ([]models.Recommendation, error) {
	prompt := recommendationPrompt(text, r.count)
	attempts := r.retries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		sendProgress(progress, recommendUpdate(attempt, attempts))

		raw, err := r.completer.Complete(ctx, prompt)
		if err != nil && !errors.Is(err, shared.ErrParseFailure) {
			return nil, fmt.Errorf("recommendation provider: %w", err)
		}
		if err == nil {
			recs, perr := ParseRecommendations(raw)
			if perr == nil {
				sendProgress(progress, recommendedUpdate(recs))
				return recs, nil
			}
			err = perr
		}

		lastErr = err
		r.logger.Warn("unparseable recommendations", "attempt", attempt, "attempts", attempts, "err", err)
	}
	return nil, lastErr
}

// ParseRecommendations extracts the first balanced JSON array from raw and keeps its well-formed elements.
//
// Elements need string song, artist and reason fields and a non-blank song and artist.
// A reply with no usable element is [shared.ErrParseFailure].
func ParseRecommendations(raw string) ([]models.Recommendation, error) {
	array, ok := extractJSONArray(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON array in reply", shared.ErrParseFailure)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(array), &elems); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrParseFailure, err)
	}

	recs := make([]models.Recommendation, 0, len(elems))
	for _, e := range elems {
		rec, ok := decodeRecommendation(e)
		if !ok {
			continue
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no valid recommendations among %d elements", shared.ErrParseFailure, len(elems))
	}
	return recs, nil
}

func decodeRecommendation(raw json.RawMessage) (models.Recommendation, bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Recommendation{}, false
	}

	values := make(map[string]string, 3)
	for _, key := range []string{"song", "artist", "reason"} {
		s, ok := fields[key].(string)
		if !ok {
			return models.Recommendation{}, false
		}
		values[key] = s
	}

	rec := models.Recommendation{Song: values["song"], Artist: values["artist"], Reason: values["reason"]}
	if rec.Validate() != nil {
		return models.Recommendation{}, false
	}
	return rec, true
}

// extractJSONArray returns the first balanced '[' ... ']' substring that is valid JSON.
func extractJSONArray(s string) (string, bool) {
	for start := strings.IndexByte(s, '['); start >= 0; {
		if candidate, ok := balancedArray(s[start:]); ok && json.Valid([]byte(candidate)) {
			return candidate, true
		}
		next := strings.IndexByte(s[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// balancedArray returns the prefix of s (which starts with '[') up to its matching ']', ignoring brackets inside strings.
func balancedArray(s string) (string, bool) {
	depth := 0
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}
