package tasks

import (
	"github.com/desertthunder/storysounds/internal/matching"
	"github.com/desertthunder/storysounds/internal/models"
)

// Dedupe keeps the first track for each name + primary artist key, preserving order.
func Dedupe(tracks []models.ResolvedTrack) []models.ResolvedTrack {
	seen := make(map[string]struct{}, len(tracks))
	out := make([]models.ResolvedTrack, 0, len(tracks))
	for _, t := range tracks {
		key := matching.TrackKey(t.CandidateTrack)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
