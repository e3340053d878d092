package tasks

import (
	"fmt"

	"github.com/desertthunder/storysounds/internal/models"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Pipeline phase enumeration
type Phase int

const (
	Transcribe Phase = iota
	Recommend
	Validate
	Authorize
	Resolve
	Deduplicate
	Enrich
	Save
	Complete
)

func (p Phase) String() string {
	switch p {
	case Transcribe:
		return "transcribe"
	case Recommend:
		return "recommend"
	case Validate:
		return "validate"
	case Authorize:
		return "authorize"
	case Resolve:
		return "resolve"
	case Deduplicate:
		return "dedupe"
	case Enrich:
		return "enrich"
	case Save:
		return "save"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// sendProgress sends without blocking; a full or nil channel drops the update.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func recommendUpdate(attempt, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recommend,
		Step:    attempt,
		Total:   total,
		Message: "Asking for song recommendations...",
	}
}

func recommendedUpdate(recs []models.Recommendation) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recommend,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Received %d recommendations", len(recs)),
		Data:    recs,
	}
}

func validateUpdate(culture string, kept, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Validate,
		Step:    kept,
		Total:   total,
		Message: fmt.Sprintf("Checked %s recommendations: %d of %d kept", culture, kept, total),
	}
}

func authorizeUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Authorize, Step: 1, Total: 1, Message: "Authorizing Spotify catalog..."}
}

func resolveUpdate(step, total int, rec *models.Recommendation, found bool) ProgressUpdate {
	if rec == nil {
		return ProgressUpdate{
			Phase:   Resolve,
			Step:    step,
			Total:   total,
			Message: "Searching Spotify for tracks...",
		}
	}
	mark := "✗"
	if found {
		mark = "✓"
	}
	return ProgressUpdate{
		Phase:   Resolve,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, rec),
	}
}

func dedupeUpdate(before, after int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Deduplicate,
		Step:    after,
		Total:   before,
		Message: fmt.Sprintf("Removed %d duplicate tracks", before-after),
	}
}

func enrichUpdate(step, total int, message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Enrich,
		Step:    step,
		Total:   total,
		Message: message,
	}
}

func saveUpdate(run *models.PlaylistRun) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Save,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saved playlist #%d: %s", run.Sequence, run.Title),
		Data:    run,
	}
}

func completeUpdate(resp *models.PlaylistResponse) ProgressUpdate {
	s := resp.PlaylistSummary
	return ProgressUpdate{
		Phase:   Complete,
		Step:    s.FoundOnSpotify,
		Total:   s.TotalRecommended,
		Message: fmt.Sprintf("Found %d of %d tracks, %d with previews", s.FoundOnSpotify, s.TotalRecommended, s.TotalPreviews),
		Data:    resp,
	}
}
