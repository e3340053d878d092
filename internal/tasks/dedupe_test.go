package tasks

import (
	"reflect"
	"testing"

	"github.com/desertthunder/storysounds/internal/matching"
	"github.com/desertthunder/storysounds/internal/models"
	th "github.com/desertthunder/storysounds/internal/testing"
)

func resolved(id, name string, artists ...string) models.ResolvedTrack {
	return models.ResolvedTrack{CandidateTrack: th.Track(id, name, 50, artists...), SearchSuccess: true}
}

func TestDedupe(t *testing.T) {
	input := []models.ResolvedTrack{
		resolved("1", "Blinding Lights", "The Weeknd"),
		resolved("2", "Blinding Lights ", "the weeknd"),
		resolved("3", "Save Your Tears", "The Weeknd"),
		resolved("4", "blinding   lights", "THE WEEKND", "Rosalía"),
		resolved("5", "Blinding Lights", "Someone Else"),
	}

	got := Dedupe(input)

	t.Run("first occurrence wins", func(t *testing.T) {
		ids := []string{}
		for _, tr := range got {
			ids = append(ids, tr.ID)
		}
		if !reflect.DeepEqual(ids, []string{"1", "3", "5"}) {
			t.Errorf("unexpected ids %v", ids)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		if again := Dedupe(got); !reflect.DeepEqual(again, got) {
			t.Errorf("dedupe(dedupe(x)) != dedupe(x): %v vs %v", again, got)
		}
	})

	t.Run("unique keys", func(t *testing.T) {
		seen := map[string]bool{}
		for _, tr := range got {
			key := matching.TrackKey(tr.CandidateTrack)
			if seen[key] {
				t.Errorf("duplicate key %q", key)
			}
			seen[key] = true
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if out := Dedupe(nil); len(out) != 0 {
			t.Errorf("expected empty output, got %v", out)
		}
	})
}
