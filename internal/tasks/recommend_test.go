package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
	th "github.com/desertthunder/storysounds/internal/testing"
)

func TestParseRecommendations(t *testing.T) {
	t.Run("prose wrapped array", func(t *testing.T) {
		raw := "Sure! Here are [some] picks:\n```json\n" +
			`[{"song": "Halo", "artist": "Beyonce", "reason": "uplifting [bright]"}]` +
			"\n```\nEnjoy."
		recs, err := ParseRecommendations(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 1 || recs[0].Song != "Halo" || recs[0].Reason != "uplifting [bright]" {
			t.Errorf("unexpected recs %+v", recs)
		}
	})

	t.Run("malformed elements dropped", func(t *testing.T) {
		raw := `[
			{"song": "Halo", "artist": "Beyonce", "reason": "a"},
			{"song": "No Artist", "reason": "b"},
			{"song": 7, "artist": "Numbers", "reason": "c"},
			"just a string",
			{"song": "  ", "artist": "Blank", "reason": "d"},
			{"song": "Kids", "artist": "MGMT", "reason": "e"}
		]`
		recs, err := ParseRecommendations(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 2 || recs[0].Artist != "Beyonce" || recs[1].Artist != "MGMT" {
			t.Errorf("expected two valid recs, got %+v", recs)
		}
	})

	for name, raw := range map[string]string{
		"No Array":       "I could not think of anything.",
		"Unbalanced":     `[{"song": "Halo", "artist": "Beyonce"`,
		"No Valid Items": `[{"song": "Halo"}, {"artist": "Beyonce"}]`,
		"Empty Array":    `[]`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRecommendations(raw); !errors.Is(err, shared.ErrParseFailure) {
				t.Errorf("expected ErrParseFailure, got %v", err)
			}
		})
	}
}

func TestRecommender(t *testing.T) {
	valid := recsJSON(numberedRecs(3))

	t.Run("prompt carries text and count", func(t *testing.T) {
		completer := &th.ScriptedCompleter{Defaults: []th.Completion{{Text: valid}}}
		recs, err := NewRecommender(completer, 15, 0, quietLogger()).Recommend(context.Background(), "rainy sunday", nil)
		if err != nil || len(recs) != 3 {
			t.Fatalf("unexpected result %v %v", recs, err)
		}
		prompt := completer.Prompts()[0]
		if !strings.Contains(prompt, "rainy sunday") || !strings.Contains(prompt, "Suggest 15") {
			t.Errorf("unexpected prompt %q", prompt)
		}
	})

	t.Run("retries unparseable reply", func(t *testing.T) {
		completer := &th.ScriptedCompleter{Defaults: []th.Completion{{Text: "no idea"}, {Text: valid}}}
		progress := make(chan ProgressUpdate, 10)

		recs, err := NewRecommender(completer, 3, 1, quietLogger()).Recommend(context.Background(), "mood", progress)
		if err != nil || len(recs) != 3 {
			t.Fatalf("unexpected result %v %v", recs, err)
		}
		if n := len(completer.Prompts()); n != 2 {
			t.Errorf("expected 2 attempts, got %d", n)
		}

		close(progress)
		var last ProgressUpdate
		for u := range progress {
			last = u
		}
		if got, ok := last.Data.([]models.Recommendation); !ok || len(got) != 3 {
			t.Errorf("expected final update to carry recommendations, got %+v", last)
		}
	})

	t.Run("retries exhausted", func(t *testing.T) {
		completer := &th.ScriptedCompleter{Defaults: []th.Completion{{Text: "nope"}}}
		_, err := NewRecommender(completer, 3, 2, quietLogger()).Recommend(context.Background(), "mood", nil)
		if !errors.Is(err, shared.ErrParseFailure) {
			t.Errorf("expected ErrParseFailure, got %v", err)
		}
		if n := len(completer.Prompts()); n != 3 {
			t.Errorf("expected 3 attempts, got %d", n)
		}
	})

	t.Run("provider error is not retried", func(t *testing.T) {
		completer := &th.ScriptedCompleter{Defaults: []th.Completion{{Err: shared.ErrProviderUnavailable}}}
		_, err := NewRecommender(completer, 3, 3, quietLogger()).Recommend(context.Background(), "mood", nil)
		if !errors.Is(err, shared.ErrProviderUnavailable) {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
		if n := len(completer.Prompts()); n != 1 {
			t.Errorf("expected a single attempt, got %d", n)
		}
	})
}
