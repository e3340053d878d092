package matching

import (
	"testing"

	"github.com/desertthunder/storysounds/internal/models"
)

func TestVideoScorer(t *testing.T) {
	scorer := NewVideoScorer(DefaultThresholds(), DefaultVideoWeights())
	target := Target{Song: "Blinding Lights", Artist: "The Weeknd"}

	official := models.Video{VideoID: "4NRXx6U8ABQ", Title: "The Weeknd - Blinding Lights (Official Video)", ChannelTitle: "TheWeekndVEVO"}
	cover := models.Video{VideoID: "cov", Title: "Blinding Lights - The Weeknd (Acoustic Cover)", ChannelTitle: "Jane Sings"}
	karaoke := models.Video{VideoID: "kar", Title: "Blinding Lights Karaoke Instrumental - The Weeknd", ChannelTitle: "Sing King"}
	unrelated := models.Video{VideoID: "cat", Title: "Official cat compilation", ChannelTitle: "Official Cats Music"}

	t.Run("official upload scores highest", func(t *testing.T) {
		o := scorer.Score(official, target)
		c := scorer.Score(cover, target)
		if !o.Relevant || !c.Relevant {
			t.Fatalf("both should be relevant: %+v %+v", o, c)
		}
		if o.Score <= c.Score {
			t.Errorf("official (%v) should outscore cover (%v)", o.Score, c.Score)
		}
	})

	t.Run("irrelevant scores zero despite bonuses", func(t *testing.T) {
		m := scorer.Score(unrelated, target)
		if m.Relevant || m.Score != 0 {
			t.Errorf("expected irrelevant zero score, got %+v", m)
		}
	})

	t.Run("karaoke falls below threshold", func(t *testing.T) {
		m := scorer.Score(karaoke, target)
		if m.Score > DefaultVideoWeights().MinScore {
			t.Errorf("karaoke instrumental should not clear the threshold, got %v", m.Score)
		}
	})

	t.Run("Best", func(t *testing.T) {
		best, ok := scorer.Best([]models.Video{unrelated, cover, karaoke, official}, target)
		if !ok || best.Video.VideoID != official.VideoID {
			t.Errorf("expected official video, got %+v", best)
		}

		if _, ok := scorer.Best([]models.Video{unrelated, karaoke}, target); ok {
			t.Error("expected no video above threshold")
		}
	})

	t.Run("artist found in channel", func(t *testing.T) {
		v := models.Video{VideoID: "topic", Title: "Blinding Lights", ChannelTitle: "The Weeknd - Topic"}
		m := scorer.Score(v, target)
		if m.ArtistOverlap != 1 {
			t.Errorf("expected channel to supply the artist, got %v", m.ArtistOverlap)
		}
	})

	t.Run("remix penalty waived when remix requested", func(t *testing.T) {
		v := models.Video{VideoID: "rmx", Title: "The Weeknd - Blinding Lights (Chromatics Remix)"}
		plain := scorer.Score(v, target)
		wanted := scorer.Score(v, Target{Song: "Blinding Lights (Chromatics Remix)", Artist: "The Weeknd"})
		if wanted.Score <= plain.Score {
			t.Errorf("remix request should not be penalized: %v <= %v", wanted.Score, plain.Score)
		}
	})

	t.Run("short title matches whole words only", func(t *testing.T) {
		tgt := Target{Song: "Up", Artist: "Cardi B"}
		wrong := models.Video{VideoID: "sf", Title: "Ed Sheeran - Supermarket Flowers (Official Video)", ChannelTitle: "Ed Sheeran"}
		if m := scorer.Score(wrong, tgt); m.SongOverlap != 0 || m.Relevant {
			t.Errorf("expected wrong song to be irrelevant, got %+v", m)
		}

		right := models.Video{VideoID: "up", Title: "Cardi B - Up [Official Music Video]", ChannelTitle: "Cardi B"}
		if m := scorer.Score(right, tgt); m.SongOverlap != 1 || !m.Relevant {
			t.Errorf("expected the real song to match, got %+v", m)
		}
	})

	t.Run("AnyRelevant", func(t *testing.T) {
		if scorer.AnyRelevant([]models.Video{unrelated}, target) {
			t.Error("unrelated video should not pass the preflight")
		}
		if !scorer.AnyRelevant([]models.Video{unrelated, official}, target) {
			t.Error("official video should pass the preflight")
		}
	})
}
