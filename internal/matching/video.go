package matching

import (
	"strings"

	"github.com/desertthunder/storysounds/internal/models"
)

// VideoWeights are the points awarded or deducted when scoring a video.
type VideoWeights struct {
	Song               float64 // multiplied by song overlap
	Artist             float64 // multiplied by artist overlap
	OfficialMusicVideo float64
	OfficialVideo      float64
	Official           float64
	Channel            float64 // channel name mentions official/records/music
	Cover              float64
	Karaoke            float64
	Instrumental       float64
	Remix              float64
	MinScore           float64 // a video must score above this to be attached
}

// DefaultVideoWeights returns the stock weights.
func DefaultVideoWeights() VideoWeights {
	return VideoWeights{
		Song:               40,
		Artist:             30,
		OfficialMusicVideo: 15,
		OfficialVideo:      12,
		Official:           10,
		Channel:            8,
		Cover:              30,
		Karaoke:            40,
		Instrumental:       25,
		Remix:              15,
		MinScore:           20,
	}
}

var channelMarkers = []string{"official", "records", "music", "vevo"}

// VideoMatch is the score of one video.
type VideoMatch struct {
	Video         models.Video
	SongOverlap   float64
	ArtistOverlap float64
	Relevant      bool
	Score         float64
}

// VideoScorer scores video search results against a track.
type VideoScorer struct {
	thresholds Thresholds
	weights    VideoWeights
}

// NewVideoScorer shares the relevance gate with the track [Scorer].
func NewVideoScorer(t Thresholds, w VideoWeights) *VideoScorer {
	return &VideoScorer{thresholds: t, weights: w}
}

// Score scores one video. Irrelevant videos score 0 regardless of bonuses.
func (v *VideoScorer) Score(video models.Video, target Target) VideoMatch {
	m := VideoMatch{Video: video}

	title := NormalizeLoose(video.Title)
	channel := NormalizeLoose(video.ChannelTitle)

	m.SongOverlap = Overlap(Tokens(Normalize(target.Song), 2), title)
	artistTokens := Tokens(Normalize(StripFeaturing(target.Artist)), 1)
	m.ArtistOverlap = max(Overlap(artistTokens, title), Overlap(artistTokens, channel))

	if !v.thresholds.Relevant(m.SongOverlap, m.ArtistOverlap) {
		return m
	}
	m.Relevant = true

	w := v.weights
	score := m.SongOverlap*w.Song + m.ArtistOverlap*w.Artist

	official := strings.Contains(title, "official")
	switch {
	case strings.Contains(title, "official music video"):
		score += w.OfficialMusicVideo
	case strings.Contains(title, "official video"):
		score += w.OfficialVideo
	case official:
		score += w.Official
	}

	for _, marker := range channelMarkers {
		if strings.Contains(channel, marker) {
			score += w.Channel
			break
		}
	}

	if strings.Contains(title, "cover") && !official {
		score -= w.Cover
	}
	if strings.Contains(title, "karaoke") {
		score -= w.Karaoke
	}
	if strings.Contains(title, "instrumental") {
		score -= w.Instrumental
	}
	if strings.Contains(title, "remix") && !official && !remixWanted(target.Song) {
		score -= w.Remix
	}

	m.Score = score
	return m
}

// remixWanted is true when the recommended song is itself a remix.
func remixWanted(song string) bool {
	return strings.Contains(strings.ToLower(song), "remix")
}

// Best returns the highest-scoring relevant video whose score exceeds the minimum.
func (v *VideoScorer) Best(videos []models.Video, target Target) (VideoMatch, bool) {
	var best VideoMatch
	found := false
	for _, video := range videos {
		m := v.Score(video, target)
		if !m.Relevant || m.Score <= v.weights.MinScore {
			continue
		}
		if !found || m.Score > best.Score {
			best, found = m, true
		}
	}
	return best, found
}

// AnyRelevant reports whether at least one video clears the relevance gate.
func (v *VideoScorer) AnyRelevant(videos []models.Video, target Target) bool {
	for _, video := range videos {
		if v.Score(video, target).Relevant {
			return true
		}
	}
	return false
}
