package matching

import (
	"sort"
	"strings"

	"github.com/desertthunder/storysounds/internal/models"
)

// Thresholds are the tunable cut-offs of the relevance gate and the ranking tiers.
type Thresholds struct {
	SongGate        float64 // minimum song overlap for relevance
	ArtistGate      float64 // minimum artist overlap for relevance
	ExcellentArtist float64
	ExcellentSong   float64
	GoodArtist      float64
	GoodSong        float64
	ArtistOnly      float64
}

// DefaultThresholds returns the stock gate and tier values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SongGate:        0.4,
		ArtistGate:      0.5,
		ExcellentArtist: 0.8,
		ExcellentSong:   0.5,
		GoodArtist:      0.6,
		GoodSong:        0.3,
		ArtistOnly:      0.7,
	}
}

// Relevant applies the gate.
func (t Thresholds) Relevant(song, artist float64) bool {
	return song >= t.SongGate || artist >= t.ArtistGate
}

var (
	DefaultPartyKeywords = []string{"party", "drink", "drinking", "club", "dance", "dancing", "rave", "pregame", "shots"}
	DefaultChildKeywords = []string{"lullaby", "baby", "nursery", "bedtime", "kids", "children", "toddler", "sleep", "cradle"}
)

// Tier orders relevant candidates. Higher is better.
type Tier int

const (
	TierNone Tier = iota
	TierPartial
	TierArtistOnly
	TierGood
	TierExcellent
)

func (t Tier) String() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGood:
		return "good"
	case TierArtistOnly:
		return "artist-only"
	case TierPartial:
		return "partial"
	default:
		return "none"
	}
}

// Target is the (song, artist) pair a candidate is scored against.
type Target struct {
	Song   string
	Artist string
}

// MatchCandidate is the transient result of scoring one candidate.
type MatchCandidate struct {
	Track            models.CandidateTrack
	ArtistMatchScore float64
	SongMatchScore   float64
	Relevant         bool
	Tier             Tier
	Rejected         string // content-safety keyword that vetoed the candidate
}

// Scorer scores catalog candidates. The zero value is not usable; call [NewScorer].
type Scorer struct {
	thresholds Thresholds
	party      []string
	child      []string
}

// ScorerOption configures a [Scorer].
type ScorerOption func(*Scorer)

// WithThresholds replaces the default thresholds.
func WithThresholds(t Thresholds) ScorerOption {
	return func(s *Scorer) { s.thresholds = t }
}

// WithKeywords replaces the party-intent and child-content keyword sets. Nil keeps the defaults.
func WithKeywords(party, child []string) ScorerOption {
	return func(s *Scorer) {
		if party != nil {
			s.party = lowerAll(party)
		}
		if child != nil {
			s.child = lowerAll(child)
		}
	}
}

// NewScorer creates a [Scorer] with default thresholds and keywords unless overridden.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{
		thresholds: DefaultThresholds(),
		party:      DefaultPartyKeywords,
		child:      DefaultChildKeywords,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Thresholds returns the active thresholds.
func (s *Scorer) Thresholds() Thresholds { return s.thresholds }

// Score scores one candidate. It never fails: an unusable candidate comes back irrelevant.
func (s *Scorer) Score(c models.CandidateTrack, target Target, intent string) MatchCandidate {
	mc := MatchCandidate{Track: c}

	name := Normalize(c.Name)
	mc.SongMatchScore = Overlap(Tokens(Normalize(target.Song), 2), name)

	artistTokens := Tokens(Normalize(StripFeaturing(target.Artist)), 1)
	fields := make([]string, 0, len(c.Artists)+1)
	for _, a := range c.Artists {
		fields = append(fields, Normalize(a.Name))
	}
	if len(c.Artists) > 1 {
		fields = append(fields, Normalize(c.ArtistNames()))
	}
	for _, f := range fields {
		if o := Overlap(artistTokens, f); o > mc.ArtistMatchScore {
			mc.ArtistMatchScore = o
		}
	}

	if !s.thresholds.Relevant(mc.SongMatchScore, mc.ArtistMatchScore) {
		return mc
	}

	// Bracketed qualifiers such as "(Lullaby Version)" count here.
	if kw := s.unsafeFor(intent, NormalizeLoose(c.Name), NormalizeLoose(c.Album.Name)); kw != "" {
		mc.Rejected = kw
		return mc
	}

	mc.Relevant = true
	mc.Tier = s.tier(mc.SongMatchScore, mc.ArtistMatchScore)
	return mc
}

func (s *Scorer) tier(song, artist float64) Tier {
	t := s.thresholds
	switch {
	case artist >= t.ExcellentArtist && song >= t.ExcellentSong:
		return TierExcellent
	case artist >= t.GoodArtist && song >= t.GoodSong:
		return TierGood
	case artist >= t.ArtistOnly:
		return TierArtistOnly
	default:
		return TierPartial
	}
}

// unsafeFor returns the child keyword found in any field when the intent is a party, else "".
func (s *Scorer) unsafeFor(intent string, fields ...string) string {
	if !s.PartyIntent(intent) {
		return ""
	}
	for _, f := range fields {
		for _, kw := range s.child {
			if strings.Contains(f, kw) {
				return kw
			}
		}
	}
	return ""
}

// PartyIntent reports whether intent mentions a high-energy social context.
func (s *Scorer) PartyIntent(intent string) bool {
	if intent == "" {
		return false
	}
	lower := fold(intent)
	for _, kw := range s.party {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Rank scores every candidate and returns the relevant ones, best first.
//
// Order: tier, then catalog popularity, then artist overlap. Ties keep catalog order.
func (s *Scorer) Rank(candidates []models.CandidateTrack, target Target, intent string) []MatchCandidate {
	ranked := make([]MatchCandidate, 0, len(candidates))
	for _, c := range candidates {
		if mc := s.Score(c, target, intent); mc.Relevant {
			ranked = append(ranked, mc)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Tier != b.Tier {
			return a.Tier > b.Tier
		}
		if a.Track.Popularity != b.Track.Popularity {
			return a.Track.Popularity > b.Track.Popularity
		}
		return a.ArtistMatchScore > b.ArtistMatchScore
	})
	return ranked
}

// Best returns the top-ranked relevant candidate.
func (s *Scorer) Best(candidates []models.CandidateTrack, target Target, intent string) (MatchCandidate, bool) {
	ranked := s.Rank(candidates, target, intent)
	if len(ranked) == 0 {
		return MatchCandidate{}, false
	}
	return ranked[0], true
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(strings.ToLower(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
