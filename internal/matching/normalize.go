package matching

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	bracketed = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}`)
	featuring = regexp.MustCompile(`(?i)\s+(feat\.?|ft\.?|featuring|&|and)\s+.*$`)
	unsafe    = regexp.MustCompile(`["“”:\x00-\x1f]+`)
)

// fold lower-cases s and strips combining marks ("Beyoncé" -> "beyonce").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// wordsOnly replaces every rune that is not a letter or digit with a space and collapses the result.
func wordsOnly(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// Normalize prepares a track or song name for comparison.
func Normalize(s string) string {
	return wordsOnly(bracketed.ReplaceAllString(fold(s), " "))
}

// NormalizeLoose folds case and punctuation but keeps bracketed text. Video titles carry useful words in brackets.
func NormalizeLoose(s string) string {
	return wordsOnly(fold(s))
}

// StripFeaturing removes trailing collaborator clauses from an artist credit.
func StripFeaturing(artist string) string {
	stripped := strings.TrimSpace(featuring.ReplaceAllString(strings.TrimSpace(artist), ""))
	if stripped == "" {
		return strings.TrimSpace(artist)
	}
	return stripped
}

// Tokens splits a normalized string into words longer than minLen runes.
//
// A non-empty input with no qualifying word yields itself as the only token, space padded so that
// [Overlap] only finds it as whole words ("up" must not match "supermarket").
func Tokens(normalized string, minLen int) []string {
	var out []string
	for _, w := range strings.Fields(normalized) {
		if len([]rune(w)) > minLen {
			out = append(out, w)
		}
	}
	if len(out) == 0 && normalized != "" {
		return []string{" " + normalized + " "}
	}
	return out
}

// Overlap returns the fraction of tokens found in field. Plain tokens match as substrings.
func Overlap(tokens []string, field string) float64 {
	if len(tokens) == 0 || field == "" {
		return 0
	}
	padded := " " + field + " "
	found := 0
	for _, tok := range tokens {
		if strings.Contains(padded, tok) {
			found++
		}
	}
	return float64(found) / float64(len(tokens))
}

// Query holds search-safe song and artist strings.
type Query struct {
	Song   string
	Artist string
}

// NormalizeQuery extracts search-safe strings from a recommendation.
//
// Quotes, colons and control characters are removed so the catalog never reads them as field filters.
func NormalizeQuery(rec models.Recommendation) Query {
	clean := func(s string) string {
		return strings.Join(strings.Fields(unsafe.ReplaceAllString(s, " ")), " ")
	}
	return Query{Song: clean(rec.Song), Artist: clean(rec.Artist)}
}

// Key is the identity of a track for deduplication: normalized name + "___" + normalized primary artist.
func Key(name, primaryArtist string) string {
	return shared.CollapseSpace(name) + "___" + shared.CollapseSpace(primaryArtist)
}

// TrackKey is [Key] applied to a catalog track.
func TrackKey(t models.CandidateTrack) string {
	return Key(t.Name, t.PrimaryArtist())
}

// RecommendationKey is [Key] applied to a recommendation's song and artist.
func RecommendationKey(r models.Recommendation) string {
	return Key(r.Song, r.Artist)
}
