package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/storysounds/internal/models"
)

func recommendationPrompt(text string, count int) string {
	return fmt.Sprintf(`Someone described a moment, mood or story:

"""%s"""

Suggest %d real, released songs that fit it. Prefer well-known recordings that are available on Spotify.
If the text names a country, language or culture, suggest songs by artists from that culture.

Respond with only a JSON array of objects with the string fields "song", "artist" and "reason":
[{"song": "...", "artist": "...", "reason": "..."}]`, strings.TrimSpace(text), count)
}

func culturalJudgePrompt(c Culture, text string, recs []models.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The listener asked for %s music:\n\n\"\"\"%s\"\"\"\n\n", c.Name, strings.TrimSpace(text))
	fmt.Fprintf(&b, "For each numbered song, answer VALID if the artist is genuinely %s (%s) and INVALID otherwise.\n", c.Name, c.Description)
	b.WriteString("Reply with one line per song in the form \"N. VALID\" or \"N. INVALID\" and nothing else.\n\n")
	for i, r := range recs {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, r.Artist, r.Song)
	}
	return b.String()
}

func culturalBackfillPrompt(c Culture, text string, count int, exclude []models.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest %d real, released songs by %s artists (%s) that fit this:\n\n\"\"\"%s\"\"\"\n\n",
		count, c.Name, c.Description, strings.TrimSpace(text))
	if len(exclude) > 0 {
		b.WriteString("Do not repeat any of these:\n")
		for _, r := range exclude {
			fmt.Fprintf(&b, "- %s - %s\n", r.Artist, r.Song)
		}
		b.WriteString("\n")
	}
	b.WriteString(`Respond with only a JSON array of objects with the string fields "song", "artist" and "reason".`)
	return b.String()
}
