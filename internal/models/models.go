package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Recommendation is a (song, artist, reason) triple produced by the recommendation provider.
type Recommendation struct {
	Song   string `json:"song" validate:"required"`
	Artist string `json:"artist" validate:"required"`
	Reason string `json:"reason"`
}

// Validate requires non-blank song and artist values.
func (r Recommendation) Validate() error {
	trimmed := Recommendation{Song: strings.TrimSpace(r.Song), Artist: strings.TrimSpace(r.Artist), Reason: r.Reason}
	return validate.Struct(trimmed)
}

func (r Recommendation) String() string {
	return fmt.Sprintf("%s - %s", r.Artist, r.Song)
}

// PlaylistRun is one persisted pipeline invocation, listed as playlist history.
type PlaylistRun struct {
	ID               string            `json:"id"`
	Sequence         int               `json:"sequence"`
	Title            string            `json:"title" validate:"required"`
	Transcription    string            `json:"transcription" validate:"required"`
	RecommendedCount int               `json:"recommendedCount" validate:"gte=0"`
	TrackCount       int               `json:"trackCount" validate:"gte=0"`
	PreviewCount     int               `json:"previewCount" validate:"gte=0"`
	Response         *PlaylistResponse `json:"response,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// NewPlaylistRun builds a run record from a finished pipeline response.
func NewPlaylistRun(resp *PlaylistResponse) *PlaylistRun {
	return &PlaylistRun{
		Title:            runTitle(resp.Transcription),
		Transcription:    resp.Transcription,
		RecommendedCount: resp.PlaylistSummary.TotalRecommended,
		TrackCount:       resp.PlaylistSummary.FoundOnSpotify,
		PreviewCount:     resp.PlaylistSummary.TotalPreviews,
		Response:         resp,
		CreatedAt:        time.Now().UTC(),
	}
}

// Validate checks required fields and counts.
func (r *PlaylistRun) Validate() error {
	return validate.Struct(r)
}

// runTitle derives a short title from the first line of the mood text.
func runTitle(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	r := []rune(strings.TrimSpace(line))
	if len(r) > 60 {
		return strings.TrimSpace(string(r[:57])) + "..."
	}
	if len(r) == 0 {
		return "Untitled playlist"
	}
	return string(r)
}

// Feedback is a free-text message submitted from a client.
type Feedback struct {
	ID          string    `json:"id"`
	Sequence    int       `json:"sequence"`
	Message     string    `json:"feedback" validate:"required"`
	Email       string    `json:"email,omitempty" validate:"omitempty,email"`
	SubmittedAt string    `json:"timestamp,omitempty"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate requires a non-blank message and a well-formed email when one is given.
func (f *Feedback) Validate() error {
	c := *f
	c.Message = strings.TrimSpace(c.Message)
	c.Email = strings.TrimSpace(c.Email)
	return validate.Struct(c)
}
