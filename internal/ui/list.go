package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/storysounds/internal/models"
)

var (
	_ list.Item = runItem{}
	_ list.Item = trackItem{}
)

// runItem wraps [models.PlaylistRun] to implement [list.Item].
type runItem struct {
	run *models.PlaylistRun
}

func (i runItem) FilterValue() string { return i.run.Title + " " + i.run.Transcription }
func (i runItem) Title() string       { return fmt.Sprintf("#%d %s", i.run.Sequence, i.run.Title) }
func (i runItem) Description() string {
	return fmt.Sprintf("%d of %d tracks • %d previews • %s",
		i.run.TrackCount, i.run.RecommendedCount, i.run.PreviewCount, i.run.CreatedAt.Local().Format("Jan 2 15:04"))
}

// trackItem wraps [models.TrackView] to implement [list.Item].
type trackItem struct {
	position int
	track    models.TrackView
}

func (i trackItem) FilterValue() string { return i.track.Name + " " + i.track.Artist }
func (i trackItem) Title() string       { return fmt.Sprintf("%d. %s", i.position, i.track.Name) }
func (i trackItem) Description() string {
	parts := []string{i.track.Artist}
	if i.track.Album != "" {
		parts = append(parts, i.track.Album)
	}
	switch {
	case i.track.PreviewURL != nil:
		parts = append(parts, "♪ preview")
	case i.track.YouTubePreview != nil:
		parts = append(parts, "▶ YouTube")
	}
	return strings.Join(parts, " • ")
}

func runItems(runs []*models.PlaylistRun) []list.Item {
	items := make([]list.Item, len(runs))
	for i, run := range runs {
		items[i] = runItem{run: run}
	}
	return items
}

func trackItems(tracks []models.TrackView) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, track := range tracks {
		items[i] = trackItem{position: i + 1, track: track}
	}
	return items
}
