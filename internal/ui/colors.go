package ui

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	spotifyGreen = lipgloss.Color("#1DB954")
	youtubeRed   = lipgloss.Color("#FF0033")
	amber        = lipgloss.Color("#FFA500")
	muted        = lipgloss.Color("#626262")
)

var styles = newPalette()

// palette holds the styles shared by the views.
type palette struct {
	title   lipgloss.Style // view headings
	found   lipgloss.Style // resolved tracks, saved runs
	failed  lipgloss.Style // run and load errors
	notice  lipgloss.Style // status hints such as "Cancelling..."
	phase   lipgloss.Style // current pipeline phase in the run view
	quote   lipgloss.Style // the mood text a playlist was built from
	spotify lipgloss.Style
	youtube lipgloss.Style
}

func newPalette() *palette {
	return &palette{
		title:   bold(spotifyGreen).MarginBottom(1),
		found:   bold(spotifyGreen),
		failed:  bold(youtubeRed),
		notice:  fg(amber),
		phase:   bold(amber),
		quote:   fg(muted).Italic(true).PaddingLeft(2).BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(muted),
		spotify: fg(spotifyGreen),
		youtube: fg(youtubeRed),
	}
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func bold(c lipgloss.Color) lipgloss.Style {
	return fg(c).Bold(true)
}
