// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through one playlist at a time:
//  1. [HistoryView] : Browse previously generated playlists
//  2. [PromptView] : Describe a mood or story to build a playlist for
//  3. [RunView] : Watch the pipeline phases as they report progress
//  4. [TracksView] : Inspect the resolved tracks and open their Spotify or YouTube links
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the PlaylistEngine; the run result arrives on a separate channel once progress closes.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, n, o, y, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
