package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	newRun  key.Binding
	submit  key.Binding
	open    key.Binding
	youtube key.Binding
	rerun   key.Binding
	cancel  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		newRun:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new playlist")),
		submit:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "generate")),
		open:    key.NewBinding(key.WithKeys("o", "enter"), key.WithHelp("o", "open in Spotify")),
		youtube: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "open YouTube preview")),
		rerun:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "regenerate")),
		cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.newRun, k.submit, k.back},
		{k.open, k.youtube, k.rerun},
		{k.cancel, k.quit},
	}
}
