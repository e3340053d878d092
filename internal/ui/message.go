package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgHistoryLoaded MsgKind = iota
	MsgRunLoaded
	MsgProgressUpdate
	MsgRunComplete
	MsgLinkOpened
)

type historyData struct {
	runs []*models.PlaylistRun
	err  error
}

type runData struct {
	run    *models.PlaylistRun
	result *tasks.RunResult
	err    error
}

type linkData struct {
	link string
	err  error
}

// historyLoadedMsg is the constructor for [MsgHistoryLoaded]
func historyLoadedMsg(runs []*models.PlaylistRun, err error) Msg {
	return Msg{kind: MsgHistoryLoaded, data: historyData{runs, err}}
}

// runLoadedMsg is the constructor for [MsgRunLoaded]
func runLoadedMsg(run *models.PlaylistRun, err error) Msg {
	return Msg{kind: MsgRunLoaded, data: runData{run: run, err: err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// runCompleteMsg is the constructor for [MsgRunComplete]
func runCompleteMsg(result *tasks.RunResult, err error) Msg {
	return Msg{kind: MsgRunComplete, data: runData{result: result, err: err}}
}

// linkOpenedMsg is the constructor for [MsgLinkOpened]
func linkOpenedMsg(link string, err error) Msg {
	return Msg{kind: MsgLinkOpened, data: linkData{link, err}}
}
