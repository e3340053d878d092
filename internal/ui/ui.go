package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/storysounds/internal/models"
	"github.com/desertthunder/storysounds/internal/shared"
	"github.com/desertthunder/storysounds/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	HistoryView ViewState = iota
	PromptView
	RunView
	TracksView
)

const (
	historyLimit = 50
	logLines     = 8
)

// Pipeline generates a playlist from mood text.
type Pipeline interface {
	Run(ctx context.Context, text string, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)
}

// History reads saved playlist runs.
type History interface {
	List(ctx context.Context, limit, offset int) ([]*models.PlaylistRun, error)
	Find(ctx context.Context, ref string) (*models.PlaylistRun, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	pipeline     Pipeline
	history      History
	openLink     func(string) error
	width        int
	height       int
	runList      list.Model
	trackList    list.Model
	prompt       textarea.Model
	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	cancel       context.CancelFunc
	progress     tasks.ProgressUpdate
	log          []string
	lastText     string
	response     *models.PlaylistResponse
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. A nil history starts at the prompt.
func NewModel(ctx context.Context, pipeline Pipeline, history History) *Model {
	prompt := textarea.New()
	prompt.Placeholder = "Describe a moment, a story or a mood..."
	prompt.CharLimit = 2000

	m := &Model{
		ctx:       ctx,
		view:      HistoryView,
		pipeline:  pipeline,
		history:   history,
		openLink:  shared.OpenBrowser,
		runList:   newList("Playlist History", nil),
		trackList: newList("Tracks", nil),
		prompt:    prompt,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:      help.New(),
		keys:      newKeyMap(),
	}
	if history == nil {
		m.view = PromptView
	}
	return m
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// Init loads history, or focuses the prompt when history is disabled.
func (m *Model) Init() tea.Cmd {
	if m.history == nil {
		return m.prompt.Focus()
	}
	return m.fetchHistory()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.runList.SetSize(msg.Width-4, msg.Height-6)
		m.trackList.SetSize(msg.Width-4, msg.Height-10)
		m.prompt.SetWidth(max(msg.Width-4, 20))
		m.prompt.SetHeight(max(msg.Height/3, 3))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case HistoryView:
			return m.handleHistoryKeys(msg)
		case PromptView:
			return m.handlePromptKeys(msg)
		case RunView:
			return m.handleRunKeys(msg)
		case TracksView:
			return m.handleTracksKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != RunView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgHistoryLoaded:
		data := msg.data.(historyData)
		if data.err != nil {
			m.status = styles.failed.Render(fmt.Sprintf("Could not load history: %v", data.err))
			return m, nil
		}
		m.runList.SetItems(runItems(data.runs))
		if len(data.runs) == 0 {
			m.status = "No playlists yet. Press n to create one."
		}
		return m, nil

	case MsgRunLoaded:
		data := msg.data.(runData)
		if data.err != nil {
			m.status = styles.failed.Render(fmt.Sprintf("Could not load playlist: %v", data.err))
			return m, nil
		}
		m.showResponse(data.run.Response)
		return m, nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		if update.Message != "" {
			m.log = append(m.log, update.Message)
			if len(m.log) > logLines {
				m.log = m.log[len(m.log)-logLines:]
			}
		}
		return m, waitForProgress(m.progressChan, m.done)

	case MsgRunComplete:
		data := msg.data.(runData)
		m.finishRun()
		if data.err != nil {
			m.response = nil
			m.err = data.err
			m.view = TracksView
			return m, nil
		}
		m.showResponse(data.result.Response)
		if data.result.Run != nil {
			m.status = styles.found.Render(fmt.Sprintf("Saved as playlist #%d", data.result.Run.Sequence))
		}
		return m, nil

	case MsgLinkOpened:
		data := msg.data.(linkData)
		if data.err != nil {
			m.status = styles.failed.Render(fmt.Sprintf("Could not open link: %v", data.err))
		} else {
			m.status = fmt.Sprintf("Opened %s", data.link)
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case HistoryView:
		return m.renderHistory()
	case PromptView:
		return m.renderPrompt()
	case RunView:
		return m.renderRun()
	case TracksView:
		return m.renderTracks()
	default:
		return ""
	}
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.runList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.runList, cmd = m.runList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.newRun):
		return m, m.showPrompt("")
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.runList.SelectedItem().(runItem); ok {
			m.status = ""
			return m, m.fetchRun(item.run.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.runList, cmd = m.runList.Update(msg)
	return m, cmd
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.prompt.Blur()
		return m, m.showHistory()
	case key.Matches(msg, m.keys.submit):
		text := strings.TrimSpace(m.prompt.Value())
		if text == "" {
			m.status = styles.notice.Render("Write something first")
			return m, nil
		}
		m.prompt.Blur()
		return m, m.startRun(text)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) handleRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.cancel):
		if m.cancel != nil {
			m.cancel()
			m.status = styles.notice.Render("Cancelling...")
		}
	}
	return m, nil
}

func (m *Model) handleTracksKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		return m, m.showHistory()
	case key.Matches(msg, m.keys.newRun):
		return m, m.showPrompt("")
	case key.Matches(msg, m.keys.rerun):
		if m.lastText == "" {
			return m, nil
		}
		return m, m.startRun(m.lastText)
	case key.Matches(msg, m.keys.open):
		if item, ok := m.trackList.SelectedItem().(trackItem); ok {
			return m, m.open(item.track.ExternalURL)
		}
		return m, nil
	case key.Matches(msg, m.keys.youtube):
		if item, ok := m.trackList.SelectedItem().(trackItem); ok && item.track.YouTubePreview != nil {
			return m, m.open(item.track.YouTubePreview.YouTubeURL)
		}
		m.status = styles.notice.Render("No YouTube preview for this track")
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case HistoryView:
		m.runList, cmd = m.runList.Update(msg)
	case PromptView:
		m.prompt, cmd = m.prompt.Update(msg)
	case TracksView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) showPrompt(text string) tea.Cmd {
	m.view = PromptView
	m.status = ""
	m.err = nil
	m.prompt.SetValue(text)
	return m.prompt.Focus()
}

func (m *Model) showHistory() tea.Cmd {
	if m.history == nil {
		return m.showPrompt("")
	}
	m.view = HistoryView
	m.status = ""
	m.err = nil
	return m.fetchHistory()
}

func (m *Model) showResponse(resp *models.PlaylistResponse) {
	m.err = nil
	m.status = ""
	m.response = resp
	if resp == nil {
		resp = &models.PlaylistResponse{}
	}
	m.lastText = resp.Transcription
	m.trackList = newList(fmt.Sprintf("%d of %d tracks", resp.PlaylistSummary.FoundOnSpotify, resp.PlaylistSummary.TotalRecommended), trackItems(resp.SpotifyTracks))
	m.trackList.SetSize(m.width-4, m.height-10)
	m.view = TracksView
}

func (m *Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		runs, err := m.history.List(m.ctx, historyLimit, 0)
		return historyLoadedMsg(runs, err)
	}
}

func (m *Model) fetchRun(id string) tea.Cmd {
	return func() tea.Msg {
		run, err := m.history.Find(m.ctx, id)
		if err == nil && run.Response == nil {
			err = fmt.Errorf("%w: playlist #%d has no stored tracks", shared.ErrRunNotFound, run.Sequence)
		}
		return runLoadedMsg(run, err)
	}
}

// startRun runs the pipeline in a goroutine; progress closes before the result is sent on done.
func (m *Model) startRun(text string) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan Msg, 1)

	m.view = RunView
	m.lastText = text
	m.log = nil
	m.status = ""
	m.err = nil
	m.progress = tasks.ProgressUpdate{}
	m.progressChan = progress
	m.done = done
	m.cancel = cancel

	go func() {
		result, err := m.pipeline.Run(ctx, text, progress)
		close(progress)
		done <- runCompleteMsg(result, err)
	}()

	return tea.Batch(m.spinner.Tick, waitForProgress(progress, done))
}

func (m *Model) finishRun() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.progressChan = nil
	m.done = nil
}

func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) open(link string) tea.Cmd {
	if link == "" {
		m.status = styles.notice.Render("No link for this track")
		return nil
	}
	open := m.openLink
	return func() tea.Msg {
		return linkOpenedMsg(link, open(link))
	}
}

func (m *Model) renderHistory() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.newRun, m.keys.quit}
	return m.withFooter(m.runList.View(), helpKeys)
}

func (m *Model) renderPrompt() string {
	title := styles.title.Render("What should this playlist sound like?")
	helpKeys := []key.Binding{m.keys.submit, m.keys.back, m.keys.quit}
	return m.withFooter(fmt.Sprintf("%s\n%s", title, m.prompt.View()), helpKeys)
}

func (m *Model) renderRun() string {
	title := styles.title.Render("Building Playlist")

	phase := "Starting..."
	if name := m.progress.Phase.String(); m.progress.Message != "" && name != "" {
		phase = fmt.Sprintf("%s %s", styles.phase.Render(strings.ToUpper(name[:1])+name[1:]), stepCount(m.progress))
	}

	var b strings.Builder
	for _, line := range m.log {
		b.WriteString("  " + line + "\n")
	}

	helpKeys := []key.Binding{m.keys.cancel}
	return m.withFooter(fmt.Sprintf("%s\n%s %s\n\n%s", title, m.spinner.View(), phase, b.String()), helpKeys)
}

func stepCount(u tasks.ProgressUpdate) string {
	if u.Total <= 1 {
		return ""
	}
	return fmt.Sprintf("(%d/%d)", u.Step, u.Total)
}

func (m *Model) renderTracks() string {
	helpKeys := []key.Binding{m.keys.open, m.keys.youtube, m.keys.rerun, m.keys.newRun, m.keys.back, m.keys.quit}

	if m.err != nil {
		msg := fmt.Sprintf("Playlist failed: %v", m.err)
		if errors.Is(m.err, context.Canceled) {
			msg = "Playlist cancelled"
		}
		return m.withFooter(styles.failed.Render(msg), []key.Binding{m.keys.rerun, m.keys.newRun, m.keys.back, m.keys.quit})
	}

	if m.response == nil {
		return m.withFooter(styles.failed.Render("No playlist available"), helpKeys)
	}

	s := m.response.PlaylistSummary
	header := styles.quote.Render(shared.Truncate(m.response.Transcription, 200))
	counts := fmt.Sprintf("%s (%s, %s)",
		styles.found.Render(fmt.Sprintf("✓ %d of %d tracks found, %d with previews", s.FoundOnSpotify, s.TotalRecommended, s.TotalPreviews)),
		styles.spotify.Render(fmt.Sprintf("%d Spotify", s.SpotifyPreviews)),
		styles.youtube.Render(fmt.Sprintf("%d YouTube", s.YouTubePreviews)))

	return m.withFooter(fmt.Sprintf("%s\n%s\n\n%s", header, counts, m.trackList.View()), helpKeys)
}

func (m *Model) withFooter(body string, helpKeys []key.Binding) string {
	helpView := m.help.ShortHelpView(helpKeys)
	if m.status != "" {
		return fmt.Sprintf("%s\n\n%s\n%s", body, m.status, helpView)
	}
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}
