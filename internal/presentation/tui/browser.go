// Package tui implements the interactive timing-diagram browser built
// on Bubble Tea. The model owns the viewport state: every pan, zoom,
// and jump happens on the update goroutine, and window loads run as
// commands that report back with a sequence number so stale results
// are dropped.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/plcscope/plcscope/internal/application/browse"
	"github.com/plcscope/plcscope/internal/core/bookmark"
	"github.com/plcscope/plcscope/internal/presentation/interaction"
	"github.com/plcscope/plcscope/internal/presentation/layout"
	"github.com/plcscope/plcscope/internal/util"
)

// entryListCap bounds how many window entries are rendered into the
// scrollable list; wide windows can hold far more than is readable.
const entryListCap = 1000

// Options configures the browser UI.
type Options struct {
	Session *browse.Session
}

// Model is the Bubble Tea model for the browser.
type Model struct {
	session *browse.Session
	keys    keyMap
	sorter  *interaction.SignalSorter
	diagram *layout.Diagram

	width  int
	height int
	ready  bool

	entryView viewport.Model

	data    *browse.WindowData
	loadSeq int
	loading bool
	loadErr error

	status   string
	showHelp bool
}

// New creates the initial browser model for an open session.
func New(opts Options) Model {
	return Model{
		session: opts.Session,
		keys:    defaultKeyMap(),
		sorter:  interaction.NewSignalSorter(),
		diagram: layout.NewDiagram(),
	}
}

// Init starts the program: alt screen plus the change-watch command
// when the session has a file watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen}
	if m.session.Watching() {
		cmds = append(cmds, watchChangesCmd(m.session))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		var cmd tea.Cmd
		if !m.ready {
			m.ready = true
			m.entryView = viewport.New(msg.Width, m.entryHeight())
			cmd = m.issueLoad()
		} else {
			m.entryView.Width = msg.Width
			m.entryView.Height = m.entryHeight()
		}
		m.refreshEntryContent()
		return m, cmd

	case windowLoadedMsg:
		if msg.seq != m.loadSeq {
			// A newer load is already in flight.
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.data = msg.data
		m.refreshEntryContent()
		return m, nil

	case fileChangedMsg:
		if _, err := m.session.ReextractRange(); err != nil {
			m.loadErr = err
		} else {
			m.status = "Log file changed, reloading"
		}
		cmds := []tea.Cmd{m.issueLoad()}
		if m.session.Watching() {
			cmds = append(cmds, watchChangesCmd(m.session))
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

// handleKey dispatches keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key leaves the help overlay.
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.PanLeft):
		return m.navigate(m.session.PanLeft)

	case key.Matches(msg, m.keys.PanRight):
		return m.navigate(m.session.PanRight)

	case key.Matches(msg, m.keys.ZoomIn):
		return m.navigate(m.session.ZoomIn)

	case key.Matches(msg, m.keys.ZoomOut):
		return m.navigate(m.session.ZoomOut)

	case key.Matches(msg, m.keys.ResetZoom):
		return m.navigate(m.session.ResetZoom)

	case key.Matches(msg, m.keys.JumpStart):
		return m.navigate(m.session.JumpToStart)

	case key.Matches(msg, m.keys.JumpEnd):
		return m.navigate(m.session.JumpToEnd)

	case key.Matches(msg, m.keys.Bookmark):
		b, err := m.session.AddBookmarkAtCenter()
		if err != nil {
			m.status = "Bookmark failed: " + err.Error()
		} else {
			m.status = "Bookmarked " + b.Label
		}
		return m, nil

	case key.Matches(msg, m.keys.NextMark):
		return m.jumpToBookmark(m.session.Bookmarks().Next, "after")

	case key.Matches(msg, m.keys.PrevMark):
		return m.jumpToBookmark(m.session.Bookmarks().Prev, "before")

	case key.Matches(msg, m.keys.CycleSort):
		m.sorter.CycleField()
		m.status = "Sorting by " + m.sorter.FieldLabel()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.entryView.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.entryView.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.entryView.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.entryView.GotoBottom()
		return m, nil
	}

	return m, nil
}

// navigate runs one viewport operation and, on success, issues a load
// for the new visible window.
func (m Model) navigate(op func() error) (tea.Model, tea.Cmd) {
	if err := op(); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.status = ""
	return m, m.issueLoad()
}

// jumpToBookmark centers the viewport on the nearest bookmark picked
// relative to the current window center.
func (m Model) jumpToBookmark(pick func(time.Time) (bookmark.TimeBookmark, bool), direction string) (tea.Model, tea.Cmd) {
	visible, ok := m.session.Viewport().VisibleTimeRange()
	if !ok {
		return m, nil
	}
	center := visible.Start.Add(visible.Duration() / 2)
	b, found := pick(center)
	if !found {
		m.status = fmt.Sprintf("No bookmark %s %s", direction, util.GetTimeProvider().Format(center, "15:04:05"))
		return m, nil
	}
	if err := m.session.Viewport().JumpToTime(b.Timestamp); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.status = "Jumped to bookmark " + b.Label
	return m, m.issueLoad()
}

// issueLoad snapshots the visible window on the update goroutine and
// returns a command that loads it. The sequence number makes the most
// recent request the only one whose result is applied.
func (m *Model) issueLoad() tea.Cmd {
	visible, ok := m.session.Viewport().VisibleTimeRange()
	if !ok {
		return nil
	}
	m.loadSeq++
	seq := m.loadSeq
	m.loading = true
	session := m.session
	return func() tea.Msg {
		data, err := session.LoadWindow(visible)
		return windowLoadedMsg{seq: seq, data: data, err: err}
	}
}

// refreshEntryContent rebuilds the scrollable entry list from the
// loaded window.
func (m *Model) refreshEntryContent() {
	if !m.ready {
		return
	}
	if m.data == nil || len(m.data.Entries) == 0 {
		m.entryView.SetContent(dimStyle.Render("No entries in window"))
		return
	}

	provider := util.GetTimeProvider()
	entries := m.data.Entries
	clipped := 0
	if len(entries) > entryListCap {
		clipped = len(entries) - entryListCap
		entries = entries[:entryListCap]
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %-24s %-20s %s\n",
			provider.Format(e.Timestamp, "15:04:05.000"), e.DeviceID, e.SignalName, e.Value.String())
	}
	if clipped > 0 {
		fmt.Fprintf(&b, "… %d more entries in this window (zoom in to narrow it)\n", clipped)
	}
	m.entryView.SetContent(strings.TrimRight(b.String(), "\n"))
	m.entryView.GotoTop()
}

// entryHeight sizes the entry list pane against the terminal height.
func (m Model) entryHeight() int {
	h := m.height / 4
	if h < 3 {
		h = 3
	}
	if h > 10 {
		h = 10
	}
	return h
}

// Messages

// windowLoadedMsg carries one finished window load back to the model.
type windowLoadedMsg struct {
	seq  int
	data *browse.WindowData
	err  error
}

// fileChangedMsg reports that the watcher invalidated the resident
// chunks after the log file changed on disk.
type fileChangedMsg struct{}

// Commands

// watchChangesCmd blocks until the session reports a file change. The
// handler re-arms it after each message.
func watchChangesCmd(s *browse.Session) tea.Cmd {
	return func() tea.Msg {
		<-s.Changes()
		return fileChangedMsg{}
	}
}

// Run opens the browser and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
