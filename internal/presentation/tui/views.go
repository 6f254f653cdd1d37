package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/plcscope/plcscope/internal/core/waveform"
	"github.com/plcscope/plcscope/internal/util"
)

var (
	titleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("25")).
			Foreground(lipgloss.Color("231")).
			Bold(true)

	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	markStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	paneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Bold(true)
)

// View renders the full browser screen.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	sections := []string{
		m.renderHeader(),
		"",
		m.renderDiagram(),
		"",
		m.renderEntries(),
		m.renderFooter(),
	}
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	log := m.session.Log()

	title := fmt.Sprintf(" plcscope · %s · %s ", log.Path(), log.ParserName())
	if m.session.Watching() {
		title += "(watching) "
	}
	bar := titleStyle.Width(m.width).Render(title)

	parts := []string{}
	if visible, ok := m.session.Viewport().VisibleTimeRange(); ok {
		parts = append(parts, util.FormatTimeRange(visible.Start, visible.End))
		parts = append(parts, fmt.Sprintf("zoom ×%.2f", m.session.Viewport().ZoomLevel()))
	}
	parts = append(parts, fmt.Sprintf("chunks %d/%d", log.ChunksInMemory(), log.MaxChunksInMemory()))
	if n := m.session.Bookmarks().Len(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d bookmarks", n))
	}
	info := infoStyle.Render(strings.Join(parts, " · "))

	switch {
	case m.loadErr != nil:
		info += "  " + errorStyle.Render("Error: "+m.loadErr.Error())
	case m.loading:
		info += "  " + statusStyle.Render("Loading…")
	case m.status != "":
		info += "  " + statusStyle.Render(m.status)
	}
	return bar + "\n" + info
}

func (m Model) renderDiagram() string {
	if m.data == nil {
		return dimStyle.Render("Waiting for first window…")
	}

	signals := append([]*waveform.Signal(nil), m.data.Signals...)
	m.sorter.Sort(signals)

	budget := m.laneBudget()
	truncated := 0
	if len(signals) > budget {
		truncated = len(signals) - (budget - 1)
		signals = signals[:budget-1]
	}

	lines := m.diagram.Render(signals, m.data.Range, m.width)
	lines = append(lines, m.renderMarks(signals))
	if truncated > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("… %d more signals (sorted by %s)", truncated, m.sorter.FieldLabel())))
	}
	return strings.Join(lines, "\n")
}

// renderMarks draws bookmark positions as a marker row aligned with the
// diagram lanes.
func (m Model) renderMarks(signals []*waveform.Signal) string {
	labelWidth := m.diagram.LabelWidth(signals)
	laneWidth := m.diagram.LaneWidth(signals, m.width)
	visible := m.data.Range
	span := visible.Duration().Seconds()

	cells := make([]rune, laneWidth)
	for i := range cells {
		cells[i] = ' '
	}
	if span > 0 {
		for _, b := range m.session.Bookmarks().All() {
			if b.Timestamp.Before(visible.Start) || b.Timestamp.After(visible.End) {
				continue
			}
			col := int(b.Timestamp.Sub(visible.Start).Seconds() / span * float64(laneWidth))
			if col >= laneWidth {
				col = laneWidth - 1
			}
			cells[col] = '▼'
		}
	}
	return strings.Repeat(" ", labelWidth+1) + markStyle.Render(string(cells))
}

func (m Model) renderEntries() string {
	title := "Entries"
	if m.data != nil {
		title = fmt.Sprintf("Entries (%d in window)", len(m.data.Entries))
	}
	return paneStyle.Render(title) + "\n" + m.entryView.View()
}

func (m Model) renderFooter() string {
	return dimStyle.Render("←/→ pan · +/- zoom · g/G start/end · r reset · b mark · n/p marks · s sort · ↑/↓ entries · ? help · q quit")
}

func (m Model) renderHelp() string {
	groups := []struct {
		name string
		keys []key.Binding
	}{
		{"Timeline", []key.Binding{m.keys.PanLeft, m.keys.PanRight, m.keys.ZoomIn, m.keys.ZoomOut, m.keys.ResetZoom, m.keys.JumpStart, m.keys.JumpEnd}},
		{"Bookmarks", []key.Binding{m.keys.Bookmark, m.keys.NextMark, m.keys.PrevMark}},
		{"Signals", []key.Binding{m.keys.CycleSort}},
		{"Entries", []key.Binding{m.keys.Up, m.keys.Down, m.keys.Top, m.keys.Bottom}},
		{"General", []key.Binding{m.keys.Help, m.keys.Quit}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(" plcscope · key bindings ") + "\n\n")
	for _, g := range groups {
		b.WriteString(paneStyle.Render(g.name) + "\n")
		for _, k := range g.keys {
			fmt.Fprintf(&b, "  %-8s %s\n", k.Help().Key, k.Help().Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("Press any key to close"))
	return b.String()
}

// laneBudget returns how many signal rows fit between the header and
// the entry pane.
func (m Model) laneBudget() int {
	fixed := 9 + m.entryHeight()
	budget := m.height - fixed
	if budget < 1 {
		budget = 1
	}
	return budget
}
