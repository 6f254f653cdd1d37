package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the browser.
type keyMap struct {
	// Global
	Quit key.Binding
	Help key.Binding

	// Timeline navigation
	PanLeft   key.Binding
	PanRight  key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	ResetZoom key.Binding
	JumpStart key.Binding
	JumpEnd   key.Binding

	// Bookmarks
	Bookmark key.Binding
	NextMark key.Binding
	PrevMark key.Binding

	// Signal rows
	CycleSort key.Binding

	// Entry list
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
}

// defaultKeyMap returns the default key bindings.
func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),

		PanLeft: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "Pan back"),
		),
		PanRight: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "Pan forward"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "Zoom out"),
		),
		ResetZoom: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reset zoom"),
		),
		JumpStart: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Jump to start"),
		),
		JumpEnd: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Jump to end"),
		),

		Bookmark: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Bookmark window center"),
		),
		NextMark: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next bookmark"),
		),
		PrevMark: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Previous bookmark"),
		),

		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Cycle signal sort"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "Scroll entries up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "Scroll entries down"),
		),
		Top: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Entries top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "Entries bottom"),
		),
	}
}
