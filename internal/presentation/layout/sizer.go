package layout

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Package-level singleton Sizer instance
var sharedSizer = &Sizer{}

type Sizer struct {
}

// displayWidth calculates the actual display width of a string containing
// box-drawing and other wide Unicode characters
func (i Sizer) displayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadString pads a string to a specific display width
func (i Sizer) PadString(s string, width int, leftAlign bool) string {
	actualWidth := i.displayWidth(s)
	if actualWidth >= width {
		return s
	}

	padding := strings.Repeat(" ", width-actualWidth)
	if leftAlign {
		return s + padding
	}
	return padding + s
}

// TruncateString cuts a string to a display width, appending … when it
// had to drop anything
func (i Sizer) TruncateString(s string, width int) string {
	if i.displayWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func (i Sizer) GetMaxWidth() int {
	// Get terminal width with fallback
	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || termWidth < 60 {
		termWidth = 74 // Default fallback
	}

	maxWidth := termWidth - 8 // Leave some margin
	if maxWidth > 120 {
		maxWidth = 120
	}

	return maxWidth
}
