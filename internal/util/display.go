package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// GetDisplayWidth calculates the actual display width of a string, accounting for wide runes
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// TruncateText shortens text to fit the given display width, appending an ellipsis
func TruncateText(text string, width int) string {
	if GetDisplayWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}

// PadText pads text with spaces on the right up to the given display width
func PadText(text string, width int) string {
	gap := width - GetDisplayWidth(text)
	if gap <= 0 {
		return text
	}
	return text + strings.Repeat(" ", gap)
}
