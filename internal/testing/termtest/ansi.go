// Package termtest helps tests assert on styled terminal output. Rendered
// views carry ANSI color sequences that make plain string comparison
// brittle; these helpers reduce a frame to its visible characters.
package termtest

import (
	"regexp"
	"strings"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI escape sequences, leaving the visible text.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// Lines splits a rendered frame into visible lines, stripping escape
// sequences and trailing spaces.
func Lines(frame string) []string {
	lines := strings.Split(StripANSI(frame), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return lines
}

// LineContaining returns the first visible line containing substr, or an
// empty string.
func LineContaining(frame, substr string) string {
	for _, line := range Lines(frame) {
		if strings.Contains(line, substr) {
			return line
		}
	}
	return ""
}

// RuneColumn returns the 0-based visible column of the first occurrence of
// target in line, or -1. Columns count runes, not bytes, so markers beyond
// ASCII land where the terminal draws them.
func RuneColumn(line string, target rune) int {
	for i, r := range []rune(line) {
		if r == target {
			return i
		}
	}
	return -1
}
