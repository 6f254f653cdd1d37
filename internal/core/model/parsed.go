package model

import (
	"fmt"
	"sort"
)

// ParsedLog holds the entries of one parsed log plus derived lookups
type ParsedLog struct {
	Entries   []LogEntry `json:"entries"`
	Signals   []string   `json:"signals"`
	Devices   []string   `json:"devices"`
	TimeRange *TimeRange `json:"time_range,omitempty"`
}

// NewParsedLog builds a ParsedLog from entries, deriving the signal and
// device sets. When timeRange is nil it is computed from the entry
// timestamps; a log with no entries keeps a nil range.
func NewParsedLog(entries []LogEntry, timeRange *TimeRange) *ParsedLog {
	p := &ParsedLog{
		Entries:   entries,
		TimeRange: timeRange,
	}

	signals := make(map[string]struct{})
	devices := make(map[string]struct{})
	for _, e := range entries {
		signals[e.Key()] = struct{}{}
		devices[e.DeviceID] = struct{}{}
	}
	p.Signals = sortedKeys(signals)
	p.Devices = sortedKeys(devices)

	if p.TimeRange == nil && len(entries) > 0 {
		min := entries[0].Timestamp
		max := entries[0].Timestamp
		for _, e := range entries[1:] {
			if e.Timestamp.Before(min) {
				min = e.Timestamp
			}
			if e.Timestamp.After(max) {
				max = e.Timestamp
			}
		}
		p.TimeRange = &TimeRange{Start: min, End: max}
	}

	return p
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseError describes a single line that could not be parsed
type ParseError struct {
	Line     int    `json:"line"`
	Content  string `json:"content"`
	Reason   string `json:"reason"`
	FilePath string `json:"file_path,omitempty"`
}

func (e ParseError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseResult pairs the parsed data with per-line errors. A nil Data means
// the whole file failed; recoverable line errors leave Data populated.
type ParseResult struct {
	Data   *ParsedLog   `json:"data,omitempty"`
	Errors []ParseError `json:"errors,omitempty"`
}

// Success reports whether the parse produced usable data
func (r ParseResult) Success() bool {
	return r.Data != nil
}
