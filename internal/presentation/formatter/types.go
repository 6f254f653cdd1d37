package formatter

import (
	"time"

	"github.com/plcscope/plcscope/internal/data/aggregator"
)

// FileReport is one scanned file in a Report.
type FileReport struct {
	Path        string    `json:"path"`
	Format      string    `json:"format"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	EntryCount  int       `json:"entry_count"`
	DeviceCount int       `json:"device_count"`
	SignalCount int       `json:"signal_count"`
	ParseErrors int       `json:"parse_errors,omitempty"`
	FromCache   bool      `json:"from_cache"`
	Error       string    `json:"error,omitempty"`
}

// Report is the output of a scan run, consumed by every formatter.
type Report struct {
	GeneratedAt      time.Time                `json:"generated_at"`
	Root             string                   `json:"root"`
	Files            []FileReport             `json:"files"`
	Signals          []aggregator.SignalStats `json:"signals"`
	Hourly           []aggregator.HourlyData  `json:"hourly,omitempty"`
	TotalEntries     int                      `json:"total_entries"`
	TotalTransitions int                      `json:"total_transitions"`
}

// DeviceCount returns the number of distinct devices across signal rows.
func (r *Report) DeviceCount() int {
	devices := make(map[string]struct{})
	for _, s := range r.Signals {
		devices[s.DeviceID] = struct{}{}
	}
	return len(devices)
}

// TimeSpan returns the earliest start and latest end across all parsed
// files, or false when no file produced a time range.
func (r *Report) TimeSpan() (time.Time, time.Time, bool) {
	var start, end time.Time
	found := false
	for _, f := range r.Files {
		if f.StartTime.IsZero() && f.EndTime.IsZero() {
			continue
		}
		if !found {
			start, end = f.StartTime, f.EndTime
			found = true
			continue
		}
		if f.StartTime.Before(start) {
			start = f.StartTime
		}
		if f.EndTime.After(end) {
			end = f.EndTime
		}
	}
	return start, end, found
}

// CacheHits counts files whose format came from the detection cache.
func (r *Report) CacheHits() int {
	hits := 0
	for _, f := range r.Files {
		if f.FromCache {
			hits++
		}
	}
	return hits
}
