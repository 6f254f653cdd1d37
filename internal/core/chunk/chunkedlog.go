package chunk

import (
	"errors"
	"fmt"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/data/parser"
)

// Log is the logical, full-duration view over one chunked log file. It
// holds the pre-scanned time range and configuration and delegates entry
// retrieval and discovery to its Manager, which keeps only a bounded window
// of the file resident.
type Log struct {
	path       string
	full       model.TimeRange
	parserName string

	chunkDuration time.Duration
	maxChunks     int

	manager *Manager
}

// NewLog wraps an existing manager, so the loading machinery can be swapped
// or mocked independently of the facade.
func NewLog(path string, manager *Manager) *Log {
	return &Log{
		path:          path,
		full:          manager.FullRange(),
		chunkDuration: manager.ChunkDuration(),
		maxChunks:     manager.MaxChunksInMemory(),
		manager:       manager,
	}
}

// Open builds the chunked view for a log file: it detects the file's
// format, wires a loader that reads one chunk window at a time, and returns
// the facade together with its manager. The full time range comes from the
// caller, normally a fast first/last-timestamp scan.
//
// Parsers that can restrict themselves to a time window are used as such;
// for the rest the loader falls back to parsing the whole file and keeping
// only the chunk's slice.
func Open(path string, full model.TimeRange, chunkDuration time.Duration, maxResident int, reg *parser.Registry) (*Log, *Manager, error) {
	if full.End.Before(full.Start) {
		return nil, nil, fmt.Errorf("%w: full range end %s precedes start %s",
			ErrInvalidRange, full.End.Format(time.RFC3339), full.Start.Format(time.RFC3339))
	}

	p := reg.Detect(path)
	if p == nil {
		return nil, nil, fmt.Errorf("%s: %w", path, parser.ErrNoParser)
	}

	loader := func(window model.TimeRange) (*Chunk, error) {
		var result model.ParseResult
		if wp, ok := p.(parser.WindowParser); ok {
			result = wp.ParseTimeWindow(path, window)
		} else {
			result = p.Parse(path)
		}
		if !result.Success() {
			return nil, resultError(result)
		}
		return New(window, result.Data.Entries), nil
	}

	manager := NewManager(full, chunkDuration, maxResident, loader)

	log := NewLog(path, manager)
	log.parserName = p.Name()
	return log, manager, nil
}

// resultError condenses a failed parse result into one error.
func resultError(result model.ParseResult) error {
	if len(result.Errors) > 0 {
		return errors.New(result.Errors[0].Reason)
	}
	return errors.New("parse produced no data")
}

func (l *Log) Path() string {
	return l.path
}

// TimeRange returns the file's full span, inclusive of the last entry.
func (l *Log) TimeRange() model.TimeRange {
	return l.full
}

func (l *Log) Duration() time.Duration {
	return l.full.Duration()
}

// ParserName names the detected format, empty when the log was built around
// a hand-wired manager.
func (l *Log) ParserName() string {
	return l.parserName
}

func (l *Log) ChunkDuration() time.Duration {
	return l.chunkDuration
}

func (l *Log) MaxChunksInMemory() int {
	return l.maxChunks
}

// Signals returns the signal keys discovered so far. The set grows as
// navigation loads more of the file, so treat it as a lower bound, not the
// complete signal list.
func (l *Log) Signals() []string {
	return l.manager.Signals()
}

func (l *Log) Devices() []string {
	return l.manager.Devices()
}

func (l *Log) SignalCount() int {
	return len(l.manager.Signals())
}

func (l *Log) DeviceCount() int {
	return len(l.manager.Devices())
}

// EntriesSeen counts entries across all chunk loads, counting reloads
// again.
func (l *Log) EntriesSeen() int {
	return l.manager.EntriesSeen()
}

func (l *Log) ChunksInMemory() int {
	return l.manager.ChunksInMemory()
}

// EntriesInRange returns the entries visible in [start, end), loading and
// evicting chunks as needed.
func (l *Log) EntriesInRange(start, end time.Time, withPrefetch bool) ([]model.LogEntry, error) {
	return l.manager.EntriesInRange(start, end, withPrefetch)
}

// FailedChunks reports chunk spans that could not be loaded and are being
// served as empty.
func (l *Log) FailedChunks() map[int]error {
	return l.manager.FailedChunks()
}

// Close releases the resident chunks. The log stays usable; the next query
// simply reloads what it needs.
func (l *Log) Close() {
	l.manager.Invalidate()
}
