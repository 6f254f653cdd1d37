package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/plcscope/plcscope/internal/core/model"
)

// tailReadSize bounds how much of the file end is scanned for the last
// parseable line.
const tailReadSize = 8192

// ExtractTimeRange finds the first and last parseable timestamps of a file
// without parsing the whole thing: the head is scanned forward until a line
// parses, and only the final 8KB is scanned backward for the closing
// timestamp. The returned range is inclusive on both ends.
func ExtractTimeRange(path string, p Parser) (model.TimeRange, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.TimeRange{}, err
	}
	defer f.Close()

	first, ok := firstEntryTime(f, p)
	if !ok {
		return model.TimeRange{}, fmt.Errorf("no parseable timestamps in %s", path)
	}

	last, ok := lastEntryTime(f, p)
	if !ok {
		// A file whose tail is unreadable still has at least one entry.
		last = first
	}

	if last.Timestamp.Before(first.Timestamp) {
		return model.TimeRange{Start: last.Timestamp, End: first.Timestamp}, nil
	}
	return model.TimeRange{Start: first.Timestamp, End: last.Timestamp}, nil
}

func firstEntryTime(f *os.File, p Parser) (model.LogEntry, bool) {
	scanner := newLineScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if lineNum == 1 {
			line = stripBOM(line)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if entry, ok := p.ParseLine(line); ok {
			return entry, true
		}
	}
	return model.LogEntry{}, false
}

func lastEntryTime(f *os.File, p Parser) (model.LogEntry, bool) {
	stat, err := f.Stat()
	if err != nil {
		return model.LogEntry{}, false
	}

	readSize := int64(tailReadSize)
	if stat.Size() < readSize {
		readSize = stat.Size()
	}
	if readSize == 0 {
		return model.LogEntry{}, false
	}

	buf := make([]byte, readSize)
	if _, err := f.ReadAt(buf, stat.Size()-readSize); err != nil && err != io.EOF {
		return model.LogEntry{}, false
	}

	lines := strings.Split(string(buf), "\n")
	// The first line of the tail window is usually truncated mid-line, but
	// a truncated line simply fails to parse and is skipped.
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if entry, ok := p.ParseLine(line); ok {
			return entry, true
		}
	}
	return model.LogEntry{}, false
}
