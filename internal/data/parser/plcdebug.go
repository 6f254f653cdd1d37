package parser

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
)

// plcDebugPattern matches one bracketed debug line. The device ID is the
// trailing CODE-NUMBER token of the device path, with any @suffix dropped.
var plcDebugPattern = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}\.\d{3})\s+` + // timestamp
		`\[.*?\]\s+` + // log level
		`\[.*?([A-Z0-9]+-\d+)(?:@[^\]]+)?\]\s+` + // device path
		`\[(INPUT2|OUTPUT2|PARAMETER2):([^\]]+)\]\s+` + // category and signal
		`\((\w+)\)\s*:\s*(.*)$`) // type and value

// PLCDebugParser handles the bracketed controller debug format:
//
//	2025-09-22 13:34:46.877 [Debug] [Area/Line01/CONV-13@B13] [OUTPUT2:O_MOVE_IN_ACK] (Boolean) : ON
//
// Files of this format routinely reach hundreds of megabytes, so Parse
// splits the file at line boundaries and parses the segments concurrently.
type PLCDebugParser struct {
	workers int
}

func NewPLCDebugParser() *PLCDebugParser {
	return &PLCDebugParser{workers: runtime.NumCPU()}
}

func (p *PLCDebugParser) Name() string {
	return "plcdebug"
}

func (p *PLCDebugParser) CanParse(path string) bool {
	return matchRatioAtLeast(path, 5, 0.6, func(line string) bool {
		return plcDebugPattern.MatchString(line)
	})
}

// segmentResult keeps one worker's output so segments can be stitched back
// together in file order.
type segmentResult struct {
	entries []model.LogEntry
	errs    []model.ParseError
}

func (p *PLCDebugParser) Parse(path string) model.ParseResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileFailure(path, err)
	}

	lines := strings.Split(stripBOM(string(data)), "\n")

	workers := p.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(lines) {
		workers = len(lines)
	}

	segments := make([]segmentResult, workers)
	segSize := (len(lines) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		startLine := w * segSize
		endLine := startLine + segSize
		if endLine > len(lines) {
			endLine = len(lines)
		}
		if startLine >= endLine {
			continue
		}

		wg.Add(1)
		go func(seg int, start, end int) {
			defer wg.Done()
			segments[seg] = parsePLCDebugSegment(lines[start:end], start)
		}(w, startLine, endLine)
	}
	wg.Wait()

	var entries []model.LogEntry
	var errs []model.ParseError
	for _, seg := range segments {
		entries = append(entries, seg.entries...)
		errs = append(errs, seg.errs...)
	}

	// Segments preserve file order but recorders occasionally interleave
	// timestamps, so sort with a stable tie-break on parse order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	if len(entries) == 0 {
		return model.ParseResult{Errors: errs}
	}

	return model.ParseResult{Data: model.NewParsedLog(entries, nil), Errors: errs}
}

func parsePLCDebugSegment(lines []string, lineOffset int) segmentResult {
	var res segmentResult
	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, err := parsePLCDebugLine(line)
		if err != nil {
			res.errs = append(res.errs, model.ParseError{
				Line:    lineOffset + i + 1,
				Content: line,
				Reason:  err.Error(),
			})
			continue
		}
		res.entries = append(res.entries, entry)
	}
	return res
}

func (p *PLCDebugParser) ParseLine(line string) (model.LogEntry, bool) {
	entry, err := parsePLCDebugLine(strings.TrimRight(line, "\r\n"))
	return entry, err == nil
}

func parsePLCDebugLine(line string) (model.LogEntry, error) {
	m := plcDebugPattern.FindStringSubmatch(line)
	if m == nil {
		return model.LogEntry{}, fmt.Errorf("line does not match PLC debug log format")
	}

	timestamp, err := time.Parse(timestampLayout, m[1])
	if err != nil {
		return model.LogEntry{}, fmt.Errorf("invalid timestamp format: %s", m[1])
	}

	value, err := parsePLCDebugValue(m[6], m[5])
	if err != nil {
		return model.LogEntry{}, err
	}

	return model.LogEntry{
		DeviceID:   m[2],
		SignalName: m[4],
		Timestamp:  timestamp,
		Value:      value,
	}, nil
}

func parsePLCDebugValue(valueStr, typeStr string) (model.Value, error) {
	switch strings.ToLower(typeStr) {
	case "boolean":
		switch strings.ToUpper(strings.TrimSpace(valueStr)) {
		case "ON", "TRUE", "1":
			return model.BoolValue(true), nil
		case "OFF", "FALSE", "0":
			return model.BoolValue(false), nil
		}
		return model.Value{}, fmt.Errorf("invalid boolean value: %s", valueStr)
	case "integer", "int", "short":
		i, err := strconv.ParseInt(strings.TrimSpace(valueStr), 10, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("invalid integer value: %s", valueStr)
		}
		return model.IntValue(i), nil
	case "string":
		return model.StringValue(strings.TrimSpace(valueStr)), nil
	}
	return model.Value{}, fmt.Errorf("invalid type: %s", typeStr)
}
