package parser

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
)

// deviceIDPattern extracts the device ID from a device path: the trailing
// identifier token, with any @suffix (rack or station tag) dropped.
var deviceIDPattern = regexp.MustCompile(`([A-Za-z0-9_-]+)(?:@[^\]]+)?$`)

// lineFormat describes a single-line log format for templateParser. The
// pattern must define named groups ts, path, signal, and value; any other
// groups are ignored.
type lineFormat struct {
	name       string
	pattern    *regexp.Regexp
	sampleSize int
}

// templateParser is the shared engine behind the simple one-entry-per-line
// formats. The signal type is inferred from the value shape.
type templateParser struct {
	format   lineFormat
	tsIdx    int
	pathIdx  int
	sigIdx   int
	valueIdx int
}

func newTemplateParser(format lineFormat) *templateParser {
	return &templateParser{
		format:   format,
		tsIdx:    format.pattern.SubexpIndex("ts"),
		pathIdx:  format.pattern.SubexpIndex("path"),
		sigIdx:   format.pattern.SubexpIndex("signal"),
		valueIdx: format.pattern.SubexpIndex("value"),
	}
}

func (p *templateParser) Name() string {
	return p.format.name
}

func (p *templateParser) CanParse(path string) bool {
	return matchRatioAtLeast(path, p.format.sampleSize, 0.6, func(line string) bool {
		return p.format.pattern.MatchString(line)
	})
}

func (p *templateParser) Parse(path string) model.ParseResult {
	f, err := os.Open(path)
	if err != nil {
		return fileFailure(path, err)
	}
	defer f.Close()

	var entries []model.LogEntry
	var errs []model.ParseError

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

		entry, err := p.parseLine(line)
		if err != nil {
			errs = append(errs, model.ParseError{Line: lineNum, Content: strings.TrimSpace(line), Reason: err.Error()})
			continue
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, model.ParseError{Line: 0, Reason: fmt.Sprintf("failed to read file: %v", err)})
		return model.ParseResult{Errors: errs}
	}

	if len(entries) == 0 {
		return model.ParseResult{Errors: errs}
	}

	return model.ParseResult{Data: model.NewParsedLog(entries, nil), Errors: errs}
}

func (p *templateParser) ParseLine(line string) (model.LogEntry, bool) {
	entry, err := p.parseLine(strings.TrimRight(line, "\r\n"))
	return entry, err == nil
}

func (p *templateParser) parseLine(line string) (model.LogEntry, error) {
	m := p.format.pattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return model.LogEntry{}, fmt.Errorf("line does not match %s format", p.format.name)
	}

	timestamp, err := time.Parse(timestampLayout, m[p.tsIdx])
	if err != nil {
		return model.LogEntry{}, fmt.Errorf("invalid timestamp format: %s", m[p.tsIdx])
	}

	devicePath := strings.TrimSpace(m[p.pathIdx])
	deviceID := devicePath
	if dm := deviceIDPattern.FindStringSubmatch(devicePath); dm != nil {
		deviceID = dm[1]
	}

	return model.LogEntry{
		DeviceID:   deviceID,
		SignalName: strings.TrimSpace(m[p.sigIdx]),
		Timestamp:  timestamp,
		Value:      inferValue(strings.TrimSpace(m[p.valueIdx])),
	}, nil
}

// inferValue guesses the signal type from the value text. PLC recorders
// write booleans as ON/OFF at least as often as TRUE/FALSE.
func inferValue(value string) model.Value {
	switch strings.ToUpper(value) {
	case "TRUE", "ON", "YES":
		return model.BoolValue(true)
	case "FALSE", "OFF", "NO":
		return model.BoolValue(false)
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return model.IntValue(i)
	}
	return model.StringValue(value)
}
