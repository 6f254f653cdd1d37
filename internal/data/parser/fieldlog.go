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

// fieldClockPattern matches the clock-only timestamps of the field format.
var fieldClockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)

// fieldLogBaseDate anchors clock-only timestamps. The format carries no date,
// so a fixed base keeps chunk indexes and range queries stable across runs.
var fieldLogBaseDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// FieldLogParser handles the whitespace-delimited field format:
//
//	DEVICE_ID SIGNAL_NAME HH:MM:SS value type
//
// Example:
//
//	DEVICE_A MOTOR_START 10:30:45 true boolean
//	DEVICE_B COUNTER_1 10:30:55 100 integer
type FieldLogParser struct{}

func NewFieldLogParser() *FieldLogParser {
	return &FieldLogParser{}
}

func (p *FieldLogParser) Name() string {
	return "fieldlog"
}

// CanParse samples the first five non-empty lines and accepts the file when
// at least 60% of them look like field format lines.
func (p *FieldLogParser) CanParse(path string) bool {
	return matchRatioAtLeast(path, 5, 0.6, isFieldLine)
}

func (p *FieldLogParser) Parse(path string) model.ParseResult {
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
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		entry, err := parseFieldLine(line)
		if err != nil {
			errs = append(errs, model.ParseError{Line: lineNum, Content: line, Reason: err.Error()})
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

func (p *FieldLogParser) ParseLine(line string) (model.LogEntry, bool) {
	entry, err := parseFieldLine(strings.TrimSpace(line))
	return entry, err == nil
}

// isFieldLine is the cheap shape check used during detection.
func isFieldLine(line string) bool {
	parts := strings.Fields(line)
	if len(parts) < 5 {
		return false
	}
	if !fieldClockPattern.MatchString(parts[2]) {
		return false
	}
	switch parts[4] {
	case "boolean", "string", "integer":
		return true
	}
	return false
}

func parseFieldLine(line string) (model.LogEntry, error) {
	parts := strings.Fields(line)
	if len(parts) < 5 {
		return model.LogEntry{}, fmt.Errorf("invalid format: expected 5 fields (device, signal, time, value, type)")
	}

	deviceID := parts[0]
	signalName := parts[1]
	timeStr := parts[2]
	valueStr := parts[3]
	// Anything after the value belongs to the type token, which makes
	// trailing junk fail type validation instead of being silently dropped.
	typeStr := strings.Join(parts[4:], " ")

	timestamp, err := parseFieldClock(timeStr)
	if err != nil {
		return model.LogEntry{}, err
	}

	value, err := parseFieldValue(valueStr, typeStr)
	if err != nil {
		return model.LogEntry{}, err
	}

	return model.LogEntry{
		DeviceID:   deviceID,
		SignalName: signalName,
		Timestamp:  timestamp,
		Value:      value,
	}, nil
}

func parseFieldClock(timeStr string) (time.Time, error) {
	m := fieldClockPattern.FindStringSubmatch(timeStr)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid time format: %s, expected HH:MM:SS", timeStr)
	}

	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	if h > 23 || min > 59 || sec > 59 {
		return time.Time{}, fmt.Errorf("invalid time format: %s, expected HH:MM:SS", timeStr)
	}

	return fieldLogBaseDate.Add(time.Duration(h)*time.Hour + time.Duration(min)*time.Minute + time.Duration(sec)*time.Second), nil
}

func parseFieldValue(valueStr, typeStr string) (model.Value, error) {
	switch strings.ToLower(typeStr) {
	case "boolean":
		switch strings.ToLower(valueStr) {
		case "true", "1":
			return model.BoolValue(true), nil
		case "false", "0":
			return model.BoolValue(false), nil
		}
		return model.Value{}, fmt.Errorf("invalid boolean value: %s", valueStr)
	case "integer":
		i, err := strconv.ParseInt(valueStr, 10, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("invalid integer value: %s", valueStr)
		}
		return model.IntValue(i), nil
	case "string":
		return model.StringValue(valueStr), nil
	}
	return model.Value{}, fmt.Errorf("invalid type: %s, expected boolean, string, or integer", typeStr)
}
