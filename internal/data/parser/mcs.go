package parser

import (
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
)

var (
	// mcsLinePattern matches both header shapes:
	//
	//	[ACTION=CommandID, CarrierID] [Key=Value], ...
	//	[ACTION=CarrierID] [Key=Value], ...
	mcsLinePattern = regexp.MustCompile(
		`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d+)\s+` +
			`\[(ADD|UPDATE|REMOVE)=([^,\]]+)(?:,\s*([^\]]+))?\]` +
			`\s*(.*)$`)

	// mcsKVPattern extracts the bracketed key-value pairs after the header.
	mcsKVPattern = regexp.MustCompile(`\[([^=\]]+)=([^\]]*)\]`)
)

// Known keys drive type inference before falling back to value shape.
var (
	mcsBooleanKeys = map[string]struct{}{
		"IsBoost": {}, "IsMultiJob": {}, "IsMultipleDestination": {},
		"IsLocationGroupOrder": {}, "IsExecuteCommand": {},
	}
	mcsIntegerKeys = map[string]struct{}{
		"Priority": {}, "AltCount": {}, "AltCount2": {},
		"WaitCount": {}, "CirculationCount": {},
	}
	// State and result codes stay strings even when numeric.
	mcsStateKeys = map[string]struct{}{
		"TransferState": {}, "TransferState2": {}, "TransferAbnormalState": {},
		"TransferAbnormalState2": {}, "ResultCode": {}, "ResultCode2": {},
		"CommandType": {},
	}

	// Alternative signal names normalized for carrier tracking.
	mcsSignalAliases = map[string]string{
		"CarrierLoc":      "CurrentLocation",
		"CarrierLocation": "CurrentLocation",
	}
)

// MCSParser handles material control system transfer logs. Each line
// describes one carrier event and expands into several entries: the action,
// the command ID when present, and one entry per key-value pair. The carrier
// ID acts as the device ID.
type MCSParser struct{}

func NewMCSParser() *MCSParser {
	return &MCSParser{}
}

func (p *MCSParser) Name() string {
	return "mcs"
}

func (p *MCSParser) CanParse(path string) bool {
	return matchRatioAtLeast(path, 10, 0.6, func(line string) bool {
		return mcsLinePattern.MatchString(line)
	})
}

func (p *MCSParser) Parse(path string) model.ParseResult {
	f, err := os.Open(path)
	if err != nil {
		return fileFailure(path, err)
	}
	defer f.Close()

	var entries []model.LogEntry

	outOfOrder := false
	var lastTS time.Time

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

		// Lines that do not match the format are skipped; MCS logs mix in
		// free-form status lines that carry no signal data.
		lineEntries := parseMCSLine(line)
		for _, entry := range lineEntries {
			if !lastTS.IsZero() && entry.Timestamp.Before(lastTS) {
				outOfOrder = true
			}
			lastTS = entry.Timestamp
			entries = append(entries, entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return fileFailure(path, err)
	}

	if len(entries) == 0 {
		return model.ParseResult{}
	}

	if outOfOrder {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		})
	}

	return model.ParseResult{Data: model.NewParsedLog(entries, nil)}
}

// ParseTimeWindow reads only the lines whose timestamp falls inside window.
// MCS logs are written nearly in order, so scanning stops after a run of
// 1000 consecutive lines past the window end.
func (p *MCSParser) ParseTimeWindow(path string, window model.TimeRange) model.ParseResult {
	f, err := os.Open(path)
	if err != nil {
		return fileFailure(path, err)
	}
	defer f.Close()

	var entries []model.LogEntry

	seenStart := false
	consecutivePastEnd := 0
	const maxConsecutivePastEnd = 1000

	scanner := newLineScanner(f)
	lineNum := 0
scan:
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

		lineEntries := parseMCSLine(line)
		if len(lineEntries) == 0 {
			continue
		}

		// The whole line is windowed on its first timestamp.
		firstTS := lineEntries[0].Timestamp
		switch {
		case firstTS.Before(window.Start):
			consecutivePastEnd = 0
		case !firstTS.Before(window.End):
			consecutivePastEnd++
			if seenStart && consecutivePastEnd > maxConsecutivePastEnd {
				break scan
			}
		default:
			seenStart = true
			consecutivePastEnd = 0
			entries = append(entries, lineEntries...)
		}
	}

	if err := scanner.Err(); err != nil {
		return fileFailure(path, err)
	}

	// A window with no entries still succeeds; the range is simply quiet.
	tr := window
	return model.ParseResult{Data: model.NewParsedLog(entries, &tr)}
}

func (p *MCSParser) ParseLine(line string) (model.LogEntry, bool) {
	entries := parseMCSLine(strings.TrimSpace(line))
	if len(entries) == 0 {
		return model.LogEntry{}, false
	}
	return entries[0], true
}

// parseMCSLine expands one line into its entries. Returns nil when the line
// does not match the format or its timestamp is unreadable.
func parseMCSLine(line string) []model.LogEntry {
	m := mcsLinePattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	timestamp, err := time.Parse(timestampLayout, m[1])
	if err != nil {
		return nil
	}

	action := m[2]
	firstID := strings.TrimSpace(m[3])
	secondID := strings.TrimSpace(m[4])
	kvPairs := m[5]

	var commandID, carrierID string
	if secondID != "" {
		commandID = firstID
		carrierID = secondID
	} else {
		carrierID = firstID
	}

	entries := []model.LogEntry{{
		DeviceID:   carrierID,
		SignalName: "_Action",
		Timestamp:  timestamp,
		Value:      model.StringValue(action),
	}}

	if commandID != "" {
		entries = append(entries, model.LogEntry{
			DeviceID:   carrierID,
			SignalName: "_CommandID",
			Timestamp:  timestamp,
			Value:      model.StringValue(commandID),
		})
	}

	for _, kv := range mcsKVPattern.FindAllStringSubmatch(kvPairs, -1) {
		key := strings.TrimSpace(kv[1])
		value := strings.TrimSpace(kv[2])
		if key == "" {
			continue
		}

		if alias, ok := mcsSignalAliases[key]; ok {
			key = alias
		}

		// Empty and None values add noise without information.
		if value == "" || value == "None" {
			continue
		}

		entries = append(entries, model.LogEntry{
			DeviceID:   carrierID,
			SignalName: key,
			Timestamp:  timestamp,
			Value:      mcsValue(key, value),
		})
	}

	return entries
}

// mcsValue infers the signal type from the key name first, then from the
// value shape.
func mcsValue(key, value string) model.Value {
	if _, ok := mcsBooleanKeys[key]; ok {
		return model.BoolValue(mcsBool(value))
	}
	if _, ok := mcsIntegerKeys[key]; ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return model.IntValue(i)
		}
		return model.StringValue(value)
	}
	if _, ok := mcsStateKeys[key]; ok {
		return model.StringValue(value)
	}

	switch strings.ToUpper(value) {
	case "TRUE", "FALSE":
		return model.BoolValue(mcsBool(value))
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return model.IntValue(i)
	}
	return model.StringValue(value)
}

func mcsBool(value string) bool {
	switch strings.ToUpper(value) {
	case "TRUE", "1", "YES", "ON":
		return true
	}
	return false
}
