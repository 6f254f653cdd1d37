// Package fixtures generates synthetic PLC logs in every format the
// parser registry understands. Tests and the generate command use it to
// produce deterministic files instead of shipping real factory logs.
package fixtures

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// stringPool feeds string-typed signals. Consecutive values for one
// signal never repeat, so every entry is a visible transition.
var stringPool = []string{
	"ready", "idle", "error", "running",
	"paused", "complete", "starting", "stopped",
}

// defaultStart anchors generated timestamps.
var defaultStart = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

// Spec controls one generated log file.
type Spec struct {
	Signals  int           // unique signals, distributed across Devices
	Devices  int           // distinct devices
	Lines    int           // total log lines
	Interval time.Duration // spacing between consecutive lines
	Start    time.Time     // zero means 2024-01-01 10:00:00 UTC
	Seed     int64         // rng seed; zero means 1
}

func (s Spec) withDefaults() Spec {
	if s.Signals <= 0 {
		s.Signals = 4
	}
	if s.Devices <= 0 {
		s.Devices = 2
	}
	if s.Devices > s.Signals {
		s.Devices = s.Signals
	}
	if s.Lines <= 0 {
		s.Lines = 120
	}
	if s.Interval <= 0 {
		s.Interval = 500 * time.Millisecond
	}
	if s.Start.IsZero() {
		s.Start = defaultStart
	}
	if s.Seed == 0 {
		s.Seed = 1
	}
	return s
}

// signalState tracks one signal's last value so successive values drift
// instead of jumping randomly.
type signalState struct {
	device string
	name   string
	kind   string // boolean, integer, string
	last   string
}

func (s *signalState) next(rng *rand.Rand) string {
	switch s.kind {
	case "boolean":
		if rng.Intn(2) == 0 {
			s.last = "true"
		} else {
			s.last = "false"
		}
	case "integer":
		base := 0
		if s.last != "" {
			base, _ = strconv.Atoi(s.last)
		} else {
			base = rng.Intn(500)
		}
		base += rng.Intn(101) - 50
		if base < 0 {
			base = 0
		}
		s.last = strconv.Itoa(base)
	default:
		pick := stringPool[rng.Intn(len(stringPool))]
		for pick == s.last {
			pick = stringPool[rng.Intn(len(stringPool))]
		}
		s.last = pick
	}
	return s.last
}

// event is one generated signal change, format-independent.
type event struct {
	ts    time.Time
	sig   *signalState
	value string
}

// synthesize produces the event stream shared by all single-entry
// formats. Each signal appears at least once when Lines allows, and the
// signal types cycle boolean, integer, string.
func synthesize(spec Spec, devices []string) []event {
	rng := rand.New(rand.NewSource(spec.Seed))
	kinds := []string{"boolean", "integer", "string"}

	signals := make([]*signalState, spec.Signals)
	for i := range signals {
		signals[i] = &signalState{
			device: devices[i%len(devices)],
			name:   fmt.Sprintf("SIGNAL_%d", i+1),
			kind:   kinds[i%len(kinds)],
		}
	}

	events := make([]event, spec.Lines)
	for i := range events {
		sig := signals[rng.Intn(len(signals))]
		if i < len(signals) {
			sig = signals[i]
		}
		events[i] = event{
			ts:    spec.Start.Add(time.Duration(i) * spec.Interval),
			sig:   sig,
			value: sig.next(rng),
		}
	}
	return events
}

// LogGenerator writes synthetic log files under a base directory.
type LogGenerator struct {
	baseDir string
}

func NewLogGenerator(baseDir string) *LogGenerator {
	return &LogGenerator{baseDir: baseDir}
}

func (g *LogGenerator) write(name string, lines []string) (string, error) {
	if err := os.MkdirAll(g.baseDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(g.baseDir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// GenerateFieldLog writes the whitespace-delimited field format:
//
//	DEVICE_A SIGNAL_1 10:00:00 true boolean
func (g *LogGenerator) GenerateFieldLog(name string, spec Spec) (string, error) {
	spec = spec.withDefaults()
	// Clock-only timestamps resolve to one second.
	if spec.Interval < time.Second {
		spec.Interval = time.Second
	}

	devices := make([]string, spec.Devices)
	for i := range devices {
		devices[i] = fmt.Sprintf("DEVICE_%c", 'A'+i%26)
	}

	events := synthesize(spec, devices)
	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = fmt.Sprintf("%s %s %s %s %s",
			ev.sig.device, ev.sig.name, ev.ts.Format("15:04:05"), ev.value, ev.sig.kind)
	}
	return g.write(name, lines)
}

// GenerateCSVLog writes the comma-separated format:
//
//	2024-01-01 10:00:00.000,B1ACNV13301-104@D19,SIGNAL_1,true
func (g *LogGenerator) GenerateCSVLog(name string, spec Spec) (string, error) {
	spec = spec.withDefaults()

	devices := make([]string, spec.Devices)
	for i := range devices {
		devices[i] = fmt.Sprintf("B1ACNV133%02d-104@D19", i+1)
	}

	events := synthesize(spec, devices)
	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = fmt.Sprintf("%s,%s,%s,%s",
			ev.ts.Format("2006-01-02 15:04:05.000"), ev.sig.device, ev.sig.name, ev.value)
	}
	return g.write(name, lines)
}

// GenerateTabLog writes the tab-delimited trace format with its leading
// and trailing timestamps:
//
//	2024-01-01 10:00:00.000 [] CellB/Assembly/Robot-01@Backup	OUTPUT1:SIGNAL_1	OUT	ON		Station-12	OK	2024-01-01 10:00:00.002
func (g *LogGenerator) GenerateTabLog(name string, spec Spec) (string, error) {
	spec = spec.withDefaults()

	devices := make([]string, spec.Devices)
	for i := range devices {
		devices[i] = fmt.Sprintf("CellB/Assembly/Robot-%02d@Backup", i+1)
	}

	events := synthesize(spec, devices)
	lines := make([]string, len(events))
	for i, ev := range events {
		ts := ev.ts.Format("2006-01-02 15:04:05.000")
		ts2 := ev.ts.Add(2 * time.Millisecond).Format("2006-01-02 15:04:05.000")
		lines[i] = fmt.Sprintf("%s [] %s\t%s:%s\tOUT\t%s\t\tStation-12\tOK\t%s",
			ts, ev.sig.device, tabCategory(ev.sig.kind), ev.sig.name, tabValue(ev), ts2)
	}
	return g.write(name, lines)
}

func tabCategory(kind string) string {
	switch kind {
	case "boolean":
		return "OUTPUT1"
	case "integer":
		return "ANALOG"
	}
	return "STATE"
}

func tabValue(ev event) string {
	if ev.sig.kind == "boolean" {
		if ev.value == "true" {
			return "ON"
		}
		return "OFF"
	}
	if ev.sig.kind == "string" {
		return strings.ToUpper(ev.value)
	}
	return ev.value
}

// GeneratePLCDebugLog writes the bracketed controller debug format:
//
//	2024-01-01 10:00:00.000 [Debug] [Area/Line01/CONV-01@B13] [OUTPUT2:SIGNAL_1] (Boolean) : ON
func (g *LogGenerator) GeneratePLCDebugLog(name string, spec Spec) (string, error) {
	spec = spec.withDefaults()

	devices := make([]string, spec.Devices)
	for i := range devices {
		devices[i] = fmt.Sprintf("Area/Line01/CONV-%02d@B%02d", i+1, 13+i)
	}

	levels := []string{"Debug", "Info"}
	events := synthesize(spec, devices)
	lines := make([]string, len(events))
	for i, ev := range events {
		category, typeName, value := plcDebugFields(ev)
		lines[i] = fmt.Sprintf("%s [%s] [%s] [%s:%s] (%s) : %s",
			ev.ts.Format("2006-01-02 15:04:05.000"), levels[i%len(levels)],
			ev.sig.device, category, ev.sig.name, typeName, value)
	}
	return g.write(name, lines)
}

func plcDebugFields(ev event) (category, typeName, value string) {
	switch ev.sig.kind {
	case "boolean":
		value = "OFF"
		if ev.value == "true" {
			value = "ON"
		}
		return "OUTPUT2", "Boolean", value
	case "integer":
		return "PARAMETER2", "Integer", ev.value
	}
	return "INPUT2", "String", strings.ToUpper(ev.value)
}

// GenerateMCSLog writes material control system transfer lines. Each
// carrier runs ADD, a few UPDATEs, then REMOVE, with the location and
// transfer state advancing on every update:
//
//	2024-01-01 10:00:00.000 [UPDATE=CMD-0001, CAR-100] [CurrentLocation=ST01PORT02], [Priority=55], [TransferState=2]
func (g *LogGenerator) GenerateMCSLog(name string, spec Spec) (string, error) {
	spec = spec.withDefaults()
	rng := rand.New(rand.NewSource(spec.Seed))

	carriers := spec.Devices
	lines := make([]string, 0, spec.Lines)
	line := 0
	for cycle := 0; line < spec.Lines; cycle++ {
		carrier := fmt.Sprintf("CAR-%03d", 100+cycle%carriers)
		command := fmt.Sprintf("CMD-%04d", cycle+1)
		priority := 50 + rng.Intn(50)

		// ADD, a handful of UPDATEs, REMOVE.
		updates := 2 + rng.Intn(3)
		for step := 0; step <= updates+1 && line < spec.Lines; step++ {
			ts := spec.Start.Add(time.Duration(line) * spec.Interval)
			action := "UPDATE"
			switch step {
			case 0:
				action = "ADD"
			case updates + 1:
				action = "REMOVE"
			}

			location := fmt.Sprintf("ST%02dPORT%02d", 1+cycle%3, 1+step)
			state := strconv.Itoa(step)
			parts := []string{
				fmt.Sprintf("[CurrentLocation=%s]", location),
				fmt.Sprintf("[Priority=%d]", priority),
				fmt.Sprintf("[TransferState=%s]", state),
			}
			if step == 0 {
				parts = append(parts, fmt.Sprintf("[IsBoost=%t]", rng.Intn(4) == 0))
			}

			lines = append(lines, fmt.Sprintf("%s [%s=%s, %s] %s",
				ts.Format("2006-01-02 15:04:05.000"), action, command, carrier,
				strings.Join(parts, ", ")))
			line++
		}
	}
	return g.write(name, lines)
}

// GenerateAll writes one log per supported format and returns the paths
// in generation order.
func (g *LogGenerator) GenerateAll(spec Spec) ([]string, error) {
	generators := []struct {
		name string
		fn   func(string, Spec) (string, error)
	}{
		{"fieldlog_sample.log", g.GenerateFieldLog},
		{"csvlog_sample.log", g.GenerateCSVLog},
		{"tablog_sample.log", g.GenerateTabLog},
		{"plcdebug_sample.log", g.GeneratePLCDebugLog},
		{"mcs_sample.log", g.GenerateMCSLog},
	}

	paths := make([]string, 0, len(generators))
	for _, gen := range generators {
		path, err := gen.fn(gen.name, spec)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", gen.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
