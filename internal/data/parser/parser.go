package parser

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/plcscope/plcscope/internal/core/model"
)

// ErrNoParser is returned when no registered parser recognizes a file and no
// default parser is configured.
var ErrNoParser = errors.New("no suitable parser found")

// timestampLayout covers the full-date formats. time.Parse accepts a
// fractional second after the seconds field even when the layout omits it.
const timestampLayout = "2006-01-02 15:04:05"

// Parser parses one log file format.
type Parser interface {
	// Name identifies the parser for explicit selection.
	Name() string
	// Parse reads the whole file. File-level failures are reported through
	// the result (nil Data), line-level failures as recoverable errors.
	Parse(path string) model.ParseResult
	// ParseLine parses a single line, returning the first entry it yields.
	ParseLine(line string) (model.LogEntry, bool)
	// CanParse samples the head of the file to decide whether this parser
	// understands the format.
	CanParse(path string) bool
}

// WindowParser is implemented by parsers that can restrict parsing to a time
// window without materializing the whole file.
type WindowParser interface {
	Parser
	ParseTimeWindow(path string, window model.TimeRange) model.ParseResult
}

// Registry holds the registered parsers in detection order.
type Registry struct {
	parsers []Parser
	byName  map[string]Parser
	def     Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Parser)}
}

// NewDefaultRegistry creates a registry with all built-in parsers. Strict
// formats are registered first so detection prefers them over the permissive
// fieldlog default.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewMCSParser(), false)
	r.Register(NewPLCDebugParser(), false)
	r.Register(newCSVLogParser(), false)
	r.Register(newTabLogParser(), false)
	r.Register(NewFieldLogParser(), true)
	return r
}

// Register adds a parser. Detection tries parsers in registration order.
func (r *Registry) Register(p Parser, isDefault bool) {
	r.parsers = append(r.parsers, p)
	r.byName[p.Name()] = p
	if isDefault {
		r.def = p
	}
}

// Get returns a parser by name.
func (r *Registry) Get(name string) (Parser, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Default returns the fallback parser, or nil if none is configured.
func (r *Registry) Default() Parser {
	return r.def
}

// Names returns the registered parser names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.parsers))
	for _, p := range r.parsers {
		names = append(names, p.Name())
	}
	return names
}

// Detect returns the first parser whose CanParse accepts the file, falling
// back to the default parser. Returns nil when nothing applies.
func (r *Registry) Detect(path string) Parser {
	for _, p := range r.parsers {
		if p.CanParse(path) {
			return p
		}
	}
	return r.def
}

// Parse parses a file with the named parser, or with auto-detection when
// parserName is empty.
func (r *Registry) Parse(path string, parserName string) model.ParseResult {
	var p Parser

	if parserName != "" {
		found, ok := r.Get(parserName)
		if !ok {
			return model.ParseResult{Errors: []model.ParseError{{
				Line:   0,
				Reason: fmt.Sprintf("parser %q not found", parserName),
			}}}
		}
		p = found
	} else {
		p = r.Detect(path)
	}

	if p == nil {
		return model.ParseResult{Errors: []model.ParseError{{
			Line:   0,
			Reason: ErrNoParser.Error(),
		}}}
	}

	return p.Parse(path)
}

// newLineScanner builds a scanner sized for long log lines.
func newLineScanner(f *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	return scanner
}

// sampleLines reads the first limit non-empty lines of a file for format
// detection. The UTF-8 BOM some recorders emit is stripped from the first
// line.
func sampleLines(path string, limit int) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	scanner := newLineScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = stripBOM(line)
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) >= limit {
			break
		}
	}
	return lines
}

// matchRatioAtLeast reports whether at least ratio of the sampled lines
// satisfy the predicate. An unreadable or empty file never matches.
func matchRatioAtLeast(path string, limit int, ratio float64, match func(string) bool) bool {
	lines := sampleLines(path, limit)
	if len(lines) == 0 {
		return false
	}

	matches := 0
	for _, line := range lines {
		if match(line) {
			matches++
		}
	}
	return float64(matches)/float64(len(lines)) >= ratio
}

// stripBOM removes the UTF-8 byte order mark some recorders prepend.
func stripBOM(line string) string {
	return strings.TrimPrefix(line, "\uFEFF")
}

// fileFailure builds the result for a file that could not be read at all.
func fileFailure(path string, err error) model.ParseResult {
	reason := fmt.Sprintf("failed to read file: %v", err)
	if os.IsNotExist(err) {
		reason = fmt.Sprintf("file not found: %s", path)
	}
	return model.ParseResult{Errors: []model.ParseError{{Line: 0, Reason: reason}}}
}
