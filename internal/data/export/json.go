package export

import (
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/core/validation"
)

// Document is the JSON shape of an exported window.
type Document struct {
	Source      string                 `json:"source"`
	TimeRange   model.TimeRange        `json:"time_range"`
	EntryCount  int                    `json:"entry_count"`
	SignalCount int                    `json:"signal_count"`
	Entries     []model.LogEntry       `json:"entries"`
	States      []SignalStateRecord    `json:"signal_states,omitempty"`
	Violations  []validation.Violation `json:"violations,omitempty"`
}

func buildDocument(win *Window) *Document {
	return &Document{
		Source:      win.Source,
		TimeRange:   win.Range,
		EntryCount:  len(win.Entries),
		SignalCount: len(win.Signals),
		Entries:     win.Entries,
		States:      flattenStates(win.Signals),
		Violations:  win.Violations,
	}
}

// WriteJSON writes the full window document.
func WriteJSON(w io.Writer, win *Window) error {
	data, err := sonic.ConfigDefault.MarshalIndent(buildDocument(win), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal window: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write window: %w", err)
	}
	_, err = w.Write([]byte("\n"))
	return err
}

// WriteJSONFile writes the window document to a new file at path.
func WriteJSONFile(path string, win *Window) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json: %w", err)
	}
	if err := WriteJSON(f, win); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
