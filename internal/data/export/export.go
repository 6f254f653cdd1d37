// Package export writes log windows out to SQLite, CSV and JSON so other
// tooling can pick up what the viewer shows.
package export

import (
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/core/validation"
	"github.com/plcscope/plcscope/internal/core/waveform"
)

// Window is one exportable slice of a log: the entries inside a time range
// together with the derived signal states and any validation findings.
type Window struct {
	Source     string
	Range      model.TimeRange
	Entries    []model.LogEntry
	Signals    []*waveform.Signal
	Violations []validation.Violation
}

// SignalStateRecord is one flattened waveform state.
type SignalStateRecord struct {
	SignalKey  string      `json:"signal_key"`
	Value      model.Value `json:"value"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	DurationMS int64       `json:"duration_ms"`
}

func flattenStates(signals []*waveform.Signal) []SignalStateRecord {
	var records []SignalStateRecord
	for _, sig := range signals {
		for _, st := range sig.States {
			records = append(records, SignalStateRecord{
				SignalKey:  sig.Key,
				Value:      st.Value,
				Start:      st.Start,
				End:        st.End,
				DurationMS: st.End.Sub(st.Start).Milliseconds(),
			})
		}
	}
	return records
}
