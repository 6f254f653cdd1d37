package waveform

import (
	"sort"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
)

// State is one interval during which a signal held a single value. The
// interval runs from the entry that set the value until the next entry for
// the same signal, or the end of the processed window for the last entry.
// Offsets are seconds relative to the signal's time anchor and exist so the
// renderer can clip against a viewport without touching time.Time.
type State struct {
	Start       time.Time
	End         time.Time
	Value       model.Value
	StartOffset float64
	EndOffset   float64
}

func (s State) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Signal is the processed per-signal trace ready for rendering: ordered
// value intervals plus a numeric time index for fast viewport clipping.
// Entries are not retained here; EntryCount keeps the statistic without the
// memory.
type Signal struct {
	Name     string
	DeviceID string
	Key      string
	Type     model.SignalType
	States   []State

	TimeAnchor   time.Time
	StartOffsets []float64
	EndOffsets   []float64

	EntryCount int
}

// HasTransitions reports whether the signal ever changed value in the
// processed window.
func (s *Signal) HasTransitions() bool {
	return len(s.States) > 1
}

// DisplayLabel combines device and signal name for row headers.
func (s *Signal) DisplayLabel() string {
	return s.DeviceID + " -> " + s.Name
}

// BuildTimeIndex recomputes all state offsets relative to anchor and
// rebuilds the offset slices used for clipping.
func (s *Signal) BuildTimeIndex(anchor time.Time) {
	s.TimeAnchor = anchor
	if len(s.States) == 0 {
		s.StartOffsets = nil
		s.EndOffsets = nil
		return
	}

	starts := make([]float64, len(s.States))
	ends := make([]float64, len(s.States))
	for i := range s.States {
		st := &s.States[i]
		st.StartOffset = st.Start.Sub(anchor).Seconds()
		st.EndOffset = st.End.Sub(anchor).Seconds()
		starts[i] = st.StartOffset
		ends[i] = st.EndOffset
	}
	s.StartOffsets = starts
	s.EndOffsets = ends
}

// VisibleStates returns the states overlapping [startOffset, endOffset),
// located by binary search over the time index.
func (s *Signal) VisibleStates(startOffset, endOffset float64) []State {
	if len(s.States) == 0 || startOffset >= endOffset {
		return nil
	}

	lo := sort.SearchFloat64s(s.EndOffsets, startOffset)
	for lo < len(s.States) && s.EndOffsets[lo] <= startOffset {
		lo++
	}
	hi := sort.Search(len(s.States), func(i int) bool {
		return s.StartOffsets[i] >= endOffset
	})

	if lo >= hi {
		return nil
	}
	return s.States[lo:hi]
}

// GroupBySignal buckets entries by signal key, each bucket sorted by
// timestamp with parse order preserved on ties.
func GroupBySignal(entries []model.LogEntry) map[string][]model.LogEntry {
	grouped := make(map[string][]model.LogEntry)
	for _, entry := range entries {
		key := entry.Key()
		grouped[key] = append(grouped[key], entry)
	}

	for _, group := range grouped {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
	}
	return grouped
}

// CalculateStates turns one signal's sorted entries into value intervals.
// Each state ends where the next entry begins; the last state extends to the
// window end. Offsets are relative to the window start.
func CalculateStates(entries []model.LogEntry, window model.TimeRange) []State {
	if len(entries) == 0 {
		return nil
	}

	states := make([]State, 0, len(entries))
	for i, entry := range entries {
		end := window.End
		if i < len(entries)-1 {
			end = entries[i+1].Timestamp
		}
		states = append(states, State{
			Start:       entry.Timestamp,
			End:         end,
			Value:       entry.Value,
			StartOffset: entry.Timestamp.Sub(window.Start).Seconds(),
			EndOffset:   end.Sub(window.Start).Seconds(),
		})
	}
	return states
}

// BuildSignals processes a parsed log into renderable signals, one per
// device/signal pair, sorted by device then signal name. The signal type is
// taken from the first entry of each group.
func BuildSignals(parsed *model.ParsedLog) []*Signal {
	if parsed == nil || len(parsed.Entries) == 0 {
		return nil
	}

	window := spanOf(parsed)
	grouped := GroupBySignal(parsed.Entries)

	signals := make([]*Signal, 0, len(grouped))
	for key, entries := range grouped {
		sig := &Signal{
			Name:       entries[0].SignalName,
			DeviceID:   entries[0].DeviceID,
			Key:        key,
			Type:       entries[0].SignalType(),
			States:     CalculateStates(entries, window),
			EntryCount: len(entries),
		}
		sig.BuildTimeIndex(window.Start)
		signals = append(signals, sig)
	}

	sort.Slice(signals, func(i, j int) bool {
		if signals[i].DeviceID != signals[j].DeviceID {
			return signals[i].DeviceID < signals[j].DeviceID
		}
		return signals[i].Name < signals[j].Name
	})
	return signals
}

// spanOf returns the log's declared range, or the entry span when the log
// carries none.
func spanOf(parsed *model.ParsedLog) model.TimeRange {
	if parsed.TimeRange != nil {
		return *parsed.TimeRange
	}

	window := model.TimeRange{Start: parsed.Entries[0].Timestamp, End: parsed.Entries[0].Timestamp}
	for _, entry := range parsed.Entries[1:] {
		if entry.Timestamp.Before(window.Start) {
			window.Start = entry.Timestamp
		}
		if entry.Timestamp.After(window.End) {
			window.End = entry.Timestamp
		}
	}
	return window
}
