package interaction

import (
	"sort"

	"github.com/plcscope/plcscope/internal/core/waveform"
)

// SortField represents the field to sort signal rows by
type SortField int

const (
	SortByDevice SortField = iota
	SortByName
	SortByActivity
)

// SortOrder represents the sort order
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// SignalSorter handles ordering of signal rows in the browser
type SignalSorter struct {
	field SortField
	order SortOrder
}

// NewSignalSorter creates a sorter with the default device ordering
func NewSignalSorter() *SignalSorter {
	return &SignalSorter{
		field: SortByDevice,
		order: SortAscending,
	}
}

func (s *SignalSorter) Field() SortField {
	return s.field
}

func (s *SignalSorter) Order() SortOrder {
	return s.order
}

// CycleField advances to the next sort field, wrapping around. Switching
// to activity flips to descending since busiest-first is what you want
// there.
func (s *SignalSorter) CycleField() {
	s.field = (s.field + 1) % 3
	if s.field == SortByActivity {
		s.order = SortDescending
	} else {
		s.order = SortAscending
	}
}

// ToggleOrder flips between ascending and descending
func (s *SignalSorter) ToggleOrder() {
	if s.order == SortAscending {
		s.order = SortDescending
	} else {
		s.order = SortAscending
	}
}

// Sort orders the signals in place based on current settings. Ties fall
// back to the signal key so the ordering is stable across refreshes.
func (s *SignalSorter) Sort(signals []*waveform.Signal) {
	sort.Slice(signals, func(i, j int) bool {
		var less bool
		tie := false

		switch s.field {
		case SortByDevice:
			if signals[i].DeviceID == signals[j].DeviceID {
				tie = true
			} else {
				less = signals[i].DeviceID < signals[j].DeviceID
			}
		case SortByName:
			if signals[i].Name == signals[j].Name {
				tie = true
			} else {
				less = signals[i].Name < signals[j].Name
			}
		case SortByActivity:
			ti, tj := len(signals[i].States), len(signals[j].States)
			if ti == tj {
				tie = true
			} else {
				less = ti < tj
			}
		}

		if tie {
			return signals[i].Key < signals[j].Key
		}
		if s.order == SortDescending {
			return !less
		}
		return less
	})
}

// FieldLabel names the current sort field for the footer
func (s *SignalSorter) FieldLabel() string {
	switch s.field {
	case SortByName:
		return "name"
	case SortByActivity:
		return "activity"
	default:
		return "device"
	}
}
