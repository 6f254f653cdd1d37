package mapview

import (
	"sort"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
)

// UnitState is the current display state of one layout unit.
type UnitState struct {
	UnitID  string
	Color   string
	Overlay *TextOverlay
}

// StateChange records a unit changing color or overlay at a point in time.
type StateChange struct {
	UnitID    string
	Color     string
	Overlay   *TextOverlay
	Timestamp time.Time
}

// UnitStateModel folds log entries through the device map and color policy
// and tracks the resulting color per unit. It is not safe for concurrent
// use.
type UnitStateModel struct {
	devices  *DeviceUnitMap
	policy   *ColorPolicy
	colors   map[string]string
	overlays map[string]*TextOverlay
}

func NewUnitStateModel(devices *DeviceUnitMap, policy *ColorPolicy) *UnitStateModel {
	return &UnitStateModel{
		devices:  devices,
		policy:   policy,
		colors:   make(map[string]string),
		overlays: make(map[string]*TextOverlay),
	}
}

// Apply folds one entry into the model. It returns the resulting state
// change, or false when the entry leaves the unit's color and overlay as
// they were. Devices no mapping rule covers fall back to their own id.
func (m *UnitStateModel) Apply(entry model.LogEntry) (StateChange, bool) {
	unit, ok := m.devices.Resolve(entry.DeviceID)
	if !ok {
		unit = entry.DeviceID
	}

	prevColor := m.colors[unit]
	prevOverlay := m.overlays[unit]
	color, overlay := m.policy.ColorFor(unit, entry.SignalName, entry.Value, prevColor)
	if color == prevColor && overlay.equal(prevOverlay) {
		return StateChange{}, false
	}

	m.colors[unit] = color
	m.overlays[unit] = overlay
	return StateChange{
		UnitID:    unit,
		Color:     color,
		Overlay:   overlay,
		Timestamp: entry.Timestamp,
	}, true
}

// Replay folds entries in order and collects every state change.
func (m *UnitStateModel) Replay(entries []model.LogEntry) []StateChange {
	var changes []StateChange
	for _, entry := range entries {
		if change, changed := m.Apply(entry); changed {
			changes = append(changes, change)
		}
	}
	return changes
}

// ColorOf returns the current color of a unit, or false if no entry has
// touched it yet.
func (m *UnitStateModel) ColorOf(unitID string) (string, bool) {
	color, ok := m.colors[unitID]
	return color, ok
}

// OverlayOf returns the unit's current text overlay, or nil.
func (m *UnitStateModel) OverlayOf(unitID string) *TextOverlay {
	return m.overlays[unitID]
}

// States returns the current state of every unit seen so far, sorted by
// unit id.
func (m *UnitStateModel) States() []UnitState {
	states := make([]UnitState, 0, len(m.colors))
	for unit, color := range m.colors {
		states = append(states, UnitState{
			UnitID:  unit,
			Color:   color,
			Overlay: m.overlays[unit],
		})
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].UnitID < states[j].UnitID
	})
	return states
}
