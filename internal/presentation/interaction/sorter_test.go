package interaction

import (
	"testing"

	"github.com/plcscope/plcscope/internal/core/waveform"
)

func sortSignal(device, name string, states int) *waveform.Signal {
	return &waveform.Signal{
		Name:     name,
		DeviceID: device,
		Key:      device + "::" + name,
		States:   make([]waveform.State, states),
	}
}

func sortFixture() []*waveform.Signal {
	return []*waveform.Signal{
		sortSignal("B1ACNV13302-105@D20", "MOVE_START", 4),
		sortSignal("B1ACNV13301-104@D19", "UNIT_READY", 1),
		sortSignal("B1ACNV13301-104@D19", "CARRIER_CNT", 9),
	}
}

func keys(signals []*waveform.Signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.Key
	}
	return out
}

func TestSortByDeviceDefault(t *testing.T) {
	sorter := NewSignalSorter()
	signals := sortFixture()
	sorter.Sort(signals)

	want := []string{
		"B1ACNV13301-104@D19::CARRIER_CNT",
		"B1ACNV13301-104@D19::UNIT_READY",
		"B1ACNV13302-105@D20::MOVE_START",
	}
	for i, k := range keys(signals) {
		if k != want[i] {
			t.Errorf("Position %d = %s, want %s", i, k, want[i])
		}
	}
}

func TestSortByName(t *testing.T) {
	sorter := NewSignalSorter()
	sorter.CycleField() // device -> name
	if sorter.Field() != SortByName {
		t.Fatalf("Expected SortByName after one cycle, got %v", sorter.Field())
	}

	signals := sortFixture()
	sorter.Sort(signals)

	if signals[0].Name != "CARRIER_CNT" || signals[2].Name != "UNIT_READY" {
		t.Errorf("Name order wrong: %v", keys(signals))
	}
}

func TestSortByActivityDescending(t *testing.T) {
	sorter := NewSignalSorter()
	sorter.CycleField()
	sorter.CycleField() // device -> name -> activity
	if sorter.Field() != SortByActivity {
		t.Fatalf("Expected SortByActivity, got %v", sorter.Field())
	}
	if sorter.Order() != SortDescending {
		t.Errorf("Activity sort should default to descending")
	}

	signals := sortFixture()
	sorter.Sort(signals)

	if len(signals[0].States) != 9 {
		t.Errorf("Busiest signal should sort first, got %s", signals[0].Key)
	}
	if len(signals[2].States) != 1 {
		t.Errorf("Quietest signal should sort last, got %s", signals[2].Key)
	}
}

func TestToggleOrder(t *testing.T) {
	sorter := NewSignalSorter()
	sorter.ToggleOrder()

	signals := sortFixture()
	sorter.Sort(signals)

	if signals[0].DeviceID != "B1ACNV13302-105@D20" {
		t.Errorf("Descending device order wrong: %v", keys(signals))
	}
}

func TestCycleFieldWrapsAround(t *testing.T) {
	sorter := NewSignalSorter()
	sorter.CycleField()
	sorter.CycleField()
	sorter.CycleField()

	if sorter.Field() != SortByDevice {
		t.Errorf("Expected wrap back to SortByDevice, got %v", sorter.Field())
	}
	if sorter.Order() != SortAscending {
		t.Errorf("Expected ascending after wrap, got %v", sorter.Order())
	}
}

func TestFieldLabel(t *testing.T) {
	sorter := NewSignalSorter()
	labels := []string{"device", "name", "activity"}
	for _, want := range labels {
		if got := sorter.FieldLabel(); got != want {
			t.Errorf("FieldLabel = %s, want %s", got, want)
		}
		sorter.CycleField()
	}
}
