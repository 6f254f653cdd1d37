package formatter

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/data/aggregator"
)

// captureStdout runs a formatter and returns what it printed.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = old
	data, _ := io.ReadAll(r)

	if fnErr != nil {
		t.Fatalf("Format() error = %v", fnErr)
	}
	return string(data)
}

func sampleReport() *Report {
	first := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	last := first.Add(70 * time.Minute)

	return &Report{
		GeneratedAt: last,
		Root:        "/var/log/plc",
		Files: []FileReport{
			{
				Path:        "/var/log/plc/line1.log",
				Format:      "fieldlog",
				StartTime:   first,
				EndTime:     last,
				EntryCount:  5000,
				DeviceCount: 2,
				SignalCount: 3,
				FromCache:   true,
			},
			{
				Path:  "/var/log/plc/broken.log",
				Error: "no parser matched",
			},
		},
		Signals: []aggregator.SignalStats{
			{
				Key: "B1ACNV13301-104::B", DeviceID: "B1ACNV13301-104", SignalName: "B",
				Type: model.SignalBoolean, EntryCount: 4200, Transitions: 310,
				DistinctValues: 2, FirstSeen: first, LastSeen: last,
			},
			{
				Key: "B1ACNV13301-104::Step", DeviceID: "B1ACNV13301-104", SignalName: "Step",
				Type: model.SignalInteger, EntryCount: 600, Transitions: 599,
				DistinctValues: 12, FirstSeen: first, LastSeen: last,
			},
			{
				Key: "B1ACPT15001-104::Status", DeviceID: "B1ACPT15001-104", SignalName: "Status",
				Type: model.SignalString, EntryCount: 200, Transitions: 4,
				DistinctValues: 3, FirstSeen: first, LastSeen: last,
			},
		},
		Hourly: []aggregator.HourlyData{
			{Hour: first.Unix(), EntryCount: 4000, Transitions: 700, ActiveSignals: 3},
			{Hour: first.Add(time.Hour).Unix(), EntryCount: 1000, Transitions: 213, ActiveSignals: 2},
		},
		TotalEntries:     5000,
		TotalTransitions: 913,
	}
}
