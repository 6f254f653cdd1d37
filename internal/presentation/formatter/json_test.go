package formatter

import (
	"encoding/json"
	"testing"
)

func TestJSONFormatterFormat(t *testing.T) {
	output := captureStdout(t, func() error {
		return NewJSONFormatter().Format(sampleReport())
	})

	var got Report
	if err := json.Unmarshal([]byte(output), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, output)
	}

	if got.Root != "/var/log/plc" {
		t.Errorf("Root = %q, want /var/log/plc", got.Root)
	}
	if len(got.Files) != 2 {
		t.Errorf("Files = %d, want 2", len(got.Files))
	}
	if !got.Files[0].FromCache {
		t.Error("expected first file to be marked as cache hit")
	}
	if got.Files[1].Error != "no parser matched" {
		t.Errorf("Files[1].Error = %q", got.Files[1].Error)
	}
	if len(got.Signals) != 3 {
		t.Errorf("Signals = %d, want 3", len(got.Signals))
	}
	if got.Signals[1].DistinctValues != 12 {
		t.Errorf("Signals[1].DistinctValues = %d, want 12", got.Signals[1].DistinctValues)
	}
	if len(got.Hourly) != 2 {
		t.Errorf("Hourly = %d, want 2", len(got.Hourly))
	}
	if got.TotalEntries != 5000 || got.TotalTransitions != 913 {
		t.Errorf("totals = %d/%d, want 5000/913", got.TotalEntries, got.TotalTransitions)
	}
}

func TestJSONFormatterIndents(t *testing.T) {
	output := captureStdout(t, func() error {
		return NewJSONFormatter().Format(&Report{})
	})

	if output[0] != '{' {
		t.Fatalf("expected object output, got %q", output[:1])
	}
	if !json.Valid([]byte(output)) {
		t.Fatal("output is not valid JSON")
	}
}
