package layout

import (
	"strings"
	"testing"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/util"
)

var axisBase = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

func TestAxisRenderMinuteWindow(t *testing.T) {
	if err := util.InitializeTimeProvider("UTC"); err != nil {
		t.Fatal(err)
	}

	visible := model.TimeRange{Start: axisBase, End: axisBase.Add(time.Minute)}
	ruler, labels := NewAxis().Render(visible, 60)

	rulerRunes := []rune(ruler)
	if len(rulerRunes) != 60 {
		t.Fatalf("Expected ruler width 60, got %d", len(rulerRunes))
	}
	for i, r := range rulerRunes {
		want := '─'
		if i%10 == 0 {
			want = '┼'
		}
		if r != want {
			t.Errorf("Ruler col %d = %q, want %q", i, r, want)
		}
	}

	if len([]rune(labels)) != 60 {
		t.Fatalf("Expected label width 60, got %d", len([]rune(labels)))
	}
	want := "08:00:00  08:00:10  08:00:20  08:00:30  08:00:40  08:00:50"
	if got := strings.TrimRight(labels, " "); got != want {
		t.Errorf("Labels = %q, want %q", got, want)
	}
}

func TestAxisRenderSubSecondPrecision(t *testing.T) {
	if err := util.InitializeTimeProvider("UTC"); err != nil {
		t.Fatal(err)
	}

	visible := model.TimeRange{Start: axisBase, End: axisBase.Add(5 * time.Second)}
	_, labels := NewAxis().Render(visible, 50)

	if !strings.Contains(labels, "08:00:00.000") {
		t.Errorf("Expected millisecond labels, got %q", labels)
	}
	if !strings.Contains(labels, "08:00:02.000") {
		t.Errorf("Expected 2s tick label, got %q", labels)
	}
}

func TestAxisRenderDayWindow(t *testing.T) {
	if err := util.InitializeTimeProvider("UTC"); err != nil {
		t.Fatal(err)
	}

	visible := model.TimeRange{Start: axisBase, End: axisBase.Add(48 * time.Hour)}
	_, labels := NewAxis().Render(visible, 80)

	if !strings.Contains(labels, "06-10") && !strings.Contains(labels, "06-11") {
		t.Errorf("Expected date-bearing labels for multi-day span, got %q", labels)
	}
}

func TestAxisRenderEmptyWindow(t *testing.T) {
	visible := model.TimeRange{Start: axisBase, End: axisBase}
	ruler, labels := NewAxis().Render(visible, 20)

	if ruler != strings.Repeat("─", 20) {
		t.Errorf("Expected bare ruler, got %q", ruler)
	}
	if labels != strings.Repeat(" ", 20) {
		t.Errorf("Expected blank labels, got %q", labels)
	}
}

func TestTickStep(t *testing.T) {
	axis := NewAxis()

	tests := []struct {
		name     string
		span     float64
		width    int
		spacing  int
		expected float64
	}{
		{name: "one_minute", span: 60, width: 60, spacing: 10, expected: 10},
		{name: "five_seconds", span: 5, width: 50, spacing: 14, expected: 2},
		{name: "one_hour", span: 3600, width: 72, spacing: 10, expected: 600},
		{name: "huge_span_caps", span: 1e9, width: 10, spacing: 10, expected: 604800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := axis.tickStep(tt.span, tt.width, tt.spacing); got != tt.expected {
				t.Errorf("tickStep(%v) = %v, want %v", tt.span, got, tt.expected)
			}
		})
	}
}
