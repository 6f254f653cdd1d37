package layout

import (
	"testing"
)

func TestPadString(t *testing.T) {
	sizer := &Sizer{}

	tests := []struct {
		name      string
		input     string
		width     int
		leftAlign bool
		expected  string
	}{
		{
			name:      "left_align_pads_right",
			input:     "MOVE",
			width:     8,
			leftAlign: true,
			expected:  "MOVE    ",
		},
		{
			name:      "right_align_pads_left",
			input:     "42",
			width:     5,
			leftAlign: false,
			expected:  "   42",
		},
		{
			name:      "already_at_width",
			input:     "12345678",
			width:     8,
			leftAlign: true,
			expected:  "12345678",
		},
		{
			name:      "wider_than_width_unchanged",
			input:     "1234567890",
			width:     8,
			leftAlign: true,
			expected:  "1234567890",
		},
		{
			name:      "wide_runes_counted_by_display_width",
			input:     "搬送",
			width:     6,
			leftAlign: true,
			expected:  "搬送  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sizer.PadString(tt.input, tt.width, tt.leftAlign)
			if got != tt.expected {
				t.Errorf("PadString(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	sizer := &Sizer{}

	if got := sizer.TruncateString("SHORT", 10); got != "SHORT" {
		t.Errorf("Expected unchanged string, got %q", got)
	}

	got := sizer.TruncateString("B1ACNV13301-104@D19 -> MOVE_START", 12)
	if sizer.displayWidth(got) > 12 {
		t.Errorf("Truncated string too wide: %q", got)
	}
	if got[len(got)-len("…"):] != "…" {
		t.Errorf("Expected ellipsis suffix, got %q", got)
	}
}

func TestGetMaxWidth(t *testing.T) {
	// Not attached to a terminal under go test, so the fallback applies.
	width := sharedSizer.GetMaxWidth()
	if width < 60 || width > 120 {
		t.Errorf("GetMaxWidth out of range: %d", width)
	}
}
