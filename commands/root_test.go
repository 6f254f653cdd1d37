package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/core/validation"
)

func TestParseWindowTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{
			name:     "millisecond precision",
			input:    "2025-06-10 08:15:30.250",
			expected: time.Date(2025, 6, 10, 8, 15, 30, 250_000_000, time.UTC),
		},
		{
			name:     "second precision",
			input:    "2025-06-10 08:15:30",
			expected: time.Date(2025, 6, 10, 8, 15, 30, 0, time.UTC),
		},
		{
			name:     "bare date",
			input:    "2025-06-10",
			expected: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseWindowTime(tt.input, time.UTC)
			require.NoError(t, err)
			assert.True(t, result.Equal(tt.expected), "got %s, want %s", result, tt.expected)
		})
	}

	_, err := parseWindowTime("half past eight", time.UTC)
	assert.ErrorContains(t, err, "unrecognized time")
}

func TestLocationFor(t *testing.T) {
	loc, err := locationFor("Local")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = locationFor("")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = locationFor("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = locationFor("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestFlattenViolationsOrdersByDevice(t *testing.T) {
	byDevice := map[string][]validation.Violation{
		"CONV-02": {
			{DeviceID: "CONV-02", SignalName: "MOVE", Severity: validation.SeverityError},
		},
		"CONV-01": {
			{DeviceID: "CONV-01", SignalName: "READY", Severity: validation.SeverityWarning},
			{DeviceID: "CONV-01", SignalName: "FAULT", Severity: validation.SeverityError},
		},
	}

	flat := flattenViolations(byDevice)
	require.Len(t, flat, 3)
	assert.Equal(t, "CONV-01", flat[0].DeviceID)
	assert.Equal(t, "CONV-01", flat[1].DeviceID)
	assert.Equal(t, "CONV-02", flat[2].DeviceID)
}

func TestParseFailureMessage(t *testing.T) {
	withErrors := model.ParseResult{Errors: []model.ParseError{
		{Line: 3, Reason: "no parser matched"},
	}}
	assert.Equal(t, "no parser matched", parseFailureMessage(withErrors))

	assert.Equal(t, "no entries parsed", parseFailureMessage(model.ParseResult{}))
}

func TestEffectiveConfigFlagOverrides(t *testing.T) {
	// Point the default config path at an empty home so Load falls back
	// to defaults.
	t.Setenv("HOME", t.TempDir())

	cfg, err := effectiveConfig()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)

	pf := rootCmd.PersistentFlags()
	require.NoError(t, pf.Set("log-level", "debug"))
	require.NoError(t, pf.Set("chunk-duration", "10m"))
	require.NoError(t, pf.Set("max-chunks", "8"))

	cfg, err = effectiveConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10*time.Minute, cfg.ChunkDuration)
	assert.Equal(t, 8, cfg.MaxChunks)

	require.NoError(t, pf.Set("chunk-duration", "-5m"))
	_, err = effectiveConfig()
	assert.ErrorContains(t, err, "chunk duration must be positive")
}
