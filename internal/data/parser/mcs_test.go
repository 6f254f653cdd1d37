package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plcscope/plcscope/internal/core/model"
)

func TestMCSParseCommandHeader(t *testing.T) {
	content := `2025-09-22 13:00:00.123 [ADD=CMD001, CAR-100] [From=ST01] [To=ST09] [Priority=5] [IsBoost=TRUE]
`
	path := writeLog(t, "mcs.log", content)

	result := NewMCSParser().Parse(path)

	require.True(t, result.Success())
	require.Len(t, result.Data.Entries, 6)

	byName := map[string]model.LogEntry{}
	for _, e := range result.Data.Entries {
		assert.Equal(t, "CAR-100", e.DeviceID, "carrier ID acts as the device ID")
		byName[e.SignalName] = e
	}

	assert.True(t, byName["_Action"].Value.Equal(model.StringValue("ADD")))
	assert.True(t, byName["_CommandID"].Value.Equal(model.StringValue("CMD001")))
	assert.True(t, byName["From"].Value.Equal(model.StringValue("ST01")))
	assert.True(t, byName["Priority"].Value.Equal(model.IntValue(5)))
	assert.True(t, byName["IsBoost"].Value.Equal(model.BoolValue(true)))
}

func TestMCSParseCarrierOnlyHeader(t *testing.T) {
	path := writeLog(t, "mcs.log", "2025-09-22 13:00:01.000 [REMOVE=CAR-200]\n")

	result := NewMCSParser().Parse(path)

	require.True(t, result.Success())
	require.Len(t, result.Data.Entries, 1)
	entry := result.Data.Entries[0]
	assert.Equal(t, "CAR-200", entry.DeviceID)
	assert.Equal(t, "_Action", entry.SignalName)
	assert.True(t, entry.Value.Equal(model.StringValue("REMOVE")))
}

func TestMCSParseNormalizesAndFilters(t *testing.T) {
	content := `2025-09-22 13:00:00.500 [UPDATE=CAR-100] [CarrierLoc=ST05] [TransferState=4] [Memo=None] [Note=]
`
	path := writeLog(t, "mcs.log", content)

	result := NewMCSParser().Parse(path)

	require.True(t, result.Success())
	require.Len(t, result.Data.Entries, 3)

	byName := map[string]model.LogEntry{}
	for _, e := range result.Data.Entries {
		byName[e.SignalName] = e
	}

	_, hasAlias := byName["CurrentLocation"]
	assert.True(t, hasAlias, "CarrierLoc is normalized to CurrentLocation")
	assert.True(t, byName["TransferState"].Value.Equal(model.StringValue("4")),
		"state codes stay strings even when numeric")
	assert.NotContains(t, byName, "Memo")
	assert.NotContains(t, byName, "Note")
}

func TestMCSParseSkipsFreeFormLines(t *testing.T) {
	content := `MCS transfer service started
2025-09-22 13:00:02.000 [ADD=CAR-300]
--- heartbeat ok ---
`
	path := writeLog(t, "mcs.log", content)

	result := NewMCSParser().Parse(path)

	require.True(t, result.Success())
	assert.Len(t, result.Data.Entries, 1)
	assert.Empty(t, result.Errors, "free-form lines are not errors in this format")
}

func TestMCSParseSortsWhenOutOfOrder(t *testing.T) {
	content := `2025-09-22 13:00:05.000 [ADD=CAR-2]
2025-09-22 13:00:01.000 [ADD=CAR-1]
`
	path := writeLog(t, "mcs.log", content)

	result := NewMCSParser().Parse(path)

	require.True(t, result.Success())
	require.Len(t, result.Data.Entries, 2)
	assert.Equal(t, "CAR-1", result.Data.Entries[0].DeviceID)
	assert.Equal(t, "CAR-2", result.Data.Entries[1].DeviceID)
}

func TestMCSParseTimeWindow(t *testing.T) {
	content := `2025-09-22 13:00:05.000 [ADD=CAR-1]
2025-09-22 13:00:12.000 [UPDATE=CAR-1] [CarrierLoc=ST02]
2025-09-22 13:00:15.000 [UPDATE=CAR-1] [CarrierLoc=ST03]
2025-09-22 13:00:25.000 [REMOVE=CAR-1]
`
	path := writeLog(t, "mcs.log", content)

	window := model.TimeRange{
		Start: time.Date(2025, 9, 22, 13, 0, 10, 0, time.UTC),
		End:   time.Date(2025, 9, 22, 13, 0, 20, 0, time.UTC),
	}
	result := NewMCSParser().ParseTimeWindow(path, window)

	require.True(t, result.Success())
	require.Len(t, result.Data.Entries, 4, "two in-window lines, two entries each")
	for _, e := range result.Data.Entries {
		assert.True(t, window.Contains(e.Timestamp))
	}
	require.NotNil(t, result.Data.TimeRange)
	assert.Equal(t, window, *result.Data.TimeRange, "result keeps the requested window, not the entry span")
}

func TestMCSParseTimeWindowEmptyStillSucceeds(t *testing.T) {
	path := writeLog(t, "mcs.log", "2025-09-22 13:00:05.000 [ADD=CAR-1]\n")

	window := model.TimeRange{
		Start: time.Date(2025, 9, 22, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 9, 22, 15, 0, 0, 0, time.UTC),
	}
	result := NewMCSParser().ParseTimeWindow(path, window)

	require.True(t, result.Success())
	assert.Empty(t, result.Data.Entries)
	require.NotNil(t, result.Data.TimeRange)
	assert.Equal(t, window, *result.Data.TimeRange)
}

func TestMCSCanParse(t *testing.T) {
	mcsPath := writeLog(t, "mcs.log", `2025-09-22 13:00:00.100 [ADD=CMD001, CAR-100] [From=ST01]
2025-09-22 13:00:01.100 [UPDATE=CAR-100] [CarrierLoc=ST02]
`)
	fieldPath := writeLog(t, "field.log", "DEVICE_A MOTOR_START 10:30:45 true boolean\n")

	p := NewMCSParser()
	assert.True(t, p.CanParse(mcsPath))
	assert.False(t, p.CanParse(fieldPath))
}
