package parser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plcscope/plcscope/internal/core/model"
)

func TestPLCDebugParseValidFile(t *testing.T) {
	content := `2025-09-22 13:00:00.100 [Debug] [/AreaA/Line01/CONV-01@B01] [INPUT2:I_MOVE_IN] (Boolean) : ON
2025-09-22 13:00:00.350 [Debug] [/AreaA/Line01/CONV-01@B01] [OUTPUT2:O_MOVE_IN_ACK] (Boolean) : OFF
2025-09-22 13:00:01.000 [Info] [LIFT-02] [PARAMETER2:TARGET_FLOOR] (Short) : 4
2025-09-22 13:00:02.500 [Debug] [/AreaA/Line01/STK-03@Crane] [PARAMETER2:JOB_ID] (String) : J-20250922-001
`
	path := writeLog(t, "debug.log", content)

	result := NewPLCDebugParser().Parse(path)

	require.True(t, result.Success())
	require.Len(t, result.Data.Entries, 4)
	assert.Empty(t, result.Errors)

	first := result.Data.Entries[0]
	assert.Equal(t, "CONV-01", first.DeviceID, "device ID strips path and @suffix")
	assert.Equal(t, "I_MOVE_IN", first.SignalName)
	assert.Equal(t, time.Date(2025, 9, 22, 13, 0, 0, 100e6, time.UTC), first.Timestamp)
	assert.True(t, first.Value.Equal(model.BoolValue(true)))

	assert.True(t, result.Data.Entries[1].Value.Equal(model.BoolValue(false)))
	assert.Equal(t, "LIFT-02", result.Data.Entries[2].DeviceID)
	assert.True(t, result.Data.Entries[2].Value.Equal(model.IntValue(4)))
	assert.True(t, result.Data.Entries[3].Value.Equal(model.StringValue("J-20250922-001")))

	assert.Equal(t, []string{"CONV-01", "LIFT-02", "STK-03"}, result.Data.Devices)
}

func TestPLCDebugParseSortsOutOfOrderTimestamps(t *testing.T) {
	content := `2025-09-22 13:00:05.000 [Debug] [CONV-01] [INPUT2:I_A] (Boolean) : ON
2025-09-22 13:00:01.000 [Debug] [CONV-01] [INPUT2:I_B] (Boolean) : OFF
2025-09-22 13:00:03.000 [Debug] [CONV-01] [INPUT2:I_C] (Boolean) : ON
`
	path := writeLog(t, "debug.log", content)

	result := NewPLCDebugParser().Parse(path)

	require.True(t, result.Success())
	require.Len(t, result.Data.Entries, 3)
	assert.Equal(t, "I_B", result.Data.Entries[0].SignalName)
	assert.Equal(t, "I_C", result.Data.Entries[1].SignalName)
	assert.Equal(t, "I_A", result.Data.Entries[2].SignalName)
}

func TestPLCDebugParseReportsBadLines(t *testing.T) {
	content := `2025-09-22 13:00:00.100 [Debug] [CONV-01] [INPUT2:I_A] (Boolean) : ON
this line is not a debug record
2025-09-22 13:00:00.300 [Debug] [CONV-01] [INPUT2:I_B] (Boolean) : MAYBE
2025-09-22 13:00:00.400 [Debug] [CONV-01] [PARAMETER2:COUNT] (Short) : twelve
`
	path := writeLog(t, "debug.log", content)

	result := NewPLCDebugParser().Parse(path)

	require.True(t, result.Success())
	assert.Len(t, result.Data.Entries, 1)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Contains(t, result.Errors[1].Reason, "invalid boolean value")
	assert.Contains(t, result.Errors[2].Reason, "invalid integer value")
}

func TestPLCDebugParseLargeFileKeepsEveryLine(t *testing.T) {
	// Enough lines to spread across all parse workers.
	var sb strings.Builder
	base := time.Date(2025, 9, 22, 13, 0, 0, 0, time.UTC)
	const count = 500
	for i := 0; i < count; i++ {
		ts := base.Add(time.Duration(i) * 100 * time.Millisecond)
		fmt.Fprintf(&sb, "%s [Debug] [/Line01/CONV-%02d] [INPUT2:I_STEP] (Short) : %d\n",
			ts.Format("2006-01-02 15:04:05.000"), i%7+1, i)
	}
	path := writeLog(t, "big.log", sb.String())

	result := NewPLCDebugParser().Parse(path)

	require.True(t, result.Success())
	require.Len(t, result.Data.Entries, count)
	assert.Empty(t, result.Errors)
	for i := 1; i < count; i++ {
		require.False(t, result.Data.Entries[i].Timestamp.Before(result.Data.Entries[i-1].Timestamp),
			"entries must stay in timestamp order")
	}
	assert.True(t, result.Data.Entries[0].Value.Equal(model.IntValue(0)))
	assert.True(t, result.Data.Entries[count-1].Value.Equal(model.IntValue(count-1)))
}

func TestPLCDebugParseMissingFile(t *testing.T) {
	result := NewPLCDebugParser().Parse("/no/such/debug.log")

	assert.False(t, result.Success())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Reason, "file not found")
}

func TestPLCDebugCanParse(t *testing.T) {
	debugPath := writeLog(t, "debug.log", `2025-09-22 13:00:00.100 [Debug] [CONV-01] [INPUT2:I_A] (Boolean) : ON
2025-09-22 13:00:00.200 [Debug] [CONV-01] [INPUT2:I_B] (Boolean) : OFF
`)
	fieldPath := writeLog(t, "field.log", "DEVICE_A MOTOR_START 10:30:45 true boolean\n")

	p := NewPLCDebugParser()
	assert.True(t, p.CanParse(debugPath))
	assert.False(t, p.CanParse(fieldPath))
}

func TestPLCDebugParseLineNumericBoolean(t *testing.T) {
	p := NewPLCDebugParser()

	entry, ok := p.ParseLine("2025-09-22 13:00:00.100 [Debug] [CONV-01] [OUTPUT2:O_RUN] (Boolean) : 1")
	require.True(t, ok)
	assert.True(t, entry.Value.Equal(model.BoolValue(true)))

	entry, ok = p.ParseLine("2025-09-22 13:00:00.100 [Debug] [CONV-01] [OUTPUT2:O_RUN] (Boolean) : 0")
	require.True(t, ok)
	assert.True(t, entry.Value.Equal(model.BoolValue(false)))
}
