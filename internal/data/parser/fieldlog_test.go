package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plcscope/plcscope/internal/core/model"
)

func writeLog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFieldLogParseValidFile(t *testing.T) {
	content := `DEVICE_A MOTOR_START 10:30:45 true boolean
DEVICE_A SENSOR_A 10:30:46 ready string
DEVICE_B COUNTER_1 10:30:47 100 integer
`
	path := writeLog(t, "field.log", content)

	result := NewFieldLogParser().Parse(path)

	require.True(t, result.Success())
	require.Len(t, result.Data.Entries, 3)
	assert.Empty(t, result.Errors)

	first := result.Data.Entries[0]
	assert.Equal(t, "DEVICE_A", first.DeviceID)
	assert.Equal(t, "MOTOR_START", first.SignalName)
	assert.True(t, first.Value.Equal(model.BoolValue(true)))
	assert.Equal(t, time.Date(2000, 1, 1, 10, 30, 45, 0, time.UTC), first.Timestamp)

	assert.True(t, result.Data.Entries[1].Value.Equal(model.StringValue("ready")))
	assert.True(t, result.Data.Entries[2].Value.Equal(model.IntValue(100)))

	assert.Equal(t, []string{"DEVICE_A::MOTOR_START", "DEVICE_A::SENSOR_A", "DEVICE_B::COUNTER_1"}, result.Data.Signals)
	assert.Equal(t, []string{"DEVICE_A", "DEVICE_B"}, result.Data.Devices)
}

func TestFieldLogParseKeepsValidLinesOnErrors(t *testing.T) {
	content := `DEVICE_A MOTOR_START 10:30:45 true boolean
not a log line
DEVICE_A MOTOR_START 25:00:00 true boolean
DEVICE_A COUNTER_1 10:30:47 twelve integer
DEVICE_B MOTOR_START 10:30:48 0 boolean
`
	path := writeLog(t, "field.log", content)

	result := NewFieldLogParser().Parse(path)

	require.True(t, result.Success())
	assert.Len(t, result.Data.Entries, 2)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Equal(t, 3, result.Errors[1].Line)
	assert.Contains(t, result.Errors[1].Reason, "invalid time format")
	assert.Contains(t, result.Errors[2].Reason, "invalid integer value")

	assert.True(t, result.Data.Entries[1].Value.Equal(model.BoolValue(false)))
}

func TestFieldLogParseEmptyFile(t *testing.T) {
	path := writeLog(t, "empty.log", "")

	result := NewFieldLogParser().Parse(path)

	assert.False(t, result.Success())
	assert.Empty(t, result.Errors)
}

func TestFieldLogParseMissingFile(t *testing.T) {
	result := NewFieldLogParser().Parse("/path/that/does/not/exist.log")

	assert.False(t, result.Success())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Reason, "file not found")
}

func TestFieldLogCanParse(t *testing.T) {
	fieldPath := writeLog(t, "field.log", "DEVICE_A MOTOR_START 10:30:45 true boolean\nDEVICE_B COUNTER_1 10:30:47 100 integer\n")
	debugPath := writeLog(t, "debug.log", "2025-09-22 13:00:00.199 [Debug] [Line01/CONV-01@Main] [INPUT2:I_MOVE_IN] (Boolean) : ON\n")

	p := NewFieldLogParser()
	assert.True(t, p.CanParse(fieldPath))
	assert.False(t, p.CanParse(debugPath))
}

func TestFieldLogParseLine(t *testing.T) {
	p := NewFieldLogParser()

	entry, ok := p.ParseLine("DEVICE_A MOTOR_START 10:30:45 1 boolean")
	require.True(t, ok)
	assert.True(t, entry.Value.Equal(model.BoolValue(true)))

	_, ok = p.ParseLine("DEVICE_A MOTOR_START 10:30:45 maybe boolean")
	assert.False(t, ok)

	// Trailing junk lands in the type token and is rejected
	_, ok = p.ParseLine("DEVICE_A MOTOR_START 10:30:45 true boolean extra")
	assert.False(t, ok)
}
