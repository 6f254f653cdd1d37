package model

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueEqual(t *testing.T) {
	assert.True(t, BoolValue(true).Equal(BoolValue(true)))
	assert.False(t, BoolValue(true).Equal(BoolValue(false)))
	assert.True(t, IntValue(100).Equal(IntValue(100)))
	assert.False(t, IntValue(100).Equal(IntValue(101)))
	assert.True(t, StringValue("RUN").Equal(StringValue("RUN")))

	// Same textual form but different type is a change
	assert.False(t, StringValue("true").Equal(BoolValue(true)))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "false", BoolValue(false).String())
	assert.Equal(t, "42", IntValue(42).String())
	assert.Equal(t, "IDLE", StringValue("IDLE").String())
}

func TestValueJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		json string
	}{
		{name: "boolean", in: BoolValue(true), json: "true"},
		{name: "integer", in: IntValue(1500), json: "1500"},
		{name: "string", in: StringValue("FAULT"), json: `"FAULT"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := sonic.Marshal(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(data))

			var out Value
			require.NoError(t, sonic.Unmarshal(data, &out))
			assert.True(t, tt.in.Equal(out))
		})
	}
}

func TestSignalKey(t *testing.T) {
	e := LogEntry{DeviceID: "CONV-01", SignalName: "MOTOR_RUN"}
	assert.Equal(t, "CONV-01::MOTOR_RUN", e.Key())
	assert.Equal(t, e.Key(), SignalKey("CONV-01", "MOTOR_RUN"))
}

func TestTimeRangeContains(t *testing.T) {
	start := time.Date(2025, 9, 22, 13, 0, 0, 0, time.UTC)
	r := TimeRange{Start: start, End: start.Add(time.Hour)}

	assert.True(t, r.Contains(start))
	assert.True(t, r.Contains(start.Add(30*time.Minute)))
	assert.False(t, r.Contains(start.Add(time.Hour)))
	assert.False(t, r.Contains(start.Add(-time.Nanosecond)))
	assert.Equal(t, time.Hour, r.Duration())
}

func TestNewParsedLogDerivesLookups(t *testing.T) {
	base := time.Date(2025, 9, 22, 13, 0, 0, 0, time.UTC)
	entries := []LogEntry{
		{DeviceID: "CONV-01", SignalName: "MOTOR_RUN", Timestamp: base.Add(5 * time.Second), Value: BoolValue(true)},
		{DeviceID: "LIFT-02", SignalName: "POSITION", Timestamp: base, Value: IntValue(3)},
		{DeviceID: "CONV-01", SignalName: "MOTOR_RUN", Timestamp: base.Add(10 * time.Second), Value: BoolValue(false)},
	}

	p := NewParsedLog(entries, nil)

	assert.Equal(t, []string{"CONV-01::MOTOR_RUN", "LIFT-02::POSITION"}, p.Signals)
	assert.Equal(t, []string{"CONV-01", "LIFT-02"}, p.Devices)
	require.NotNil(t, p.TimeRange)
	assert.Equal(t, base, p.TimeRange.Start)
	assert.Equal(t, base.Add(10*time.Second), p.TimeRange.End)
}

func TestNewParsedLogKeepsExplicitRange(t *testing.T) {
	base := time.Date(2025, 9, 22, 13, 0, 0, 0, time.UTC)
	explicit := &TimeRange{Start: base, End: base.Add(time.Hour)}
	entries := []LogEntry{
		{DeviceID: "CONV-01", SignalName: "MOTOR_RUN", Timestamp: base.Add(time.Minute), Value: BoolValue(true)},
	}

	p := NewParsedLog(entries, explicit)

	assert.Equal(t, explicit, p.TimeRange)
}

func TestNewParsedLogEmpty(t *testing.T) {
	p := NewParsedLog(nil, nil)

	assert.Empty(t, p.Entries)
	assert.Empty(t, p.Signals)
	assert.Empty(t, p.Devices)
	assert.Nil(t, p.TimeRange)
}

func TestParseResultSuccess(t *testing.T) {
	ok := ParseResult{Data: NewParsedLog(nil, nil)}
	assert.True(t, ok.Success())

	failed := ParseResult{Errors: []ParseError{{Line: 1, Reason: "unreadable file"}}}
	assert.False(t, failed.Success())
}
