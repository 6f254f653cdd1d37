package validation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/core/waveform"
)

var valBase = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

const handshakeRules = `
validation_rules:
  - name: carrier-handshake
    description: Carrier must be read and moved in order
    device_pattern: "B1ACNV*"
    patterns:
      - pattern_type: sequence
        id: carrier_handshake
        severity: error
        sequence:
          - step: 1
            signal: CARRIER_DETECTED
            operator: "=="
            value: true
            description: Carrier arrives at station
          - step: 2
            signal: CARRIER_ID_READ
            operator: "=="
            value: "SET"
            timeout: 2.0
          - step: 3
            signal: CARRIER_GIVEN_MOVE
            operator: "=="
            value: true
            timeout: 1.0
          - step: 4
            signal: CONVEYOR_MOVE
            operator: "=="
            value: true
            timeout: 0.5
`

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func entry(device, signal string, offset time.Duration, value model.Value) model.LogEntry {
	return model.LogEntry{
		DeviceID:   device,
		SignalName: signal,
		Timestamp:  valBase.Add(offset),
		Value:      value,
	}
}

func signalsFrom(t *testing.T, entries []model.LogEntry) []*waveform.Signal {
	t.Helper()
	window := model.TimeRange{Start: valBase, End: valBase.Add(time.Minute)}
	return waveform.BuildSignals(model.NewParsedLog(entries, &window))
}

func handshakeValidator(t *testing.T) *SignalValidator {
	t.Helper()
	v, err := NewSignalValidator(writeRules(t, handshakeRules))
	require.NoError(t, err)
	return v
}

func TestSequencePerfectRunHasNoViolations(t *testing.T) {
	device := "B1ACNV13301-104"
	entries := []model.LogEntry{
		entry(device, "CARRIER_DETECTED", 0, model.BoolValue(true)),
		entry(device, "CARRIER_ID_READ", 500*time.Millisecond, model.StringValue("SET")),
		entry(device, "CARRIER_GIVEN_MOVE", time.Second, model.BoolValue(true)),
		entry(device, "CONVEYOR_MOVE", 1300*time.Millisecond, model.BoolValue(true)),
		entry(device, "CARRIER_DETECTED", 8*time.Second, model.BoolValue(false)),
		entry(device, "CONVEYOR_MOVE", 9*time.Second, model.BoolValue(false)),
	}

	violations := handshakeValidator(t).ValidateDevice(device, signalsFrom(t, entries))
	assert.Empty(t, violations)
}

func TestSequenceTimeoutViolation(t *testing.T) {
	device := "B1ACNV13302-104"
	// The ID read arrives after the 2s step deadline.
	entries := []model.LogEntry{
		entry(device, "CARRIER_DETECTED", 0, model.BoolValue(true)),
		entry(device, "CARRIER_ID_READ", 3*time.Second, model.StringValue("SET")),
		entry(device, "CARRIER_GIVEN_MOVE", 4*time.Second, model.BoolValue(true)),
		entry(device, "CONVEYOR_MOVE", 4300*time.Millisecond, model.BoolValue(true)),
	}

	violations := handshakeValidator(t).ValidateDevice(device, signalsFrom(t, entries))
	require.Len(t, violations, 1)

	v := violations[0]
	assert.Equal(t, SeverityError, v.Severity)
	assert.Equal(t, "carrier_handshake: Step 2", v.RuleName)
	assert.Contains(t, v.Message, "Sequence timeout")
	assert.Equal(t, "CARRIER_ID_READ", v.SignalName)
	assert.Contains(t, v.Expected, "CARRIER_ID_READ=SET")
	assert.True(t, v.Timestamp.Equal(valBase.Add(3*time.Second)))
}

func TestSequenceOutOfOrderViolation(t *testing.T) {
	device := "B1ACNV13303-104"
	// The conveyor moves before the carrier was given the move.
	entries := []model.LogEntry{
		entry(device, "CARRIER_DETECTED", 0, model.BoolValue(true)),
		entry(device, "CARRIER_ID_READ", 500*time.Millisecond, model.StringValue("SET")),
		entry(device, "CONVEYOR_MOVE", time.Second, model.BoolValue(true)),
		entry(device, "CARRIER_GIVEN_MOVE", 1500*time.Millisecond, model.BoolValue(true)),
	}

	violations := handshakeValidator(t).ValidateDevice(device, signalsFrom(t, entries))
	require.Len(t, violations, 1)

	v := violations[0]
	assert.Equal(t, "carrier_handshake: Step 3", v.RuleName)
	assert.Equal(t, "Sequence violated: step out of order", v.Message)
	assert.Equal(t, "CONVEYOR_MOVE", v.SignalName)
	assert.Equal(t, "CONVEYOR_MOVE = true", v.Actual)
	assert.Contains(t, v.Expected, "CARRIER_GIVEN_MOVE == true")
}

func TestSequenceIncompleteReportedAtEnd(t *testing.T) {
	device := "B1ACNV13304-104"
	entries := []model.LogEntry{
		entry(device, "CARRIER_DETECTED", 0, model.BoolValue(true)),
		entry(device, "CARRIER_ID_READ", 500*time.Millisecond, model.StringValue("SET")),
	}

	violations := handshakeValidator(t).ValidateDevice(device, signalsFrom(t, entries))
	require.Len(t, violations, 1)

	v := violations[0]
	assert.Equal(t, SeverityWarning, v.Severity, "partial matches default to warning severity")
	assert.Equal(t, "SEQUENCE_INCOMPLETE", v.SignalName)
	assert.Contains(t, v.Message, "reached step 3")
}

func TestSequenceSameStepGroupCompletesInAnyOrder(t *testing.T) {
	const rules = `
validation_rules:
  - name: diverter-init
    device_pattern: "DIV-*"
    patterns:
      - pattern_type: sequence
        id: diverter_init
        sequence:
          - {step: 1, signal: INIT_START, operator: "==", value: true}
          - {step: 2, signal: SENSOR_A_READY, operator: "==", value: true}
          - {step: 2, signal: SENSOR_B_READY, operator: "==", value: true}
          - {step: 2, signal: MOTOR_CALIBRATED, operator: "==", value: true}
          - {step: 3, signal: INIT_COMPLETE, operator: "==", value: true}
`
	v, err := NewSignalValidator(writeRules(t, rules))
	require.NoError(t, err)

	device := "DIV-01"
	// The step 2 signals arrive in a different order than declared.
	entries := []model.LogEntry{
		entry(device, "INIT_START", 0, model.BoolValue(true)),
		entry(device, "MOTOR_CALIBRATED", time.Second, model.BoolValue(true)),
		entry(device, "SENSOR_A_READY", 2*time.Second, model.BoolValue(true)),
		entry(device, "SENSOR_B_READY", 3*time.Second, model.BoolValue(true)),
		entry(device, "INIT_COMPLETE", 4*time.Second, model.BoolValue(true)),
	}

	violations := v.ValidateDevice(device, signalsFrom(t, entries))
	assert.Empty(t, violations)
}

func TestSequenceAllowsIntermediateChangesWhenConfigured(t *testing.T) {
	const rules = `
validation_rules:
  - name: tolerant-handshake
    device_pattern: "*"
    patterns:
      - pattern_type: sequence
        id: tolerant
        options:
          allow_intermediate_changes: true
        sequence:
          - {step: 1, signal: START, operator: "==", value: true}
          - {step: 2, signal: DONE, operator: "==", value: true}
`
	v, err := NewSignalValidator(writeRules(t, rules))
	require.NoError(t, err)

	device := "CONV-01"
	entries := []model.LogEntry{
		entry(device, "START", 0, model.BoolValue(true)),
		entry(device, "NOISE", time.Second, model.BoolValue(true)),
		entry(device, "DONE", 2*time.Second, model.BoolValue(true)),
	}

	violations := v.ValidateDevice(device, signalsFrom(t, entries))
	assert.Empty(t, violations, "unrelated changes are tolerated when allow_intermediate_changes is set")
}

func TestRequiredSignalsMissing(t *testing.T) {
	const rules = `
validation_rules:
  - name: required-check
    device_pattern: "*"
    required_signals:
      - HEARTBEAT
`
	v, err := NewSignalValidator(writeRules(t, rules))
	require.NoError(t, err)

	device := "CONV-01"
	entries := []model.LogEntry{entry(device, "RUN", 0, model.BoolValue(true))}

	violations := v.ValidateDevice(device, signalsFrom(t, entries))
	require.Len(t, violations, 1)
	assert.Equal(t, SeverityError, violations[0].Severity)
	assert.Equal(t, "HEARTBEAT", violations[0].SignalName)
	assert.Contains(t, violations[0].Message, "Required signal 'HEARTBEAT' not found")
	assert.True(t, violations[0].Timestamp.IsZero())
}

func TestUnknownPatternTypeReportsWarning(t *testing.T) {
	const rules = `
validation_rules:
  - name: odd-rule
    device_pattern: "*"
    patterns:
      - pattern_type: flapping
`
	v, err := NewSignalValidator(writeRules(t, rules))
	require.NoError(t, err)

	device := "CONV-01"
	entries := []model.LogEntry{entry(device, "RUN", 0, model.BoolValue(true))}

	violations := v.ValidateDevice(device, signalsFrom(t, entries))
	require.Len(t, violations, 1)
	assert.Equal(t, SeverityWarning, violations[0].Severity)
	assert.Contains(t, violations[0].Message, "Unknown pattern type: flapping")
}

func TestValidateAllGroupsByDeviceAndAppliesPatternFilter(t *testing.T) {
	const rules = `
validation_rules:
  - name: conveyor-required
    device_pattern: "CONV-*"
    required_signals:
      - HEARTBEAT
`
	v, err := NewSignalValidator(writeRules(t, rules))
	require.NoError(t, err)

	entries := []model.LogEntry{
		entry("CONV-01", "RUN", 0, model.BoolValue(true)),
		entry("LIFT-02", "UP", 0, model.BoolValue(true)),
	}

	byDevice := v.ValidateAll(signalsFrom(t, entries))
	require.Len(t, byDevice, 1, "the rule only matches conveyor devices")
	assert.Len(t, byDevice["CONV-01"], 1)
}

func TestViolationLimitsAreEnforced(t *testing.T) {
	const rules = `
validation_settings:
  max_violations_per_device: 1
validation_rules:
  - name: required-check
    device_pattern: "*"
    required_signals:
      - SIG_A
      - SIG_B
`
	v, err := NewSignalValidator(writeRules(t, rules))
	require.NoError(t, err)

	device := "CONV-01"
	entries := []model.LogEntry{entry(device, "RUN", 0, model.BoolValue(true))}

	violations := v.ValidateDevice(device, signalsFrom(t, entries))
	assert.Len(t, violations, 1, "the per-device cap truncates the findings")
}

func TestDisabledSettingsSkipValidation(t *testing.T) {
	const rules = `
validation_settings:
  enabled: false
validation_rules:
  - name: required-check
    device_pattern: "*"
    required_signals:
      - SIG_A
`
	v, err := NewSignalValidator(writeRules(t, rules))
	require.NoError(t, err)

	device := "CONV-01"
	entries := []model.LogEntry{entry(device, "RUN", 0, model.BoolValue(true))}

	assert.Empty(t, v.ValidateDevice(device, signalsFrom(t, entries)))
}

func TestViolationString(t *testing.T) {
	v := Violation{
		DeviceID:   "CONV-01",
		SignalName: "RUN",
		Timestamp:  valBase,
		Severity:   SeverityError,
		RuleName:   "r",
		Message:    "went wrong",
		Expected:   "RUN=true",
		Actual:     "RUN=false",
	}
	s := v.String()
	assert.Contains(t, s, "[ERROR]")
	assert.Contains(t, s, "2024-03-15 10:00:00.000")
	assert.Contains(t, s, "(expected: RUN=true, actual: RUN=false)")

	noPosition := Violation{DeviceID: "CONV-01", SignalName: "RUN", Severity: SeverityInfo, Message: "m"}
	assert.NotContains(t, noPosition.String(), "0001", "zero timestamps stay out of the text")
}
