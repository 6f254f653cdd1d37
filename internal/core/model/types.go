package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
)

// SignalType classifies the value carried by a signal
type SignalType string

const (
	SignalBoolean SignalType = "boolean"
	SignalString  SignalType = "string"
	SignalInteger SignalType = "integer"
)

// Value is the typed payload of a log entry. Exactly one of the payload
// fields is meaningful, selected by Type.
type Value struct {
	Type SignalType
	Bool bool
	Int  int64
	Str  string
}

func BoolValue(b bool) Value {
	return Value{Type: SignalBoolean, Bool: b}
}

func IntValue(i int64) Value {
	return Value{Type: SignalInteger, Int: i}
}

func StringValue(s string) Value {
	return Value{Type: SignalString, Str: s}
}

// Equal reports whether two values have the same type and payload
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case SignalBoolean:
		return v.Bool == other.Bool
	case SignalInteger:
		return v.Int == other.Int
	default:
		return v.Str == other.Str
	}
}

func (v Value) String() string {
	switch v.Type {
	case SignalBoolean:
		return strconv.FormatBool(v.Bool)
	case SignalInteger:
		return strconv.FormatInt(v.Int, 10)
	default:
		return v.Str
	}
}

// MarshalJSON emits the native JSON type for the payload
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Type {
	case SignalBoolean:
		return sonic.Marshal(v.Bool)
	case SignalInteger:
		return sonic.Marshal(v.Int)
	default:
		return sonic.Marshal(v.Str)
	}
}

// UnmarshalJSON infers the signal type from the JSON type
func (v *Value) UnmarshalJSON(data []byte) error {
	var b bool
	if err := sonic.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}

	var i int64
	if err := sonic.Unmarshal(data, &i); err == nil {
		*v = IntValue(i)
		return nil
	}

	var s string
	if err := sonic.Unmarshal(data, &s); err == nil {
		*v = StringValue(s)
		return nil
	}

	// Non-integer numbers fall back to their textual form
	var f float64
	if err := sonic.Unmarshal(data, &f); err == nil {
		*v = StringValue(strconv.FormatFloat(f, 'g', -1, 64))
		return nil
	}

	return fmt.Errorf("value must be a boolean, number, or string")
}

// LogEntry is a single signal change recorded in a log file
type LogEntry struct {
	DeviceID   string    `json:"device_id"`
	SignalName string    `json:"signal_name"`
	Timestamp  time.Time `json:"timestamp"`
	Value      Value     `json:"value"`
}

// SignalType returns the type carried by this entry's value
func (e LogEntry) SignalType() SignalType {
	return e.Value.Type
}

// Key returns the device-qualified signal identifier
func (e LogEntry) Key() string {
	return SignalKey(e.DeviceID, e.SignalName)
}

// SignalKey builds the device-qualified signal identifier used across the
// loader, waveform builder, and viewer
func SignalKey(deviceID, signalName string) string {
	return deviceID + "::" + signalName
}

// TimeRange is a half-open interval [Start, End) except where noted
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Contains reports whether t falls inside [Start, End)
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(time.RFC3339Nano), r.End.Format(time.RFC3339Nano))
}
