package validation

import (
	"fmt"
	"strings"
	"time"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Violation is a single validation finding: a point where a signal
// pattern deviated from the behavior a rule expects.
type Violation struct {
	DeviceID   string         `json:"device_id"`
	SignalName string         `json:"signal_name"`
	Timestamp  time.Time      `json:"timestamp,omitempty"` // zero when the finding has no position in the log
	Severity   string         `json:"severity"`
	RuleName   string         `json:"rule_name"`
	Message    string         `json:"message"`
	Expected   string         `json:"expected,omitempty"`
	Actual     string         `json:"actual,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

func (v Violation) String() string {
	parts := []string{fmt.Sprintf("[%s]", strings.ToUpper(v.Severity))}
	if !v.Timestamp.IsZero() {
		parts = append(parts, v.Timestamp.Format("2006-01-02 15:04:05.000"))
	}
	parts = append(parts, v.DeviceID, v.SignalName+":", v.Message)

	if v.Expected != "" && v.Actual != "" {
		parts = append(parts, fmt.Sprintf("(expected: %s, actual: %s)", v.Expected, v.Actual))
	}

	return strings.Join(parts, " ")
}
