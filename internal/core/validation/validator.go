package validation

import (
	"fmt"

	"github.com/plcscope/plcscope/internal/core/waveform"
)

// PatternValidator runs one pattern type against a device's signals,
// keyed by bare signal name.
type PatternValidator interface {
	Validate(deviceID string, signals map[string]*waveform.Signal, pattern Pattern) []Violation
}

// SignalValidator applies a rules file to parsed log data.
type SignalValidator struct {
	rules             *RulesFile
	rulesPath         string
	patternValidators map[string]PatternValidator
}

func NewSignalValidator(rulesPath string) (*SignalValidator, error) {
	rules, err := LoadRules(rulesPath)
	if err != nil {
		return nil, err
	}

	return &SignalValidator{
		rules:     rules,
		rulesPath: rulesPath,
		patternValidators: map[string]PatternValidator{
			"sequence": NewSequenceValidator(),
		},
	}, nil
}

func (v *SignalValidator) Settings() Settings {
	return v.rules.Settings
}

// ValidateDevice runs every matching rule against one device's signals
// and returns the findings, capped by the configured limits.
func (v *SignalValidator) ValidateDevice(deviceID string, signals []*waveform.Signal) []Violation {
	if !v.rules.Settings.Enabled {
		return nil
	}

	deviceRules := v.rules.RulesForDevice(deviceID)
	if len(deviceRules) == 0 {
		return nil
	}

	signalMap := make(map[string]*waveform.Signal, len(signals))
	for _, s := range signals {
		signalMap[s.Name] = s
	}

	var violations []Violation
	for _, rule := range deviceRules {
		ruleViolations := v.validateRule(deviceID, signalMap, rule)
		if max := v.rules.Settings.MaxViolationsPerRule; len(ruleViolations) > max {
			ruleViolations = ruleViolations[:max]
		}
		violations = append(violations, ruleViolations...)
	}

	if max := v.rules.Settings.MaxViolationsPerDevice; len(violations) > max {
		violations = violations[:max]
	}
	return violations
}

// ValidateAll groups the signals by device, validates each device, and
// returns the findings keyed by device ID. Devices without findings do
// not appear in the result.
func (v *SignalValidator) ValidateAll(signals []*waveform.Signal) map[string][]Violation {
	byDevice := make(map[string][]*waveform.Signal)
	for _, s := range signals {
		byDevice[s.DeviceID] = append(byDevice[s.DeviceID], s)
	}

	violationsByDevice := make(map[string][]Violation)
	for deviceID, deviceSignals := range byDevice {
		if found := v.ValidateDevice(deviceID, deviceSignals); len(found) > 0 {
			violationsByDevice[deviceID] = found
		}
	}
	return violationsByDevice
}

func (v *SignalValidator) validateRule(deviceID string, signals map[string]*waveform.Signal, rule Rule) []Violation {
	var violations []Violation

	ruleName := rule.Name
	if ruleName == "" {
		ruleName = "unknown"
	}

	for _, signalName := range rule.RequiredSignals {
		if _, present := signals[signalName]; !present {
			violations = append(violations, Violation{
				DeviceID:   deviceID,
				SignalName: signalName,
				Severity:   SeverityError,
				RuleName:   ruleName,
				Message:    fmt.Sprintf("Required signal '%s' not found in log data", signalName),
				Context:    map[string]any{"rule": ruleName},
			})
		}
	}

	for _, pattern := range rule.Patterns {
		validator, known := v.patternValidators[pattern.Type]
		if !known {
			violations = append(violations, Violation{
				DeviceID:   deviceID,
				SignalName: "VALIDATOR",
				Severity:   SeverityWarning,
				RuleName:   ruleName,
				Message:    fmt.Sprintf("Unknown pattern type: %s", pattern.Type),
				Context:    map[string]any{"pattern_type": pattern.Type},
			})
			continue
		}

		violations = append(violations, validator.Validate(deviceID, signals, pattern)...)
	}

	return violations
}
