package validation

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/plcscope/plcscope/internal/util"
)

// RulesFile is a parsed validation rules document.
type RulesFile struct {
	Settings Settings `yaml:"validation_settings"`
	Rules    []Rule   `yaml:"validation_rules"`
}

// Settings carries the global knobs of a rules file.
type Settings struct {
	Enabled                bool `yaml:"enabled"`
	AutoValidateOnLoad     bool `yaml:"auto_validate_on_load"`
	MaxViolationsPerDevice int  `yaml:"max_violations_per_device"`
	MaxViolationsPerRule   int  `yaml:"max_violations_per_rule"`
}

func defaultSettings() Settings {
	return Settings{
		Enabled:                true,
		AutoValidateOnLoad:     false,
		MaxViolationsPerDevice: 100,
		MaxViolationsPerRule:   500,
	}
}

// Rule applies one or more patterns to the devices matching its glob.
type Rule struct {
	Name            string    `yaml:"name"`
	Description     string    `yaml:"description"`
	Enabled         *bool     `yaml:"enabled"` // nil means enabled
	DevicePattern   string    `yaml:"device_pattern"`
	RequiredSignals []string  `yaml:"required_signals"`
	Patterns        []Pattern `yaml:"patterns"`
}

func (r Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Pattern configures one pattern validator.
type Pattern struct {
	Type        string          `yaml:"pattern_type"`
	ID          string          `yaml:"id"`
	Severity    string          `yaml:"severity"`
	Sequence    []StepConfig    `yaml:"sequence"`
	Options     PatternOptions  `yaml:"options"`
	OnViolation ViolationAction `yaml:"on_violation"`
	OnComplete  CompleteAction  `yaml:"on_complete"`
}

func (p Pattern) severity() string {
	if p.Severity == "" {
		return SeverityError
	}
	return p.Severity
}

// StepConfig is one step of a sequence pattern. Steps sharing a step
// number may complete in any order.
type StepConfig struct {
	Step        int      `yaml:"step"`
	Signal      string   `yaml:"signal"`
	Operator    string   `yaml:"operator"` // ==, !=, >, <, >=, <=, in, not in
	Value       any      `yaml:"value"`
	Description string   `yaml:"description"`
	Timeout     *float64 `yaml:"timeout"` // seconds from the previous step
}

type PatternOptions struct {
	AllowIntermediateChanges bool   `yaml:"allow_intermediate_changes"`
	ResetOnTimeout           *bool  `yaml:"reset_on_timeout"`       // nil means true
	PartialMatchSeverity     string `yaml:"partial_match_severity"` // default warning
}

func (o PatternOptions) resetOnTimeout() bool {
	return o.ResetOnTimeout == nil || *o.ResetOnTimeout
}

func (o PatternOptions) partialMatchSeverity() string {
	if o.PartialMatchSeverity == "" {
		return SeverityWarning
	}
	return o.PartialMatchSeverity
}

type ViolationAction struct {
	Message      string `yaml:"message"`
	ResetOnError *bool  `yaml:"reset_on_error"` // nil means true
}

func (a ViolationAction) resetOnError() bool {
	return a.ResetOnError == nil || *a.ResetOnError
}

type CompleteAction struct {
	LogSuccess bool   `yaml:"log_success"`
	Message    string `yaml:"message"`
}

// LoadRules reads and validates a YAML rules file. The file must carry
// a validation_rules key; absent settings fall back to defaults.
func LoadRules(rulesPath string) (*RulesFile, error) {
	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", rulesPath, err)
	}
	if probe == nil {
		return nil, fmt.Errorf("empty rules file: %s", rulesPath)
	}
	if _, ok := probe["validation_rules"]; !ok {
		return nil, fmt.Errorf("rules file %s is missing the validation_rules key", rulesPath)
	}

	file := RulesFile{Settings: defaultSettings()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", rulesPath, err)
	}

	for i := range file.Rules {
		if file.Rules[i].DevicePattern == "" {
			file.Rules[i].DevicePattern = "*"
		}
	}

	util.LogDebug(fmt.Sprintf("Loaded %d validation rules from %s", len(file.Rules), rulesPath))
	return &file, nil
}

// RulesForDevice returns the enabled rules whose device glob matches
// the given device ID.
func (f *RulesFile) RulesForDevice(deviceID string) []Rule {
	var matching []Rule
	for _, rule := range f.Rules {
		if !rule.IsEnabled() {
			continue
		}
		ok, err := path.Match(rule.DevicePattern, deviceID)
		if err != nil {
			util.LogDebug(fmt.Sprintf("Bad device pattern %q in rule %q: %v", rule.DevicePattern, rule.Name, err))
			continue
		}
		if ok {
			matching = append(matching, rule)
		}
	}
	return matching
}
