package mapview

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/plcscope/plcscope/internal/util"
)

// MapConfig mirrors the YAML map overlay configuration file.
type MapConfig struct {
	Rules        []ColorRule   `yaml:"rules"`
	DeviceToUnit []MappingRule `yaml:"device_to_unit"`
	DefaultColor string        `yaml:"default_color"`
}

// LoadConfig reads the device mapping and color policy from a YAML file.
// Color rules without a signal are dropped.
func LoadConfig(path string) (*DeviceUnitMap, *ColorPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read map config: %w", err)
	}

	var cfg MapConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parse map config %s: %w", path, err)
	}

	rules := make([]ColorRule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		if r.Signal == "" {
			util.LogWarnf("Ignoring color rule without signal in %s", path)
			continue
		}
		rules = append(rules, r)
	}

	util.LogDebugf("Loaded map config %s: %d color rules, %d device mappings", path, len(rules), len(cfg.DeviceToUnit))
	return NewDeviceUnitMap(cfg.DeviceToUnit), NewColorPolicy(rules, cfg.DefaultColor), nil
}
