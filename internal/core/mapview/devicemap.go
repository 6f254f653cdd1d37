package mapview

import (
	"path"
	"strings"
)

// MappingRule binds a device id glob to a layout unit id, e.g.
// "B1ACNV*-104@*" -> "B1ACNV13301-104". A unit id of "*" maps a matching
// device to its own id with any "@suffix" stripped.
type MappingRule struct {
	Pattern string `yaml:"pattern"`
	UnitID  string `yaml:"unit_id"`
}

// DeviceUnitMap resolves log device ids to layout unit ids. Rules are
// consulted in order; the first match wins.
type DeviceUnitMap struct {
	rules []MappingRule
}

func NewDeviceUnitMap(rules []MappingRule) *DeviceUnitMap {
	return &DeviceUnitMap{rules: rules}
}

// Resolve returns the unit id for a device, or false when no rule matches.
func (m *DeviceUnitMap) Resolve(deviceID string) (string, bool) {
	for _, r := range m.rules {
		if r.Pattern == "" || r.UnitID == "" {
			continue
		}
		if ok, err := path.Match(r.Pattern, deviceID); err != nil || !ok {
			continue
		}
		if r.UnitID == "*" {
			if i := strings.IndexByte(deviceID, '@'); i >= 0 {
				return deviceID[:i], true
			}
			return deviceID, true
		}
		return r.UnitID, true
	}
	return "", false
}
