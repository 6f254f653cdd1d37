package mapview

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/plcscope/plcscope/internal/core/model"
)

// DefaultUnitColor is the neutral fill for units no rule has colored yet.
const DefaultUnitColor = "#D3D3D3"

// TextOverlay is a single character drawn over a unit, e.g. "X" to cross
// out a faulted conveyor.
type TextOverlay struct {
	Char  string
	Color string
}

func (t *TextOverlay) equal(other *TextOverlay) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Char == other.Char && t.Color == other.Color
}

// ColorRule colors a unit when a signal comparison holds. An empty unit id
// applies the rule to every unit; higher priority rules are consulted first.
type ColorRule struct {
	Signal    string `yaml:"signal"`
	Op        string `yaml:"op"`
	Value     any    `yaml:"value"`
	Color     string `yaml:"color"`
	UnitID    string `yaml:"unit_id"`
	Priority  int    `yaml:"priority"`
	Text      string `yaml:"text"`
	TextColor string `yaml:"text_color"`
	BgColor   string `yaml:"bg_color"`
}

// Background returns the fill color the rule applies.
func (r *ColorRule) Background() string {
	if r.BgColor != "" {
		return r.BgColor
	}
	if r.Color != "" {
		return r.Color
	}
	return DefaultUnitColor
}

// Overlay returns the text overlay the rule applies, or nil. Both text and
// text_color must be set; the text is cut to a single character.
func (r *ColorRule) Overlay() *TextOverlay {
	if r.Text == "" || r.TextColor == "" {
		return nil
	}
	ch := r.Text
	if len(ch) > 1 {
		ch = ch[:1]
	}
	return &TextOverlay{Char: ch, Color: r.TextColor}
}

// Matches reports whether the rule fires for a signal change on a unit.
// Values compare numerically when both sides parse as numbers, otherwise as
// strings. Booleans count as 1 and 0 for numeric compares.
func (r *ColorRule) Matches(unitID, signalName string, value model.Value) bool {
	if r.UnitID != "" && r.UnitID != unitID {
		return false
	}
	if r.Signal != signalName {
		return false
	}
	vn, vok := numericSignalValue(value)
	rn, rok := numericRuleValue(r.Value)
	if vok && rok {
		return compareFloat(r.Op, vn, rn)
	}
	return compareString(r.Op, value.String(), fmt.Sprintf("%v", r.Value))
}

// ColorPolicy decides unit colors from signal changes. Rules are evaluated
// highest priority first and the first match wins.
type ColorPolicy struct {
	rules        []ColorRule
	defaultColor string
}

func NewColorPolicy(rules []ColorRule, defaultColor string) *ColorPolicy {
	if defaultColor == "" {
		defaultColor = DefaultUnitColor
	}
	sorted := make([]ColorRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return &ColorPolicy{rules: sorted, defaultColor: defaultColor}
}

// DefaultColor returns the fill used for units no rule has touched.
func (p *ColorPolicy) DefaultColor() string {
	return p.defaultColor
}

// ColorFor returns the background color and text overlay for a unit after a
// signal change. When no rule matches, the previous color is kept (or the
// default when there is none) and any overlay is cleared.
func (p *ColorPolicy) ColorFor(unitID, signalName string, value model.Value, previousColor string) (string, *TextOverlay) {
	for i := range p.rules {
		if p.rules[i].Matches(unitID, signalName, value) {
			return p.rules[i].Background(), p.rules[i].Overlay()
		}
	}
	if previousColor != "" {
		return previousColor, nil
	}
	return p.defaultColor, nil
}

func numericSignalValue(v model.Value) (float64, bool) {
	switch v.Type {
	case model.SignalBoolean:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case model.SignalInteger:
		return float64(v.Int), true
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		return f, err == nil
	}
}

func numericRuleValue(v any) (float64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func compareFloat(op string, a, b float64) bool {
	switch op {
	case "!=":
		return a != b
	case ">":
		return a > b
	case "<":
		return a < b
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	default:
		// unrecognized operators fall back to equality
		return a == b
	}
}

func compareString(op string, a, b string) bool {
	switch op {
	case "!=":
		return a != b
	case ">":
		return a > b
	case "<":
		return a < b
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	default:
		return a == b
	}
}
