package mapview

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/plcscope/plcscope/internal/util"
)

// LayoutObject is one named drawable element from a SmartCIM map export.
// All geometry fields keep the raw element text; Size and Location hold
// "x, y" pairs that ParsePoint can split.
type LayoutObject struct {
	Name          string
	Type          string
	Text          string
	Size          string
	Location      string
	UnitID        string
	LineThick     string
	FlowDirection string
	DashStyle     string
	StartCap      string
	EndCap        string
	ForeColor     string
}

// Draw order by widget class: ports sit above belts, belts above diverters,
// everything else at the bottom.
var widgetZIndex = map[string]int{
	"WidgetConveyorPort": 4,
	"WidgetBelt":         3,
	"WidgetDiverter":     2,
}

// WidgetKind returns the bare widget class name from the assembly qualified
// type attribute, e.g. "WidgetBelt" from
// "SmartFactory.SmartCIM.GUI.Widgets.WidgetBelt, SmartFactory.SmartCIM.GUI, ...".
func (o *LayoutObject) WidgetKind() string {
	t := o.Type
	if i := strings.IndexByte(t, ','); i >= 0 {
		t = t[:i]
	}
	if i := strings.LastIndexByte(t, '.'); i >= 0 {
		t = t[i+1:]
	}
	return strings.TrimSpace(t)
}

// ZIndex returns the draw order for the object's widget class.
func (o *LayoutObject) ZIndex() int {
	return widgetZIndex[o.WidgetKind()]
}

// ParsePoint splits an "x, y" coordinate string as found in the Size and
// Location elements.
func ParsePoint(s string) (x, y int, ok bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

// Layout holds every named object from a map file in document order.
type Layout struct {
	Objects []*LayoutObject

	byName map[string]*LayoutObject
}

// Get returns the object with the given name attribute.
func (l *Layout) Get(name string) (*LayoutObject, bool) {
	obj, ok := l.byName[name]
	return obj, ok
}

// Len returns the number of named objects in the layout.
func (l *Layout) Len() int {
	return len(l.Objects)
}

// UnitIDs returns the distinct UnitId values in document order. Objects
// without a UnitId are skipped.
func (l *Layout) UnitIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, obj := range l.Objects {
		if obj.UnitID == "" || seen[obj.UnitID] {
			continue
		}
		seen[obj.UnitID] = true
		ids = append(ids, obj.UnitID)
	}
	return ids
}

// ParseLayout reads a map layout XML file. Object elements may appear at any
// depth under the root; elements without a name attribute are ignored but
// still descended into.
func ParseLayout(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()

	layout, err := parseLayout(f)
	if err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}

	util.LogDebugf("Loaded map layout %s: %d objects, %d units", path, layout.Len(), len(layout.UnitIDs()))
	return layout, nil
}

var childSetters = map[string]func(*LayoutObject, string){
	"Text":          func(o *LayoutObject, v string) { o.Text = v },
	"Size":          func(o *LayoutObject, v string) { o.Size = v },
	"Location":      func(o *LayoutObject, v string) { o.Location = v },
	"UnitId":        func(o *LayoutObject, v string) { o.UnitID = v },
	"LineThick":     func(o *LayoutObject, v string) { o.LineThick = v },
	"FlowDirection": func(o *LayoutObject, v string) { o.FlowDirection = v },
	"DashStyle":     func(o *LayoutObject, v string) { o.DashStyle = v },
	"StartCap":      func(o *LayoutObject, v string) { o.StartCap = v },
	"EndCap":        func(o *LayoutObject, v string) { o.EndCap = v },
	"ForeColor":     func(o *LayoutObject, v string) { o.ForeColor = v },
}

func parseLayout(r io.Reader) (*Layout, error) {
	dec := xml.NewDecoder(r)
	layout := &Layout{byName: make(map[string]*LayoutObject)}

	// Stack of open elements. A frame holds the object when the element is a
	// named Object, nil otherwise, so the top of the stack always tells us
	// whether the current element is a direct child of an Object.
	var stack []*LayoutObject
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "Object" {
				obj := objectFromAttrs(t.Attr)
				if obj != nil {
					layout.Objects = append(layout.Objects, obj)
					layout.byName[obj.Name] = obj
				}
				stack = append(stack, obj)
				continue
			}
			if parent := topObject(stack); parent != nil {
				if set, known := childSetters[t.Name.Local]; known {
					var text string
					if err := dec.DecodeElement(&text, &t); err != nil {
						return nil, err
					}
					set(parent, strings.TrimSpace(text))
					continue
				}
			}
			stack = append(stack, nil)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return layout, nil
}

func topObject(stack []*LayoutObject) *LayoutObject {
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

func objectFromAttrs(attrs []xml.Attr) *LayoutObject {
	var name, typ string
	for _, a := range attrs {
		switch a.Name.Local {
		case "name":
			name = a.Value
		case "type":
			typ = a.Value
		}
	}
	if name == "" {
		return nil
	}
	return &LayoutObject{Name: name, Type: typ}
}
