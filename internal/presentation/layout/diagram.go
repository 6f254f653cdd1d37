package layout

import (
	"math"
	"strings"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/core/waveform"
)

const (
	maxLabelWidth = 28
	minLaneWidth  = 10

	boolHighGlyph   = '█'
	boolLowGlyph    = '▁'
	segmentBoundary = '│'
	segmentFill     = '─'
)

// Diagram renders processed signal traces as text lanes, one row per
// signal, under a shared time axis. Boolean signals draw as high/low
// blocks; integer and string signals draw as segments carrying the value
// text, with a boundary mark at each transition.
type Diagram struct {
	sizer *Sizer
}

func NewDiagram() *Diagram {
	return &Diagram{sizer: sharedSizer}
}

// Render returns the axis rows followed by one row per signal, sized to
// totalWidth display columns. Signals outside the visible window render
// as empty lanes.
func (d *Diagram) Render(signals []*waveform.Signal, visible model.TimeRange, totalWidth int) []string {
	if totalWidth <= 0 {
		totalWidth = d.sizer.GetMaxWidth()
	}

	labelWidth := d.LabelWidth(signals)
	laneWidth := d.LaneWidth(signals, totalWidth)

	indent := strings.Repeat(" ", labelWidth+1)
	ruler, labels := NewAxis().Render(visible, laneWidth)

	lines := make([]string, 0, len(signals)+2)
	lines = append(lines, indent+labels, indent+ruler)
	for _, sig := range signals {
		label := d.sizer.TruncateString(sig.DisplayLabel(), labelWidth)
		row := d.sizer.PadString(label, labelWidth, true) + " " + d.renderLane(sig, visible, laneWidth)
		lines = append(lines, row)
	}
	return lines
}

// LabelWidth returns the display width of the widest signal label,
// capped so lanes keep room on narrow terminals.
func (d *Diagram) LabelWidth(signals []*waveform.Signal) int {
	width := 0
	for _, sig := range signals {
		if w := d.sizer.displayWidth(sig.DisplayLabel()); w > width {
			width = w
		}
	}
	if width > maxLabelWidth {
		width = maxLabelWidth
	}
	return width
}

// LaneWidth returns the number of timeline cells available once the
// label column is subtracted from totalWidth.
func (d *Diagram) LaneWidth(signals []*waveform.Signal, totalWidth int) int {
	lane := totalWidth - d.LabelWidth(signals) - 1
	if lane < minLaneWidth {
		lane = minLaneWidth
	}
	return lane
}

func (d *Diagram) renderLane(sig *waveform.Signal, visible model.TimeRange, width int) string {
	cells := make([]rune, width)
	for i := range cells {
		cells[i] = ' '
	}

	span := visible.End.Sub(visible.Start).Seconds()
	if span <= 0 {
		return string(cells)
	}
	secPerCell := span / float64(width)

	startOffset := visible.Start.Sub(sig.TimeAnchor).Seconds()
	endOffset := visible.End.Sub(sig.TimeAnchor).Seconds()

	for _, st := range sig.VisibleStates(startOffset, endOffset) {
		colStart := int(math.Floor((st.StartOffset - startOffset) / secPerCell))
		colEnd := int(math.Ceil((st.EndOffset - startOffset) / secPerCell))
		clipped := colStart < 0
		if clipped {
			colStart = 0
		}
		if colEnd > width {
			colEnd = width
		}
		if colEnd <= colStart {
			colEnd = colStart + 1
		}
		if colStart >= width {
			continue
		}

		if sig.Type == model.SignalBoolean && st.Value.Type == model.SignalBoolean {
			glyph := boolLowGlyph
			if st.Value.Bool {
				glyph = boolHighGlyph
			}
			for c := colStart; c < colEnd; c++ {
				cells[c] = glyph
			}
			continue
		}

		for c := colStart; c < colEnd; c++ {
			cells[c] = segmentFill
		}
		col := colStart
		if !clipped {
			cells[col] = segmentBoundary
			col++
		}
		for _, r := range st.Value.String() {
			if col >= colEnd {
				break
			}
			cells[col] = r
			col++
		}
	}

	return string(cells)
}
