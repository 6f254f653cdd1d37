package layout

import (
	"math"
	"strings"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/util"
)

// niceSteps are the tick intervals the axis may pick, in seconds.
var niceSteps = []float64{
	0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5,
	1, 2, 5, 10, 15, 30,
	60, 120, 300, 600, 900, 1800,
	3600, 7200, 21600, 43200,
	86400, 172800, 604800,
}

// Axis renders the shared time scale above the signal lanes: a label row
// with timestamps and a ruler row with tick marks. Ticks align to epoch
// multiples of the chosen step so they stay put while panning.
type Axis struct {
}

func NewAxis() *Axis {
	return &Axis{}
}

// Render returns the ruler and label rows for the visible window at the
// given display width.
func (a *Axis) Render(visible model.TimeRange, width int) (ruler, labels string) {
	if width <= 0 {
		return "", ""
	}

	span := visible.End.Sub(visible.Start).Seconds()
	if span <= 0 {
		return strings.Repeat("─", width), strings.Repeat(" ", width)
	}

	layout := a.labelLayout(span)
	step := a.tickStep(span, width, len(layout)+2)

	rulerCells := make([]rune, width)
	for i := range rulerCells {
		rulerCells[i] = '─'
	}
	labelCells := make([]rune, width)
	for i := range labelCells {
		labelCells[i] = ' '
	}

	provider := util.GetTimeProvider()
	secPerCell := span / float64(width)
	startSec := float64(visible.Start.UnixNano()) / 1e9
	tick := math.Ceil(startSec/step) * step
	lastLabelEnd := -1

	for {
		col := int((tick - startSec) / secPerCell)
		if col >= width {
			break
		}
		if col >= 0 {
			rulerCells[col] = '┼'
			text := provider.Format(unixSeconds(tick), layout)
			if col > lastLabelEnd && col+len(text) <= width {
				for i, r := range text {
					labelCells[col+i] = r
				}
				lastLabelEnd = col + len(text)
			}
		}
		tick += step
	}

	return string(rulerCells), string(labelCells)
}

func (a *Axis) labelLayout(span float64) string {
	switch {
	case span < 10:
		return "15:04:05.000"
	case span < 86400:
		return "15:04:05"
	default:
		return "01-02 15:04"
	}
}

// tickStep picks the smallest nice step keeping ticks at least minSpacing
// cells apart.
func (a *Axis) tickStep(span float64, width, minSpacing int) float64 {
	secPerCell := span / float64(width)
	want := secPerCell * float64(minSpacing)
	for _, step := range niceSteps {
		if step >= want {
			return step
		}
	}
	return niceSteps[len(niceSteps)-1]
}

// unixSeconds converts epoch seconds to a time, rounded to the
// millisecond so float error cannot shift a tick label.
func unixSeconds(sec float64) time.Time {
	return time.Unix(0, int64(math.Round(sec*1000))*int64(time.Millisecond))
}
