// Package viewport models the user's navigable window over a log's time
// range: pure zoom and pan arithmetic, no I/O and no knowledge of chunks.
// The rendering layer reads the visible range from here and asks the
// chunked log for exactly that span.
package viewport

import (
	"errors"
	"fmt"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
)

const (
	// DefaultMinZoom shows the full range.
	DefaultMinZoom = 1.0
	// DefaultMaxZoom bounds how far in the view can go.
	DefaultMaxZoom = 1000.0
)

var (
	// ErrNotInitialized reports an operation before SetFullTimeRange.
	ErrNotInitialized = errors.New("viewport not initialized")
	// ErrInvalidRange reports a malformed or out-of-log time range.
	ErrInvalidRange = errors.New("invalid time range")
)

// State tracks the full time range of the loaded log, the currently visible
// sub-range, and the zoom level binding the two: zoom = full duration /
// visible duration, always within [MinZoom, MaxZoom]. Single-owner state;
// callers serialize access themselves.
type State struct {
	initialized bool

	fullStart time.Time
	fullEnd   time.Time

	visibleStart time.Time
	visibleEnd   time.Time

	zoom    float64
	minZoom float64
	maxZoom float64
}

func New() *State {
	return &State{
		zoom:    DefaultMinZoom,
		minZoom: DefaultMinZoom,
		maxZoom: DefaultMaxZoom,
	}
}

// SetFullTimeRange initializes the viewport for a newly loaded log: the
// visible range resets to the full range and zoom to 1.0. Fails when start
// is not before end.
func (v *State) SetFullTimeRange(start, end time.Time) error {
	if !start.Before(end) {
		return fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	v.fullStart = start
	v.fullEnd = end
	v.visibleStart = start
	v.visibleEnd = end
	v.zoom = v.minZoom
	v.initialized = true
	return nil
}

// FullTimeRange returns the full range; ok is false before initialization.
func (v *State) FullTimeRange() (model.TimeRange, bool) {
	if !v.initialized {
		return model.TimeRange{}, false
	}
	return model.TimeRange{Start: v.fullStart, End: v.fullEnd}, true
}

// VisibleTimeRange returns the currently visible range; ok is false before
// initialization.
func (v *State) VisibleTimeRange() (model.TimeRange, bool) {
	if !v.initialized {
		return model.TimeRange{}, false
	}
	return model.TimeRange{Start: v.visibleStart, End: v.visibleEnd}, true
}

func (v *State) ZoomLevel() float64 {
	return v.zoom
}

func (v *State) MinZoom() float64 {
	return v.minZoom
}

func (v *State) MaxZoom() float64 {
	return v.maxZoom
}

// SetZoomBounds overrides the zoom clamp range. min must be at least 1
// (zoom 1 shows the full range) and below max. The current zoom is
// re-clamped into the new bounds.
func (v *State) SetZoomBounds(min, max float64) error {
	if min < 1 || min >= max {
		return fmt.Errorf("%w: zoom bounds [%g, %g]", ErrInvalidRange, min, max)
	}
	v.minZoom = min
	v.maxZoom = max
	if v.initialized {
		v.applyZoom(v.clampZoom(v.zoom))
	}
	return nil
}

func (v *State) FullDuration() time.Duration {
	if !v.initialized {
		return 0
	}
	return v.fullEnd.Sub(v.fullStart)
}

func (v *State) VisibleDuration() time.Duration {
	if !v.initialized {
		return 0
	}
	return v.visibleEnd.Sub(v.visibleStart)
}

// ZoomIn multiplies the zoom level by factor, clamped to MaxZoom, keeping
// the visible center where it was. At the full range's edges the center
// shifts as far as the boundary allows.
func (v *State) ZoomIn(factor float64) error {
	if err := v.ensureInitialized(); err != nil {
		return err
	}
	if factor <= 0 {
		return fmt.Errorf("%w: zoom factor %v is not positive", ErrInvalidRange, factor)
	}

	newZoom := v.zoom * factor
	if newZoom > v.maxZoom {
		newZoom = v.maxZoom
	}
	v.applyZoom(newZoom)
	return nil
}

// ZoomOut divides the zoom level by factor, clamped to MinZoom.
func (v *State) ZoomOut(factor float64) error {
	if err := v.ensureInitialized(); err != nil {
		return err
	}
	if factor <= 0 {
		return fmt.Errorf("%w: zoom factor %v is not positive", ErrInvalidRange, factor)
	}

	newZoom := v.zoom / factor
	if newZoom < v.minZoom {
		newZoom = v.minZoom
	}
	v.applyZoom(newZoom)
	return nil
}

// SetZoomLevel sets the zoom directly, clamped to [MinZoom, MaxZoom],
// preserving the visible center.
func (v *State) SetZoomLevel(zoom float64) error {
	if err := v.ensureInitialized(); err != nil {
		return err
	}
	v.applyZoom(v.clampZoom(zoom))
	return nil
}

// ResetZoom restores the full range view.
func (v *State) ResetZoom() error {
	if err := v.ensureInitialized(); err != nil {
		return err
	}
	v.visibleStart = v.fullStart
	v.visibleEnd = v.fullEnd
	v.zoom = v.minZoom
	return nil
}

// Pan shifts the visible range by delta without changing its duration. A
// shift past either edge lands the range exactly on that edge.
func (v *State) Pan(delta time.Duration) error {
	if err := v.ensureInitialized(); err != nil {
		return err
	}

	start := v.visibleStart.Add(delta)
	end := v.visibleEnd.Add(delta)

	if start.Before(v.fullStart) {
		shift := v.fullStart.Sub(start)
		start = v.fullStart
		end = end.Add(shift)
	}
	if end.After(v.fullEnd) {
		shift := end.Sub(v.fullEnd)
		end = v.fullEnd
		start = start.Add(-shift)
	}
	if start.Before(v.fullStart) {
		start = v.fullStart
	}
	if end.After(v.fullEnd) {
		end = v.fullEnd
	}

	v.visibleStart = start
	v.visibleEnd = end
	return nil
}

// SetTimeRange sets the visible range directly, clamped to the full range,
// and recomputes the zoom level. A window too narrow for MaxZoom is widened
// to the closest allowed one around the same center.
func (v *State) SetTimeRange(start, end time.Time) error {
	if err := v.ensureInitialized(); err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	if start.Before(v.fullStart) {
		start = v.fullStart
	}
	if end.After(v.fullEnd) {
		end = v.fullEnd
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: [%s, %s) lies outside the loaded log",
			ErrInvalidRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	rawZoom := float64(v.FullDuration()) / float64(end.Sub(start))
	zoom := v.clampZoom(rawZoom)

	v.visibleStart = start
	v.visibleEnd = end
	if zoom != rawZoom {
		// The requested window falls outside the zoom bounds; keep its
		// center and widen or narrow to the nearest allowed duration.
		center := start.Add(end.Sub(start) / 2)
		duration := time.Duration(float64(v.FullDuration()) / zoom)
		v.visibleStart, v.visibleEnd = v.window(center, duration)
	}
	v.zoom = zoom
	return nil
}

// JumpToTime re-centers the current visible duration on target. Targets
// outside the full range clamp the window to the corresponding edge.
func (v *State) JumpToTime(target time.Time) error {
	if err := v.ensureInitialized(); err != nil {
		return err
	}

	if target.Before(v.fullStart) {
		target = v.fullStart
	}
	if target.After(v.fullEnd) {
		target = v.fullEnd
	}

	v.visibleStart, v.visibleEnd = v.window(target, v.visibleEnd.Sub(v.visibleStart))
	return nil
}

func (v *State) ensureInitialized() error {
	if !v.initialized {
		return ErrNotInitialized
	}
	return nil
}

func (v *State) clampZoom(zoom float64) float64 {
	if zoom < v.minZoom {
		return v.minZoom
	}
	if zoom > v.maxZoom {
		return v.maxZoom
	}
	return zoom
}

// applyZoom recomputes the visible range for newZoom around the current
// center. A no-op when the zoom is already there, so repeated zooming at a
// clamp does not drift the window.
func (v *State) applyZoom(newZoom float64) {
	if newZoom == v.zoom {
		return
	}

	center := v.visibleStart.Add(v.visibleEnd.Sub(v.visibleStart) / 2)
	duration := time.Duration(float64(v.FullDuration()) / newZoom)
	v.visibleStart, v.visibleEnd = v.window(center, duration)
	v.zoom = newZoom
}

// window builds a visible range of the given duration centered on center,
// shifted and trimmed to stay inside the full range.
func (v *State) window(center time.Time, duration time.Duration) (time.Time, time.Time) {
	start := center.Add(-duration / 2)
	end := start.Add(duration)

	if start.Before(v.fullStart) {
		start = v.fullStart
		end = start.Add(duration)
	}
	if end.After(v.fullEnd) {
		end = v.fullEnd
		start = end.Add(-duration)
	}
	if start.Before(v.fullStart) {
		start = v.fullStart
	}
	if end.After(v.fullEnd) {
		end = v.fullEnd
	}
	return start, end
}
