package util

import (
	"fmt"
	"time"
)

// Helper functions
func FormatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	} else {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// FormatDuration renders a duration at a resolution that suits signal traces,
// which usually span seconds to hours rather than days.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// FormatTimeRange renders a start/end pair using the global time provider.
// The end timestamp drops the date when it falls on the same day as the start.
func FormatTimeRange(start, end time.Time) string {
	tp := GetTimeProvider()
	s := tp.In(start)
	e := tp.In(end)

	if s.Year() == e.Year() && s.YearDay() == e.YearDay() {
		return fmt.Sprintf("%s - %s", s.Format("2006-01-02 15:04:05"), e.Format("15:04:05"))
	}
	return fmt.Sprintf("%s - %s", s.Format("2006-01-02 15:04:05"), e.Format("2006-01-02 15:04:05"))
}
