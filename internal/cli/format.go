// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Missing is shown wherever a value cannot be computed.
const Missing = "—"

// FormatCount formats a count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M"
func FormatCount(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatNumber adds comma separators to an integer.
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatFloat formats f with one decimal, or Missing for NaN.
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	return strconv.FormatFloat(f, 'f', 1, 64)
}

// FormatMinutes formats a duration in minutes.
// e.g., 62.5 -> "1h 2m", 2.2 -> "2m", 0.5 -> "30s"
func FormatMinutes(minutes float64) string {
	if math.IsNaN(minutes) {
		return Missing
	}
	secs := int64(math.Round(minutes * 60))
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatWeekday returns a 3-letter day abbreviation.
func FormatWeekday(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return "???"
	}
	return d.String()[:3]
}

// FormatDate formats the UTC day of t, or Missing for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return Missing
	}
	return t.UTC().Format(time.DateOnly)
}

// FormatDateTime formats t to the minute in UTC, or Missing for nil.
func FormatDateTime(t *time.Time) string {
	if t == nil {
		return Missing
	}
	return t.UTC().Format("2006-01-02 15:04")
}
