package story

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Missing stands in for any value that cannot be computed.
const Missing = "—"

// DateLayout is the display layout of dates.
const DateLayout = "Jan 02, 2006"

// Int rounds v and adds thousands separators.
func Int(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return humanize.Comma(int64(math.Round(v)))
}

// Float formats v with one decimal, trailing zeros removed.
func Float(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	s := strconv.FormatFloat(v, 'f', 1, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Percent formats a ratio as a percentage with one decimal.
func Percent(ratio float64) string {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return Missing
	}
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}

// Date formats the UTC calendar day of t.
func Date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return Missing
	}
	return t.UTC().Format(DateLayout)
}

// Range joins two formatted dates.
func Range(start, end string) string {
	return start + " " + Missing + " " + end
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return math.NaN()
	}
	return float64(part) / float64(whole)
}
