package report

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/gptrecap/internal/model"
)

// Cell layouts.
const (
	AwareLayout = "2006-01-02T15:04:05Z"
	DateLayout  = "2006-01-02"
)

func awareCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(AwareLayout)
}

func naiveCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(model.NaiveLayout)
}

func dateCell(t time.Time) string {
	return t.Format(DateLayout)
}

func monthCell(t time.Time) string {
	return naiveCell(&t)
}

func intCell(n int) string {
	return strconv.Itoa(n)
}

// floatCell writes NaN as an empty cell and keeps a decimal point on whole
// numbers so float columns read as floats.
func floatCell(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func boolCell(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func weekdayCell(d time.Weekday) string {
	return d.String()
}
