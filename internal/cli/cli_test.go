package cli

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234, "1.2K"},
		{1234567, "1.2M"},
		{-2500, "-2.5K"},
		{3_000_000_000, "3.0B"},
	}
	for _, tt := range tests {
		if got := FormatCount(tt.n); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{math.NaN(), Missing},
		{0, "0s"},
		{0.5, "30s"},
		{2.2, "2m"},
		{62.5, "1h 2m"},
	}
	for _, tt := range tests {
		if got := FormatMinutes(tt.minutes); got != tt.want {
			t.Errorf("FormatMinutes(%v) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestFormatters(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Errorf("FormatNumber = %q", got)
	}
	if got := FormatPercent(0.375); got != "37.5%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatPercent(math.NaN()); got != Missing {
		t.Errorf("FormatPercent(NaN) = %q", got)
	}
	if got := FormatFloat(1.0 / 3); got != "0.3" {
		t.Errorf("FormatFloat = %q", got)
	}
	if got := FormatWeekday(time.Monday); got != "Mon" {
		t.Errorf("FormatWeekday = %q", got)
	}
	if got := FormatWeekday(time.Weekday(9)); got != "???" {
		t.Errorf("FormatWeekday(9) = %q", got)
	}
	if got := FormatDate(nil); got != Missing {
		t.Errorf("FormatDate(nil) = %q", got)
	}
	ts := time.Date(2024, 3, 9, 17, 45, 12, 0, time.UTC)
	if got := FormatDateTime(&ts); got != "2024-03-09 17:45" {
		t.Errorf("FormatDateTime = %q", got)
	}
}

func TestRenderTable_Aligns(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Roles",
		Headers: []string{"Role", "Messages"},
		Rows: [][]string{
			{"user", "12"},
			SeparatorRow,
			{"assistant", "1,204"},
		},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8:\n%s", len(lines), out)
	}
	width := lipgloss.Width(lines[1])
	for i, line := range lines[1:] {
		if w := lipgloss.Width(line); w != width {
			t.Errorf("line %d width = %d, want %d: %q", i+1, w, width, line)
		}
	}
	if !strings.Contains(out, "│       12 │") {
		t.Errorf("numeric column not right-aligned:\n%s", out)
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Errorf("RenderTable(empty) = %q", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 7, 14}); got != "▁▄█" {
		t.Errorf("RenderSparkline = %q", got)
	}
	if got := RenderSparkline([]float64{0, 0}); got != "▁▁" {
		t.Errorf("RenderSparkline(zeros) = %q", got)
	}
	if RenderSparkline(nil) != "" {
		t.Error("RenderSparkline(nil) not empty")
	}
}

func TestRenderHorizontalBar(t *testing.T) {
	if got := RenderHorizontalBar("09", 5, 10, 10); got != "  09 █████" {
		t.Errorf("RenderHorizontalBar = %q", got)
	}
	if got := RenderHorizontalBar("", 5, 0, 10); got != "  " {
		t.Errorf("RenderHorizontalBar(max 0) = %q", got)
	}
}

func TestRenderProgressBar(t *testing.T) {
	if got := RenderProgressBar(5, 10, 4); got != "[██░░] 5/10" {
		t.Errorf("RenderProgressBar = %q", got)
	}
	if RenderProgressBar(1, 0, 4) != "" {
		t.Error("RenderProgressBar with zero total not empty")
	}
}
