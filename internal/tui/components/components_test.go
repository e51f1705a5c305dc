package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/gptrecap/internal/tui/theme"
)

func init() {
	// TrueColor so background fills produce escape codes.
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	widths := LayoutRow(10, 3)
	if len(widths) != 3 || widths[0] != 4 || widths[1] != 3 || widths[2] != 3 {
		t.Fatalf("LayoutRow(10, 3) = %v, want [4 3 3]", widths)
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("LayoutRow(10, 0) should be nil")
	}
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	short := ContentCard("Short", "Content", 22)
	tall := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)
	shortLines := lipgloss.Height(short)
	tallLines := lipgloss.Height(tall)
	if shortLines >= tallLines {
		t.Fatal("setup: short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tall, short}), "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 44 {
			t.Errorf("line %d width = %d, want 44", i, w)
		}
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Errorf("padding line %d carries no styling: %q", i, line)
		}
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Conversations", Value: "42"},
		{Label: "Messages", Value: "1,204", Note: "user 50%"},
		{Label: "Active days", Value: "17"},
	}, 91)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 91 {
			t.Errorf("line %d width = %d, want 91", i, w)
		}
	}
	if MetricCardRow(nil, 80) != "" {
		t.Error("empty row should render nothing")
	}
}

func TestTabVisualWidthMatchesRender(t *testing.T) {
	for active := range Tabs {
		bar := RenderTabBar(active, 0)
		want := 0
		for i, tab := range Tabs {
			want += TabVisualWidth(tab, i == active)
		}
		want += len(Tabs) - 1
		if got := lipgloss.Width(bar); got != want {
			t.Errorf("active=%d: bar width = %d, want %d", active, got, want)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('c'); got != 3 {
		t.Errorf("TabIdxByKey('c') = %d, want 3", got)
	}
	if got := TabIdxByKey('x'); got != 4 {
		t.Errorf("TabIdxByKey('x') = %d, want 4", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Errorf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestChartTickStep(t *testing.T) {
	tests := []struct {
		max  float64
		want float64
	}{
		{0, 1},
		{5, 1},
		{12, 2},
		{40, 5},
		{1800, 500},
	}
	for _, tt := range tests {
		if got := chartTickStep(tt.max); got != tt.want {
			t.Errorf("chartTickStep(%v) = %v, want %v", tt.max, got, tt.want)
		}
	}
}

func TestFormatChartLabel(t *testing.T) {
	tests := map[float64]string{
		0:       "0",
		7:       "7",
		0.25:    "0.25",
		2000:    "2k",
		2500:    "2.5k",
		3000000: "3M",
	}
	for v, want := range tests {
		if got := formatChartLabel(v); got != want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestSqueezeKeepsPeaks(t *testing.T) {
	values := []float64{1, 9, 2, 3, 8, 1}
	labels := []string{"a", "b", "c", "d", "e", "f"}
	v, l := squeeze(values, labels, 3)
	if len(v) != 3 || v[0] != 9 || v[1] != 3 || v[2] != 8 {
		t.Fatalf("squeeze values = %v", v)
	}
	if l[0] != "a" || l[1] != "c" || l[2] != "e" {
		t.Fatalf("squeeze labels = %v", l)
	}
}

func TestBarChartShape(t *testing.T) {
	out := BarChart([]float64{1, 4, 2}, []string{"Jan", "Feb", "Mar"}, theme.Active.Accent, 40, 6)
	lines := strings.Split(out, "\n")
	// six plot rows, the axis, the labels
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[len(lines)-1], "Jan") {
		t.Errorf("missing x labels: %q", lines[len(lines)-1])
	}
	if BarChart(nil, nil, theme.Active.Accent, 40, 6) != "" {
		t.Error("empty chart should render nothing")
	}
}

func TestHeatmapRows(t *testing.T) {
	out := Heatmap([]string{"Mon", "Tue"}, [][]float64{{0, 1, 4}, {2, 0, 0}}, "012", theme.Active.Accent)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[1], "█") {
		t.Errorf("busiest cell not fully shaded: %q", lines[1])
	}
}
