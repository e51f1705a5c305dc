package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/gptrecap/internal/tui/theme"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// eighths are partial cell fills from empty to full.
var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// shades grade heatmap cells from empty to the busiest cell.
var shades = []rune{'·', '░', '▒', '▓', '█'}

func peak(values []float64) float64 {
	p := 0.0
	for _, v := range values {
		if v > p && !math.IsInf(v, 1) {
			p = v
		}
	}
	return p
}

// Sparkline renders a one-line sparkline. NaN values render as gaps.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	top := peak(values)
	if top == 0 {
		top = 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		if math.IsNaN(v) {
			buf.WriteRune(' ')
			continue
		}
		idx := int(v / top * float64(len(sparkBlocks)-1))
		idx = max(0, min(idx, len(sparkBlocks)-1))
		buf.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// squeeze folds values into at most n buckets, keeping each bucket's
// maximum and its first label.
func squeeze(values []float64, labels []string, n int) ([]float64, []string) {
	if len(values) <= n || n < 1 {
		return values, labels
	}
	outV := make([]float64, n)
	var outL []string
	if len(labels) == len(values) {
		outL = make([]string, n)
	}
	for i := 0; i < n; i++ {
		lo := i * len(values) / n
		hi := (i + 1) * len(values) / n
		outV[i] = peak(values[lo:hi])
		if outL != nil {
			outL[i] = labels[lo]
		}
	}
	return outV, outL
}

// BarChart renders a vertical bar chart with a labelled y axis. When
// there are more values than columns, neighbouring values are merged.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	top := peak(values)
	if top == 0 {
		top = 1
	}
	step := chartTickStep(top)
	ceiling := math.Ceil(top/step) * step

	yLabelW := max(4, len(formatChartLabel(ceiling))+1)
	chartW := max(5, width-yLabelW-1)

	values, labels = squeeze(values, labels, chartW)
	n := len(values)

	slot := min(5, chartW/n)
	barW := max(1, slot-1)
	gap := slot - barW
	if slot <= 1 {
		barW, gap = 1, 0
	}
	axisLen := n*barW + max(0, n-1)*gap

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		rowTop := ceiling * float64(row) / float64(height)
		rowBottom := ceiling * float64(row-1) / float64(height)

		label := ""
		switch row {
		case height:
			label = formatChartLabel(ceiling)
		case (height + 1) / 2:
			if height >= 6 {
				label = formatChartLabel(rowTop)
			}
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", yLabelW, label)))

		for i, v := range values {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			switch {
			case v >= rowTop:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case v > rowBottom:
				idx := int((v - rowBottom) / (rowTop - rowBottom) * 8)
				idx = max(1, min(idx, 8))
				b.WriteString(barStyle.Render(strings.Repeat(string(eighths[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└%s", yLabelW, "0", strings.Repeat("─", axisLen))))

	if len(labels) == n {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(strings.TrimRight(spreadLabels(labels, barW+gap, axisLen), " ")))
	}
	return b.String()
}

// spreadLabels writes labels at their slot offsets, skipping any that
// would collide with the previous one.
func spreadLabels(labels []string, slot, axisLen int) string {
	buf := []rune(strings.Repeat(" ", axisLen))
	next := 0
	for i, lbl := range labels {
		pos := i * slot
		if lbl == "" || pos < next {
			continue
		}
		r := []rune(lbl)
		if pos+len(r) > axisLen {
			continue
		}
		copy(buf[pos:], r)
		next = pos + len(r) + 1
	}
	return string(buf)
}

// HorizontalBars renders one labelled bar per line, scaled to the
// largest value.
func HorizontalBars(labels []string, values []float64, color lipgloss.Color, labelW, barW int) string {
	t := theme.Active
	top := peak(values)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, len(values))
	for i, v := range values {
		filled := 0
		if top > 0 {
			filled = int(math.Round(v / top * float64(barW)))
		}
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		lines[i] = labelStyle.Render(fmt.Sprintf("%-*s ", labelW, label)) +
			barStyle.Render(strings.Repeat("█", filled)) +
			blank.Render(strings.Repeat(" ", barW-filled+1)) +
			valueStyle.Render(formatChartLabel(v))
	}
	return strings.Join(lines, "\n")
}

// Heatmap renders a grid of counts, one row per label. Cells are shaded
// relative to the busiest cell; header labels the columns.
func Heatmap(rowLabels []string, cells [][]float64, header string, color lipgloss.Color) string {
	t := theme.Active

	top := 0.0
	for _, row := range cells {
		top = math.Max(top, peak(row))
	}

	labelW := 0
	for _, l := range rowLabels {
		labelW = max(labelW, lipgloss.Width(l))
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	cellStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var b strings.Builder
	if header != "" {
		b.WriteString(dimStyle.Render(strings.Repeat(" ", labelW+1) + header))
		b.WriteString("\n")
	}
	for i, row := range cells {
		label := ""
		if i < len(rowLabels) {
			label = rowLabels[i]
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s ", labelW, label)))
		for _, v := range row {
			if v <= 0 || top == 0 {
				b.WriteString(dimStyle.Render(string(shades[0])))
				continue
			}
			idx := 1 + int(v/top*float64(len(shades)-2)+0.5)
			idx = min(idx, len(shades)-1)
			b.WriteString(cellStyle.Render(string(shades[idx])))
		}
		if i < len(cells)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// chartTickStep computes a round tick interval targeting about five ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	exp := math.Floor(math.Log10(rough))
	base := math.Pow(10, exp)
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case math.IsNaN(v):
		return "—"
	case v >= 1e6:
		return trimUnit(v/1e6, "M")
	case v >= 1e3:
		return trimUnit(v/1e3, "k")
	case v >= 1 || v == 0:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func trimUnit(v float64, unit string) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f%s", v, unit)
	}
	return fmt.Sprintf("%.1f%s", v, unit)
}
