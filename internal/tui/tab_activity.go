package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/gptrecap/internal/cli"
	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/story"
	"github.com/theirongolddev/gptrecap/internal/tui/components"
	"github.com/theirongolddev/gptrecap/internal/tui/theme"
)

func (a App) renderActivityTab(cw int) string {
	t := theme.Active
	res := a.result
	var b strings.Builder

	hours := make([]float64, 24)
	for _, h := range res.MessagesByHour {
		if h.Hour >= 0 && h.Hour < 24 {
			hours[h.Hour] = float64(h.Messages)
		}
	}

	weekdayLabels := make([]string, len(model.WeekdayOrder))
	weekdays := make([]float64, len(model.WeekdayOrder))
	for i, d := range model.WeekdayOrder {
		weekdayLabels[i] = cli.FormatWeekday(d)
	}
	for _, wd := range res.MessagesByWeekday {
		weekdays[model.WeekdayRank(wd.Weekday)] = float64(wd.Messages)
	}

	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw, cw}
	}
	hourCard := components.ContentCard("Messages by hour (UTC)",
		components.BarChart(hours, hourLabels24(), t.Accent, components.CardInnerWidth(halves[0]), 7),
		halves[0])
	weekdayCard := components.ContentCard("Messages by weekday",
		components.HorizontalBars(weekdayLabels, weekdays, t.Blue, 4, max(10, components.CardInnerWidth(halves[1])-12)),
		halves[1])

	heat := make([][]float64, len(model.WeekdayOrder))
	for i := range heat {
		heat[i] = make([]float64, 24)
	}
	for _, c := range res.WeekdayHourCounts {
		if c.Hour >= 0 && c.Hour < 24 {
			heat[model.WeekdayRank(c.Weekday)][c.Hour] = float64(c.Messages)
		}
	}
	heatCard := components.ContentCard("Weekday × hour",
		components.Heatmap(weekdayLabels, heat, hourHeader(), t.AccentBright), halves[0])
	rhythmCard := a.renderRhythm(halves[1])

	if a.isCompactLayout() {
		for _, card := range []string{hourCard, weekdayCard, heatCard, rhythmCard} {
			b.WriteString(card)
			b.WriteString("\n")
		}
		return strings.TrimSuffix(b.String(), "\n")
	}

	b.WriteString(components.CardRow([]string{hourCard, weekdayCard}))
	b.WriteString("\n")
	b.WriteString(components.CardRow([]string{heatCard, rhythmCard}))
	return b.String()
}

// renderRhythm shows streaks, gaps and the recent daily sparkline.
func (a App) renderRhythm(w int) string {
	t := theme.Active
	res := a.result
	inner := components.CardInnerWidth(w)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	dates := make([]time.Time, len(res.DailyMessageCounts))
	busiest := model.DayCount{}
	for i, d := range res.DailyMessageCounts {
		dates[i] = d.Date
		if d.Messages > busiest.Messages {
			busiest = d
		}
	}
	streak := story.LongestStreak(dates)
	gap := story.LongestGap(dates)

	row := func(label, value, note string) string {
		return labelStyle.Render(fmt.Sprintf("%-16s", label)) + valueStyle.Render(value) +
			dimStyle.Render("  "+note) + "\n"
	}

	var b strings.Builder
	b.WriteString(row("Longest streak", days(streak.Length), streak.RangeLabel()))
	b.WriteString(row("Longest break", days(gap.Length), gap.RangeLabel()))
	if busiest.Messages > 0 {
		b.WriteString(row("Busiest day", cli.FormatNumber(int64(busiest.Messages))+" msgs", cli.FormatDate(&busiest.Date)))
	}

	series := dailySeries(res.DailyMessageCounts)
	if len(series) > 0 {
		shown := tail(series, inner)
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("Last %d days", len(shown))))
		b.WriteString("\n")
		b.WriteString(components.Sparkline(shown, t.Accent))
	}
	return components.ContentCard("Rhythm", strings.TrimSuffix(b.String(), "\n"), w)
}

func days(n int) string {
	switch n {
	case 0:
		return cli.Missing
	case 1:
		return "1 day"
	default:
		return strconv.Itoa(n) + " days"
	}
}

func hourLabels24() []string {
	labels := make([]string, 24)
	for h := 0; h < 24; h += 6 {
		labels[h] = strconv.Itoa(h)
	}
	return labels
}

// hourHeader labels every sixth column of a 24-column heatmap.
func hourHeader() string {
	buf := []byte(strings.Repeat(" ", 24))
	for h := 0; h < 24; h += 6 {
		copy(buf[h:], strconv.Itoa(h))
	}
	return string(buf)
}
