package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/gptrecap/internal/cli"
	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/tui/components"
	"github.com/theirongolddev/gptrecap/internal/tui/theme"
)

func (a App) renderRepliesTab(cw int) string {
	t := theme.Active
	res := a.result
	m := res.Metrics
	var b strings.Builder

	words := m.AssistantWordCountStats
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Replies", Value: cli.FormatNumber(int64(len(res.AssistantResponses)))},
		{Label: "Mean words", Value: cli.FormatFloat(words.Mean), Note: "median " + cli.FormatFloat(words.Median)},
		{Label: "Long replies (p90)", Value: cli.FormatFloat(words.P90) + " words", Note: "max " + cli.FormatFloat(words.Max)},
		{Label: "Mean characters", Value: cli.FormatFloat(m.AssistantCharacterCountStats.Mean),
			Note: "you " + cli.FormatFloat(m.UserCharacterCountStats.Mean)},
	}, cw))
	b.WriteString("\n")

	values, labels := monthSeries(res.AssistantMonthlyLengths,
		func(r model.MonthlyLength) time.Time { return r.Month },
		func(r model.MonthlyLength) float64 { return zeroNaN(r.MeanWordCount) })
	if len(values) > 0 {
		b.WriteString(components.ContentCard("Mean words per reply, by month",
			components.BarChart(values, labels, t.Magenta, components.CardInnerWidth(cw), 7), cw))
		b.WriteString("\n")
	}

	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw, cw}
	}
	trend := a.renderReplyTrend(halves[0])
	turns := a.renderTurnStats(halves[1])
	if a.isCompactLayout() {
		b.WriteString(trend)
		b.WriteString("\n")
		b.WriteString(turns)
	} else {
		b.WriteString(components.CardRow([]string{trend, turns}))
	}
	return b.String()
}

// renderReplyTrend plots the trailing 7 and 30 day means of daily reply
// length. Days before a window fills render as gaps.
func (a App) renderReplyTrend(w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	rows := a.result.AssistantDailyLengths

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)

	if len(rows) == 0 {
		return components.ContentCard("Reply length trend", labelStyle.Render("No timed replies"), w)
	}

	roll7 := make([]float64, len(rows))
	roll30 := make([]float64, len(rows))
	for i, r := range rows {
		roll7[i] = r.MeanWordCountRoll7
		roll30[i] = r.MeanWordCountRoll30
	}
	sparkW := max(10, inner-8)
	last := rows[len(rows)-1]

	var b strings.Builder
	b.WriteString(labelStyle.Render("7d   "))
	b.WriteString(components.Sparkline(tail(roll7, sparkW), t.Cyan))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("30d  "))
	b.WriteString(components.Sparkline(tail(roll30, sparkW), t.Magenta))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("Latest (%s)  ", cli.FormatDate(&last.Date))))
	b.WriteString(valueStyle.Render(cli.FormatFloat(last.MeanWordCountRoll30)))
	b.WriteString(labelStyle.Render(" words · "))
	b.WriteString(valueStyle.Render(cli.FormatFloat(last.MeanCharCountRoll30)))
	b.WriteString(labelStyle.Render(" chars"))

	return components.ContentCard("Reply length trend", b.String(), w)
}

func (a App) renderTurnStats(w int) string {
	t := theme.Active
	m := a.result.Metrics

	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	rows := []struct {
		label string
		stats model.Stats
		fmt   func(float64) string
	}{
		{"Messages", m.ConversationLengthStats, cli.FormatFloat},
		{"Your turns", m.UserTurnStats, cli.FormatFloat},
		{"Replies", m.AssistantTurnStats, cli.FormatFloat},
		{"Your words", m.UserWordCountStats, cli.FormatFloat},
		{"Duration", m.ConversationDurationMinutesStats, cli.FormatMinutes},
	}

	var b strings.Builder
	b.WriteString(headStyle.Render(fmt.Sprintf("%-12s%9s%9s%9s%9s", "", "mean", "median", "p90", "max")))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", r.label)))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%9s%9s%9s%9s",
			r.fmt(r.stats.Mean), r.fmt(r.stats.Median), r.fmt(r.stats.P90), r.fmt(r.stats.Max))))
	}
	return components.ContentCard("Per conversation", b.String(), w)
}

func zeroNaN(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return f
}
