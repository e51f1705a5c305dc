package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/gptrecap/internal/cli"
	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/tui/components"
	"github.com/theirongolddev/gptrecap/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	res := a.result
	m := res.Metrics
	var b strings.Builder

	activeDays := m.DateRange.ActiveDays
	perDay := cli.Missing
	if activeDays > 0 {
		perDay = cli.FormatFloat(float64(m.MessageCountTotal)/float64(activeDays)) + "/active day"
	}
	perConv := cli.Missing
	if m.ConversationCount > 0 {
		perConv = cli.FormatFloat(float64(m.MessageCountTotal)/float64(m.ConversationCount)) + " msgs each"
	}
	span := ""
	if f, l := m.DateRange.FirstConversation, m.DateRange.LastConversation; f != nil && l != nil {
		span = fmt.Sprintf("over %s days", cli.FormatNumber(int64(l.Sub(*f).Hours()/24)+1))
	}

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Conversations", Value: cli.FormatNumber(int64(m.ConversationCount)), Note: perConv},
		{Label: "Messages", Value: cli.FormatNumber(int64(m.MessageCountTotal)), Note: perDay},
		{Label: "Active days", Value: cli.FormatNumber(int64(activeDays)), Note: span},
		{Label: "Assistant share", Value: cli.FormatPercent(roleShare(m, model.RoleAssistant)),
			Note: "you " + cli.FormatPercent(roleShare(m, model.RoleUser))},
	}, cw))
	b.WriteString("\n")

	values, labels := monthSeries(res.MonthlyMessageCounts,
		func(r model.MonthCount) time.Time { return r.Month },
		func(r model.MonthCount) float64 { return float64(r.Messages) })
	if len(values) > 0 {
		b.WriteString(components.ContentCard("Messages per month",
			components.BarChart(values, labels, t.Blue, components.CardInnerWidth(cw), 8), cw))
		b.WriteString("\n")
	}

	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw, cw}
	}
	roles := a.renderRoleShares(halves[0])
	depth := a.renderDepthShares(halves[1])
	if a.isCompactLayout() {
		b.WriteString(roles)
		b.WriteString("\n")
		b.WriteString(depth)
	} else {
		b.WriteString(components.CardRow([]string{roles, depth}))
	}
	return b.String()
}

func (a App) renderRoleShares(w int) string {
	t := theme.Active
	m := a.result.Metrics
	inner := components.CardInnerWidth(w)

	lines := make([]string, 0, len(a.result.MessagesByRole))
	for _, rc := range a.result.MessagesByRole {
		pct := roleShare(m, rc.Role)
		lines = append(lines, components.ShareBar(rc.Role, pct, cli.FormatNumber(int64(rc.Messages)),
			t.Role(rc.Role), 10, max(10, inner-30)))
	}
	return components.ContentCard("Who's talking", strings.Join(lines, "\n"), w)
}

func (a App) renderDepthShares(w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	total := a.result.Metrics.ConversationCount

	lines := make([]string, 0, len(a.result.ConversationCategories))
	for _, cc := range a.result.ConversationCategories {
		pct := 0.0
		if total > 0 {
			pct = float64(cc.Conversations) / float64(total)
		}
		label := strings.ReplaceAll(cc.Category, "_", " ")
		lines = append(lines, components.ShareBar(label, pct, cli.FormatNumber(int64(cc.Conversations)),
			t.Category(cc.Category), 16, max(10, inner-36)))
	}
	if len(lines) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No conversations"))
	}
	return components.ContentCard("Conversation depth", strings.Join(lines, "\n"), w)
}

func roleShare(m model.Metrics, role string) float64 {
	if m.MessageCountTotal == 0 {
		return 0
	}
	return float64(m.MessagesByRole[role]) / float64(m.MessageCountTotal)
}

// monthSeries lays rows out on a gapless month axis from the first to the
// last month present; missing months are zero. Labels carry the year on
// the first bar and on every January.
func monthSeries[T any](rows []T, month func(T) time.Time, value func(T) float64) ([]float64, []string) {
	if len(rows) == 0 {
		return nil, nil
	}

	byMonth := make(map[time.Time]float64, len(rows))
	first, last := month(rows[0]), month(rows[0])
	for _, r := range rows {
		mo := month(r)
		byMonth[mo] = value(r)
		if mo.Before(first) {
			first = mo
		}
		if mo.After(last) {
			last = mo
		}
	}

	var values []float64
	var labels []string
	for mo := first; !mo.After(last); mo = mo.AddDate(0, 1, 0) {
		values = append(values, byMonth[mo])
		if len(labels) == 0 || mo.Month() == time.January {
			labels = append(labels, mo.Format("Jan'06"))
		} else {
			labels = append(labels, mo.Format("Jan"))
		}
	}
	return values, labels
}

// dailySeries lays day counts out on a gapless day axis.
func dailySeries(days []model.DayCount) []float64 {
	if len(days) == 0 {
		return nil
	}
	byDay := make(map[time.Time]int, len(days))
	first, last := days[0].Date, days[0].Date
	for _, d := range days {
		byDay[d.Date] = d.Messages
		if d.Date.Before(first) {
			first = d.Date
		}
		if d.Date.After(last) {
			last = d.Date
		}
	}

	var out []float64
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		out = append(out, float64(byDay[day]))
	}
	return out
}

// tail returns the last n values.
func tail(values []float64, n int) []float64 {
	if n < len(values) {
		return values[len(values)-n:]
	}
	return values
}
