// Package pipeline flattens conversation exports and aggregates them into
// recap tables and metrics.
package pipeline

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/theirongolddev/gptrecap/internal/model"
)

// Rolling windows for reply-length trends, in rows of the daily table.
const (
	ShortWindow = 7
	LongWindow  = 30
)

// Summarise computes every derived table and the metrics of a flat message
// table. Zero messages is ErrEmptyDataset.
func Summarise(msgs []model.FlatMessage) (*model.AnalysisResult, error) {
	if len(msgs) == 0 {
		return nil, errors.Wrap(model.ErrEmptyDataset, "no messages to analyse")
	}

	timed := lo.Filter(msgs, func(m model.FlatMessage, _ int) bool { return m.HasTime() })

	res := &model.AnalysisResult{Messages: msgs}
	res.ConversationSummary = AggregateConversations(msgs)
	res.MessagesByRole = aggregateRoles(msgs)
	res.ConversationCategories = aggregateCategories(res.ConversationSummary)
	res.MonthlyMessageCounts = aggregateMonths(timed)
	res.MonthlyMessageCountsByRole = aggregateMonthRoles(timed)
	res.MonthlyConversationCounts = aggregateConversationMonths(res.ConversationSummary)
	res.MessagesByHour = aggregateHours(timed)
	res.MessagesByHourByRole = aggregateHourRoles(timed)
	res.MessagesByWeekday = aggregateWeekdays(timed)
	res.MessagesByWeekdayByRole = aggregateWeekdayRoles(timed)
	res.DailyMessageCounts = AggregateDays(timed)
	res.WeekdayHourCounts = aggregateWeekdayHours(timed)
	res.CumulativeMessageCounts = Cumulative(res.DailyMessageCounts)
	res.AssistantResponses = assistantResponses(timed)
	res.AssistantDailyLengths = aggregateDailyLengths(res.AssistantResponses)
	res.AssistantMonthlyLengths = aggregateMonthlyLengths(res.AssistantResponses)
	res.Metrics = buildMetrics(msgs, res)
	return res, nil
}

// Classify assigns a depth category from turn counts. The first matching
// rule wins.
func Classify(userMessages, assistantMessages int) string {
	switch {
	case userMessages == 1 && assistantMessages == 1:
		return model.CategoryOneAndDone
	case userMessages <= 3:
		return model.CategoryShortMultiTurn
	default:
		return model.CategoryDeepMultiTurn
	}
}

// AggregateConversations builds one summary per conversation index.
func AggregateConversations(msgs []model.FlatMessage) []model.ConversationSummary {
	byIdx := make(map[int]*model.ConversationSummary)
	for _, m := range msgs {
		cs, ok := byIdx[m.ConversationIndex]
		if !ok {
			cs = &model.ConversationSummary{
				ConversationIndex: m.ConversationIndex,
				ConversationID:    m.ConversationID,
				ConversationTitle: m.ConversationTitle,
			}
			byIdx[m.ConversationIndex] = cs
		}

		cs.Messages++
		switch m.Role {
		case model.RoleUser:
			cs.UserMessages++
			cs.WordsUser += m.WordCount
		case model.RoleAssistant:
			cs.AssistantMessages++
			cs.WordsAssistant += m.WordCount
		case model.RoleTool:
			cs.ToolMessages++
		case model.RoleSystem:
			cs.SystemMessages++
		}
		cs.HasCode = cs.HasCode || m.HasCode
		cs.HasMultimodal = cs.HasMultimodal || m.IsMultimodal

		if m.CreateTime != nil {
			t := *m.CreateTime
			if cs.FirstTime == nil || t.Before(*cs.FirstTime) {
				cs.FirstTime = &t
			}
			if cs.LastTime == nil || t.After(*cs.LastTime) {
				last := t
				cs.LastTime = &last
			}
		}
	}

	out := make([]model.ConversationSummary, 0, len(byIdx))
	for _, cs := range byIdx {
		cs.HasTool = cs.ToolMessages > 0
		cs.DurationMinutes = math.NaN()
		if cs.FirstTime != nil && cs.LastTime != nil {
			cs.DurationMinutes = cs.LastTime.Sub(*cs.FirstTime).Seconds() / 60
		}
		cs.Category = Classify(cs.UserMessages, cs.AssistantMessages)
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConversationIndex < out[j].ConversationIndex })
	return out
}

func aggregateRoles(msgs []model.FlatMessage) []model.RoleCount {
	counts := make(map[string]int)
	for _, m := range msgs {
		counts[m.Role]++
	}
	out := make([]model.RoleCount, 0, len(counts))
	for role, n := range counts {
		out = append(out, model.RoleCount{Role: role, Messages: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Messages != out[j].Messages {
			return out[i].Messages > out[j].Messages
		}
		return out[i].Role < out[j].Role
	})
	return out
}

func aggregateCategories(convs []model.ConversationSummary) []model.CategoryCount {
	counts := lo.CountValuesBy(convs, func(c model.ConversationSummary) string { return c.Category })
	out := make([]model.CategoryCount, 0, len(counts))
	for cat, n := range counts {
		out = append(out, model.CategoryCount{Category: cat, Conversations: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Conversations != out[j].Conversations {
			return out[i].Conversations > out[j].Conversations
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func aggregateMonths(timed []model.FlatMessage) []model.MonthCount {
	counts := lo.CountValuesBy(timed, func(m model.FlatMessage) time.Time { return m.Calendar.Month })
	out := make([]model.MonthCount, 0, len(counts))
	for month, n := range counts {
		out = append(out, model.MonthCount{Month: month, Messages: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

type monthRole struct {
	month time.Time
	role  string
}

func aggregateMonthRoles(timed []model.FlatMessage) []model.MonthRoleCount {
	counts := lo.CountValuesBy(timed, func(m model.FlatMessage) monthRole {
		return monthRole{m.Calendar.Month, m.Role}
	})
	out := make([]model.MonthRoleCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.MonthRoleCount{Month: k.month, Role: k.role, Messages: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Month.Equal(out[j].Month) {
			return out[i].Month.Before(out[j].Month)
		}
		return out[i].Role < out[j].Role
	})
	return out
}

// aggregateConversationMonths counts conversations by the month they started.
func aggregateConversationMonths(convs []model.ConversationSummary) []model.MonthConversationCount {
	counts := make(map[time.Time]int)
	for _, c := range convs {
		if c.FirstTime == nil {
			continue
		}
		counts[model.NewCalendar(*c.FirstTime).Month]++
	}
	out := make([]model.MonthConversationCount, 0, len(counts))
	for month, n := range counts {
		out = append(out, model.MonthConversationCount{Month: month, Conversations: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

func aggregateHours(timed []model.FlatMessage) []model.HourCount {
	counts := lo.CountValuesBy(timed, func(m model.FlatMessage) int { return m.Calendar.Hour })
	out := make([]model.HourCount, 0, len(counts))
	for hour, n := range counts {
		out = append(out, model.HourCount{Hour: hour, Messages: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

type hourRole struct {
	hour int
	role string
}

func aggregateHourRoles(timed []model.FlatMessage) []model.HourRoleCount {
	counts := lo.CountValuesBy(timed, func(m model.FlatMessage) hourRole {
		return hourRole{m.Calendar.Hour, m.Role}
	})
	out := make([]model.HourRoleCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.HourRoleCount{Hour: k.hour, Role: k.role, Messages: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return out[i].Role < out[j].Role
	})
	return out
}

// aggregateWeekdays always returns seven rows, Monday first.
func aggregateWeekdays(timed []model.FlatMessage) []model.WeekdayCount {
	var counts [7]int
	for _, m := range timed {
		counts[model.WeekdayRank(m.Calendar.Weekday)]++
	}
	out := make([]model.WeekdayCount, len(model.WeekdayOrder))
	for i, d := range model.WeekdayOrder {
		out[i] = model.WeekdayCount{Weekday: d, Messages: counts[i]}
	}
	return out
}

type weekdayRole struct {
	weekday time.Weekday
	role    string
}

func aggregateWeekdayRoles(timed []model.FlatMessage) []model.WeekdayRoleCount {
	counts := lo.CountValuesBy(timed, func(m model.FlatMessage) weekdayRole {
		return weekdayRole{m.Calendar.Weekday, m.Role}
	})
	out := make([]model.WeekdayRoleCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.WeekdayRoleCount{Weekday: k.weekday, Role: k.role, Messages: n})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := model.WeekdayRank(out[i].Weekday), model.WeekdayRank(out[j].Weekday)
		if ri != rj {
			return ri < rj
		}
		return out[i].Role < out[j].Role
	})
	return out
}

// AggregateDays counts timestamped messages per UTC date.
func AggregateDays(timed []model.FlatMessage) []model.DayCount {
	counts := make(map[time.Time]int)
	for _, m := range timed {
		if m.Calendar == nil {
			continue
		}
		counts[m.Calendar.Date]++
	}
	out := make([]model.DayCount, 0, len(counts))
	for date, n := range counts {
		out = append(out, model.DayCount{Date: date, Messages: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

type weekdayHour struct {
	weekday time.Weekday
	hour    int
}

func aggregateWeekdayHours(timed []model.FlatMessage) []model.WeekdayHourCount {
	counts := lo.CountValuesBy(timed, func(m model.FlatMessage) weekdayHour {
		return weekdayHour{m.Calendar.Weekday, m.Calendar.Hour}
	})
	out := make([]model.WeekdayHourCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.WeekdayHourCount{Weekday: k.weekday, Hour: k.hour, Messages: n})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := model.WeekdayRank(out[i].Weekday), model.WeekdayRank(out[j].Weekday)
		if ri != rj {
			return ri < rj
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}

// Cumulative adds a running total to daily counts.
func Cumulative(days []model.DayCount) []model.CumulativeCount {
	out := make([]model.CumulativeCount, len(days))
	running := 0
	for i, d := range days {
		running += d.Messages
		out[i] = model.CumulativeCount{Date: d.Date, Messages: d.Messages, CumulativeMessages: running}
	}
	return out
}

func assistantResponses(timed []model.FlatMessage) []model.FlatMessage {
	out := lo.Filter(timed, func(m model.FlatMessage, _ int) bool { return m.Role == model.RoleAssistant })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreateTime.Before(*out[j].CreateTime) })
	return out
}

func lengthStats(group []model.FlatMessage) model.LengthStats {
	words := make([]float64, len(group))
	chars := make([]float64, len(group))
	for i, m := range group {
		words[i] = float64(m.WordCount)
		chars[i] = float64(m.CharCount)
	}
	return model.LengthStats{
		Responses:       len(group),
		MeanWordCount:   mean(words),
		MedianWordCount: median(words),
		MeanCharCount:   mean(chars),
		MedianCharCount: median(chars),
	}
}

// groupByTime buckets responses by a calendar key and returns the buckets
// in chronological order.
func groupByTime(responses []model.FlatMessage, key func(model.Calendar) time.Time) ([]time.Time, map[time.Time][]model.FlatMessage) {
	groups := lo.GroupBy(responses, func(m model.FlatMessage) time.Time { return key(*m.Calendar) })
	keys := lo.Keys(groups)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys, groups
}

func aggregateDailyLengths(responses []model.FlatMessage) []model.DailyLength {
	dates, groups := groupByTime(responses, func(c model.Calendar) time.Time { return c.Date })

	out := make([]model.DailyLength, len(dates))
	words := make([]float64, len(dates))
	chars := make([]float64, len(dates))
	for i, date := range dates {
		ls := lengthStats(groups[date])
		out[i] = model.DailyLength{Date: date, LengthStats: ls}
		words[i], chars[i] = ls.MeanWordCount, ls.MeanCharCount
	}

	words7, words30 := Rolling(words, ShortWindow), Rolling(words, LongWindow)
	chars7, chars30 := Rolling(chars, ShortWindow), Rolling(chars, LongWindow)
	for i := range out {
		out[i].MeanWordCountRoll7, out[i].MeanWordCountRoll30 = words7[i], words30[i]
		out[i].MeanCharCountRoll7, out[i].MeanCharCountRoll30 = chars7[i], chars30[i]
	}
	return out
}

func aggregateMonthlyLengths(responses []model.FlatMessage) []model.MonthlyLength {
	months, groups := groupByTime(responses, func(c model.Calendar) time.Time { return c.Month })
	out := make([]model.MonthlyLength, len(months))
	for i, month := range months {
		out[i] = model.MonthlyLength{Month: month, LengthStats: lengthStats(groups[month])}
	}
	return out
}

func buildMetrics(msgs []model.FlatMessage, res *model.AnalysisResult) model.Metrics {
	convs := res.ConversationSummary

	byRole := make(map[string]int, len(res.MessagesByRole))
	for _, rc := range res.MessagesByRole {
		byRole[rc.Role] = rc.Messages
	}

	roleValues := func(role string, value func(model.FlatMessage) int) []int {
		var out []int
		for _, m := range msgs {
			if m.Role == role {
				out = append(out, value(m))
			}
		}
		return out
	}
	wordCount := func(m model.FlatMessage) int { return m.WordCount }
	charCount := func(m model.FlatMessage) int { return m.CharCount }

	return model.Metrics{
		ConversationCount: len(convs),
		MessageCountTotal: len(msgs),
		MessagesByRole:    byRole,
		ConversationLengthStats: DescribeInts(lo.Map(convs, func(c model.ConversationSummary, _ int) int {
			return c.Messages
		})),
		ConversationDurationMinutesStats: Describe(lo.Map(convs, func(c model.ConversationSummary, _ int) float64 {
			return c.DurationMinutes
		})),
		UserTurnStats: DescribeInts(lo.Map(convs, func(c model.ConversationSummary, _ int) int {
			return c.UserMessages
		})),
		AssistantTurnStats: DescribeInts(lo.Map(convs, func(c model.ConversationSummary, _ int) int {
			return c.AssistantMessages
		})),
		UserWordCountStats:           DescribeInts(roleValues(model.RoleUser, wordCount)),
		AssistantWordCountStats:      DescribeInts(roleValues(model.RoleAssistant, wordCount)),
		UserCharacterCountStats:      DescribeInts(roleValues(model.RoleUser, charCount)),
		AssistantCharacterCountStats: DescribeInts(roleValues(model.RoleAssistant, charCount)),
		DateRange:                    dateRange(convs, res.DailyMessageCounts),
	}
}

// dateRange spans the earliest conversation start to the latest
// conversation end.
func dateRange(convs []model.ConversationSummary, days []model.DayCount) model.DateRange {
	dr := model.DateRange{ActiveDays: len(days)}
	for _, c := range convs {
		if c.FirstTime != nil && (dr.FirstConversation == nil || c.FirstTime.Before(*dr.FirstConversation)) {
			dr.FirstConversation = c.FirstTime
		}
		if c.LastTime != nil && (dr.LastConversation == nil || c.LastTime.After(*dr.LastConversation)) {
			dr.LastConversation = c.LastTime
		}
	}
	return dr
}
