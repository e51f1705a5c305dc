package report

import (
	"time"

	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/pipeline"
)

// Table is a named, fully formatted tabular view of a result.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// FileName is the CSV file the table is written to.
func (t Table) FileName() string { return t.Name + ".csv" }

// TableNames lists every table in write order.
var TableNames = []string{
	"messages_flat",
	"conversation_summary",
	"messages_by_role",
	"conversation_categories",
	"messages_per_month",
	"messages_per_month_by_role_long",
	"messages_per_month_by_role",
	"conversations_per_month",
	"messages_by_hour",
	"messages_by_hour_by_role_long",
	"messages_by_hour_by_role",
	"messages_by_weekday",
	"messages_by_weekday_by_role_long",
	"messages_by_weekday_by_role",
	"messages_by_day",
	"messages_by_weekday_hour",
	"messages_cumulative",
	"assistant_responses_with_lengths",
	"assistant_daily_lengths",
	"assistant_monthly_lengths",
}

var tableBuilders = map[string]func(*model.AnalysisResult) Table{
	"messages_flat":                    func(r *model.AnalysisResult) Table { return messagesTable("messages_flat", r.Messages) },
	"conversation_summary":             conversationSummaryTable,
	"messages_by_role":                 rolesTable,
	"conversation_categories":          categoriesTable,
	"messages_per_month":               monthsTable,
	"messages_per_month_by_role_long":  monthRolesTable,
	"messages_per_month_by_role":       monthRolesWideTable,
	"conversations_per_month":          conversationMonthsTable,
	"messages_by_hour":                 hoursTable,
	"messages_by_hour_by_role_long":    hourRolesTable,
	"messages_by_hour_by_role":         hourRolesWideTable,
	"messages_by_weekday":              weekdaysTable,
	"messages_by_weekday_by_role_long": weekdayRolesTable,
	"messages_by_weekday_by_role":      weekdayRolesWideTable,
	"messages_by_day":                  daysTable,
	"messages_by_weekday_hour":         weekdayHoursTable,
	"messages_cumulative":              cumulativeTable,
	"assistant_responses_with_lengths": func(r *model.AnalysisResult) Table {
		return messagesTable("assistant_responses_with_lengths", r.AssistantResponses)
	},
	"assistant_daily_lengths":   dailyLengthsTable,
	"assistant_monthly_lengths": monthlyLengthsTable,
}

// Tables formats every table of res.
func Tables(res *model.AnalysisResult) []Table {
	out := make([]Table, 0, len(TableNames))
	for _, name := range TableNames {
		out = append(out, tableBuilders[name](res))
	}
	return out
}

// TableByName formats a single table. ok is false for unknown names.
func TableByName(res *model.AnalysisResult, name string) (Table, bool) {
	build, ok := tableBuilders[name]
	if !ok {
		return Table{}, false
	}
	return build(res), true
}

func messagesTable(name string, msgs []model.FlatMessage) Table {
	t := Table{Name: name, Header: model.MessageColumns, Rows: make([][]string, 0, len(msgs))}
	for _, m := range msgs {
		var date, month, hour, weekday string
		if m.Calendar != nil {
			date = dateCell(m.Calendar.Date)
			month = monthCell(m.Calendar.Month)
			hour = intCell(m.Calendar.Hour)
			weekday = weekdayCell(m.Calendar.Weekday)
		}
		t.Rows = append(t.Rows, []string{
			intCell(m.ConversationIndex),
			m.ConversationID,
			m.ConversationTitle,
			m.MessageID,
			m.MessageID,
			m.Role,
			awareCell(m.CreateTime),
			m.ContentType,
			m.Text,
			intCell(m.WordCount),
			intCell(m.CharCount),
			boolCell(m.HasCode),
			boolCell(m.IsMultimodal),
			date,
			month,
			hour,
			weekday,
		})
	}
	return t
}

func conversationSummaryTable(res *model.AnalysisResult) Table {
	t := Table{
		Name: "conversation_summary",
		Header: []string{
			"conversation_index", "conversation_id", "conversation_title",
			"first_time", "last_time", "duration_minutes",
			"messages", "user_messages", "assistant_messages", "tool_messages", "system_messages",
			"words_user", "words_assistant",
			"has_code", "has_multimodal", "has_tool",
			"first_time_local", "last_time_local", "category",
		},
	}
	for _, c := range res.ConversationSummary {
		t.Rows = append(t.Rows, []string{
			intCell(c.ConversationIndex),
			c.ConversationID,
			c.ConversationTitle,
			awareCell(c.FirstTime),
			awareCell(c.LastTime),
			floatCell(c.DurationMinutes),
			intCell(c.Messages),
			intCell(c.UserMessages),
			intCell(c.AssistantMessages),
			intCell(c.ToolMessages),
			intCell(c.SystemMessages),
			intCell(c.WordsUser),
			intCell(c.WordsAssistant),
			boolCell(c.HasCode),
			boolCell(c.HasMultimodal),
			boolCell(c.HasTool),
			naiveCell(c.FirstTime),
			naiveCell(c.LastTime),
			c.Category,
		})
	}
	return t
}

func rolesTable(res *model.AnalysisResult) Table {
	t := Table{Name: "messages_by_role", Header: []string{"role", "messages"}}
	for _, r := range res.MessagesByRole {
		t.Rows = append(t.Rows, []string{r.Role, intCell(r.Messages)})
	}
	return t
}

func categoriesTable(res *model.AnalysisResult) Table {
	t := Table{Name: "conversation_categories", Header: []string{"category", "conversations"}}
	for _, c := range res.ConversationCategories {
		t.Rows = append(t.Rows, []string{c.Category, intCell(c.Conversations)})
	}
	return t
}

func monthsTable(res *model.AnalysisResult) Table {
	t := Table{Name: "messages_per_month", Header: []string{"month", "messages"}}
	for _, m := range res.MonthlyMessageCounts {
		t.Rows = append(t.Rows, []string{monthCell(m.Month), intCell(m.Messages)})
	}
	return t
}

func monthRolesTable(res *model.AnalysisResult) Table {
	t := Table{Name: "messages_per_month_by_role_long", Header: []string{"month", "role", "messages"}}
	for _, m := range res.MonthlyMessageCountsByRole {
		t.Rows = append(t.Rows, []string{monthCell(m.Month), m.Role, intCell(m.Messages)})
	}
	return t
}

func monthRolesWideTable(res *model.AnalysisResult) Table {
	return wideTable("messages_per_month_by_role", "month",
		pipeline.PivotByRole[time.Time](res.MonthlyMessageCountsByRole), monthCell)
}

func conversationMonthsTable(res *model.AnalysisResult) Table {
	t := Table{Name: "conversations_per_month", Header: []string{"month", "conversations"}}
	for _, m := range res.MonthlyConversationCounts {
		t.Rows = append(t.Rows, []string{monthCell(m.Month), intCell(m.Conversations)})
	}
	return t
}

func hoursTable(res *model.AnalysisResult) Table {
	t := Table{Name: "messages_by_hour", Header: []string{"hour", "messages"}}
	for _, h := range res.MessagesByHour {
		t.Rows = append(t.Rows, []string{intCell(h.Hour), intCell(h.Messages)})
	}
	return t
}

func hourRolesTable(res *model.AnalysisResult) Table {
	t := Table{Name: "messages_by_hour_by_role_long", Header: []string{"hour", "role", "messages"}}
	for _, h := range res.MessagesByHourByRole {
		t.Rows = append(t.Rows, []string{intCell(h.Hour), h.Role, intCell(h.Messages)})
	}
	return t
}

func hourRolesWideTable(res *model.AnalysisResult) Table {
	return wideTable("messages_by_hour_by_role", "hour",
		pipeline.PivotByRole[int](res.MessagesByHourByRole), intCell)
}

func weekdaysTable(res *model.AnalysisResult) Table {
	t := Table{Name: "messages_by_weekday", Header: []string{"weekday", "messages"}}
	for _, w := range res.MessagesByWeekday {
		t.Rows = append(t.Rows, []string{weekdayCell(w.Weekday), intCell(w.Messages)})
	}
	return t
}

func weekdayRolesTable(res *model.AnalysisResult) Table {
	t := Table{Name: "messages_by_weekday_by_role_long", Header: []string{"weekday", "role", "messages"}}
	for _, w := range res.MessagesByWeekdayByRole {
		t.Rows = append(t.Rows, []string{weekdayCell(w.Weekday), w.Role, intCell(w.Messages)})
	}
	return t
}

func weekdayRolesWideTable(res *model.AnalysisResult) Table {
	return wideTable("messages_by_weekday_by_role", "weekday",
		pipeline.PivotByRole[time.Weekday](res.MessagesByWeekdayByRole), weekdayCell)
}

func daysTable(res *model.AnalysisResult) Table {
	t := Table{Name: "messages_by_day", Header: []string{"date", "messages"}}
	for _, d := range res.DailyMessageCounts {
		t.Rows = append(t.Rows, []string{dateCell(d.Date), intCell(d.Messages)})
	}
	return t
}

func weekdayHoursTable(res *model.AnalysisResult) Table {
	t := Table{Name: "messages_by_weekday_hour", Header: []string{"weekday", "hour", "messages"}}
	for _, w := range res.WeekdayHourCounts {
		t.Rows = append(t.Rows, []string{weekdayCell(w.Weekday), intCell(w.Hour), intCell(w.Messages)})
	}
	return t
}

func cumulativeTable(res *model.AnalysisResult) Table {
	t := Table{Name: "messages_cumulative", Header: []string{"date", "messages", "cumulative_messages"}}
	for _, c := range res.CumulativeMessageCounts {
		t.Rows = append(t.Rows, []string{dateCell(c.Date), intCell(c.Messages), intCell(c.CumulativeMessages)})
	}
	return t
}

var lengthColumns = []string{
	"responses", "mean_word_count", "median_word_count", "mean_char_count", "median_char_count",
}

func lengthCells(ls model.LengthStats) []string {
	return []string{
		intCell(ls.Responses),
		floatCell(ls.MeanWordCount),
		floatCell(ls.MedianWordCount),
		floatCell(ls.MeanCharCount),
		floatCell(ls.MedianCharCount),
	}
}

func dailyLengthsTable(res *model.AnalysisResult) Table {
	header := append([]string{"date"}, lengthColumns...)
	header = append(header,
		"mean_word_count_roll_7", "mean_word_count_roll_30",
		"mean_char_count_roll_7", "mean_char_count_roll_30")
	t := Table{Name: "assistant_daily_lengths", Header: header}
	for _, d := range res.AssistantDailyLengths {
		row := append([]string{dateCell(d.Date)}, lengthCells(d.LengthStats)...)
		row = append(row,
			floatCell(d.MeanWordCountRoll7), floatCell(d.MeanWordCountRoll30),
			floatCell(d.MeanCharCountRoll7), floatCell(d.MeanCharCountRoll30))
		t.Rows = append(t.Rows, row)
	}
	return t
}

func monthlyLengthsTable(res *model.AnalysisResult) Table {
	t := Table{Name: "assistant_monthly_lengths", Header: append([]string{"month"}, lengthColumns...)}
	for _, m := range res.AssistantMonthlyLengths {
		t.Rows = append(t.Rows, append([]string{monthCell(m.Month)}, lengthCells(m.LengthStats)...))
	}
	return t
}

func wideTable[K comparable](name, keyColumn string, pivot model.RolePivot[K], keyCell func(K) string) Table {
	t := Table{Name: name, Header: append([]string{keyColumn}, pivot.Roles...)}
	for _, r := range pivot.Rows {
		row := make([]string, 0, len(r.Counts)+1)
		row = append(row, keyCell(r.Key))
		for _, n := range r.Counts {
			row = append(row, intCell(n))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
