// Package story turns a recap into human-readable facts and renders them
// as an HTML slide deck or terminal markdown.
package story

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/theirongolddev/gptrecap/internal/model"
)

// DefaultTopConversations is how many conversations the leaderboard lists.
const DefaultTopConversations = 5

// Context holds every formatted fact the templates read. Values are
// display strings; anything unavailable is Missing.
type Context struct {
	FirstDate         string
	LastDate          string
	ConversationCount string
	MessageCount      string
	ActiveDays        string
	AvgMessagesPerDay string

	PeakMonthLabel  string
	PeakMonthValue  string
	QuietMonthLabel string
	QuietMonthValue string
	BusiestDayLabel string
	BusiestDayValue string

	LongestStreakLength string
	LongestStreakRange  string
	LongestGapLength    string
	LongestGapRange     string

	AssistantShare string
	UserShare      string
	DeepShare      string
	ShortShare     string
	OneShare       string
	ToolShare      string
	CodeShare      string

	TopConversationTitle    string
	TopConversationMessages string

	WordiestMonthLabel string
	WordiestMonthWords string
	TersestMonthLabel  string
	TersestMonthWords  string
	LatestWordAvg      string
	LatestCharAvg      string
	LatestDateLabel    string

	TopConversations []ConversationLine
}

// ConversationLine is one leaderboard entry.
type ConversationLine struct {
	Title    string
	Messages string
	Category string
}

// Span is a run of consecutive days. Length is 0 and the bounds are nil
// when no run exists.
type Span struct {
	Length int
	Start  *time.Time
	End    *time.Time
}

// RangeLabel formats the span bounds.
func (s Span) RangeLabel() string {
	return Range(Date(s.Start), Date(s.End))
}

// BuildContext computes the formatted facts of res.
func BuildContext(res *model.AnalysisResult) Context {
	m := res.Metrics
	c := Context{
		FirstDate:         Date(m.DateRange.FirstConversation),
		LastDate:          Date(m.DateRange.LastConversation),
		ConversationCount: Int(float64(m.ConversationCount)),
		MessageCount:      Int(float64(m.MessageCountTotal)),
		ActiveDays:        Int(float64(m.DateRange.ActiveDays)),
		AvgMessagesPerDay: Missing,
		PeakMonthLabel:    Missing,
		PeakMonthValue:    Missing,
		QuietMonthLabel:   Missing,
		QuietMonthValue:   Missing,
		BusiestDayLabel:   Missing,
		BusiestDayValue:   Missing,
	}

	days := res.DailyMessageCounts
	c.LatestDateLabel = c.LastDate
	var dates []time.Time
	if len(days) > 0 {
		total := lo.SumBy(days, func(d model.DayCount) int { return d.Messages })
		c.AvgMessagesPerDay = Float(float64(total) / float64(len(days)))

		busiest := lo.MaxBy(days, func(a, b model.DayCount) bool { return a.Messages > b.Messages })
		c.BusiestDayLabel = Date(&busiest.Date)
		c.BusiestDayValue = Int(float64(busiest.Messages))

		dates = lo.Map(days, func(d model.DayCount, _ int) time.Time { return d.Date })
		latest := lo.MaxBy(dates, func(a, b time.Time) bool { return a.After(b) })
		c.LatestDateLabel = Date(&latest)
	}

	streak := LongestStreak(dates)
	c.LongestStreakLength = Int(float64(streak.Length))
	c.LongestStreakRange = streak.RangeLabel()
	gap := LongestGap(dates)
	c.LongestGapLength = Int(float64(gap.Length))
	c.LongestGapRange = gap.RangeLabel()

	if months := res.MonthlyMessageCounts; len(months) > 0 {
		peak := lo.MaxBy(months, func(a, b model.MonthCount) bool { return a.Messages > b.Messages })
		quiet := lo.MinBy(months, func(a, b model.MonthCount) bool { return a.Messages < b.Messages })
		c.PeakMonthLabel = Date(&peak.Month)
		c.PeakMonthValue = Int(float64(peak.Messages))
		c.QuietMonthLabel = Date(&quiet.Month)
		c.QuietMonthValue = Int(float64(quiet.Messages))
	}

	roleTotal := 0
	for _, n := range m.MessagesByRole {
		roleTotal += n
	}
	c.AssistantShare = Percent(share(m.MessagesByRole, model.RoleAssistant, roleTotal))
	c.UserShare = Percent(share(m.MessagesByRole, model.RoleUser, roleTotal))

	cats := make(map[string]int, len(res.ConversationCategories))
	catTotal := 0
	for _, cc := range res.ConversationCategories {
		cats[cc.Category] = cc.Conversations
		catTotal += cc.Conversations
	}
	c.DeepShare = Percent(share(cats, model.CategoryDeepMultiTurn, catTotal))
	c.ShortShare = Percent(share(cats, model.CategoryShortMultiTurn, catTotal))
	c.OneShare = Percent(share(cats, model.CategoryOneAndDone, catTotal))

	convs := res.ConversationSummary
	c.ToolShare = Percent(ratio(lo.CountBy(convs, func(cs model.ConversationSummary) bool { return cs.HasTool }), len(convs)))
	c.CodeShare = Percent(ratio(lo.CountBy(convs, func(cs model.ConversationSummary) bool { return cs.HasCode }), len(convs)))

	c.TopConversationTitle, c.TopConversationMessages = Missing, Missing
	if len(convs) > 0 {
		top := lo.MaxBy(convs, func(a, b model.ConversationSummary) bool { return a.Messages > b.Messages })
		c.TopConversationTitle = top.ConversationTitle
		if c.TopConversationTitle == "" {
			c.TopConversationTitle = "Untitled"
		}
		c.TopConversationMessages = Int(float64(top.Messages))
	}
	c.TopConversations = TopConversations(res, DefaultTopConversations)

	c.WordiestMonthLabel, c.WordiestMonthWords = Missing, Missing
	c.TersestMonthLabel, c.TersestMonthWords = Missing, Missing
	if monthly := res.AssistantMonthlyLengths; len(monthly) > 0 {
		wordiest := lo.MaxBy(monthly, func(a, b model.MonthlyLength) bool { return a.MeanWordCount > b.MeanWordCount })
		tersest := lo.MinBy(monthly, func(a, b model.MonthlyLength) bool { return a.MeanWordCount < b.MeanWordCount })
		c.WordiestMonthLabel = Date(&wordiest.Month)
		c.WordiestMonthWords = Float(wordiest.MeanWordCount)
		c.TersestMonthLabel = Date(&tersest.Month)
		c.TersestMonthWords = Float(tersest.MeanWordCount)
	}

	c.LatestWordAvg, c.LatestCharAvg = Missing, Missing
	if words, ok := lastValid(res.AssistantDailyLengths, func(d model.DailyLength) float64 { return d.MeanWordCountRoll30 }); ok {
		c.LatestWordAvg = Float(words)
	}
	if chars, ok := lastValid(res.AssistantDailyLengths, func(d model.DailyLength) float64 { return d.MeanCharCountRoll30 }); ok {
		c.LatestCharAvg = Int(chars)
	}
	return c
}

// TopConversations lists the n largest conversations by message count,
// ties kept in conversation order.
func TopConversations(res *model.AnalysisResult, n int) []ConversationLine {
	convs := append([]model.ConversationSummary(nil), res.ConversationSummary...)
	sortByMessagesDesc(convs)
	if n < len(convs) {
		convs = convs[:max(n, 0)]
	}
	return lo.Map(convs, func(cs model.ConversationSummary, _ int) ConversationLine {
		title := cs.ConversationTitle
		if title == "" {
			title = "Untitled"
		}
		return ConversationLine{Title: title, Messages: Int(float64(cs.Messages)), Category: cs.Category}
	})
}

// LongestStreak finds the longest run of consecutive dates. The earliest
// run wins ties.
func LongestStreak(dates []time.Time) Span {
	sorted := sortedDays(dates)
	if len(sorted) == 0 {
		return Span{}
	}

	best := Span{Length: 1, Start: &sorted[0], End: &sorted[0]}
	runStart, runLen := 0, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Equal(sorted[i-1].AddDate(0, 0, 1)) {
			runLen++
		} else {
			runStart, runLen = i, 1
		}
		if runLen > best.Length {
			best = Span{Length: runLen, Start: &sorted[runStart], End: &sorted[i]}
		}
	}
	return best
}

// LongestGap finds the longest stretch of inactive days between two active
// dates. The earliest gap wins ties.
func LongestGap(dates []time.Time) Span {
	sorted := sortedDays(dates)
	var best Span
	for i := 1; i < len(sorted); i++ {
		missing := int(math.Round(sorted[i].Sub(sorted[i-1]).Hours()/24)) - 1
		if missing > best.Length {
			start := sorted[i-1].AddDate(0, 0, 1)
			end := sorted[i].AddDate(0, 0, -1)
			best = Span{Length: missing, Start: &start, End: &end}
		}
	}
	return best
}

func sortedDays(dates []time.Time) []time.Time {
	days := lo.Uniq(lo.Map(dates, func(t time.Time, _ int) time.Time {
		u := t.UTC()
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	}))
	sortTimes(days)
	return days
}

func share(counts map[string]int, key string, total int) float64 {
	n, ok := counts[key]
	if !ok {
		return math.NaN()
	}
	return ratio(n, total)
}

func lastValid(rows []model.DailyLength, value func(model.DailyLength) float64) (float64, bool) {
	for i := len(rows) - 1; i >= 0; i-- {
		if v := value(rows[i]); !math.IsNaN(v) {
			return v, true
		}
	}
	return 0, false
}

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}

func sortByMessagesDesc(convs []model.ConversationSummary) {
	sort.SliceStable(convs, func(i, j int) bool { return convs[i].Messages > convs[j].Messages })
}
