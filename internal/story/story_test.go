package story

import (
	"bytes"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/pipeline"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "1,234,568", Int(1234567.6))
	assert.Equal(t, Missing, Int(math.NaN()))
	assert.Equal(t, "2", Float(2.0))
	assert.Equal(t, "2.5", Float(2.46))
	assert.Equal(t, "0", Float(0.01))
	assert.Equal(t, Missing, Float(math.NaN()))
	assert.Equal(t, "33.3%", Percent(1.0/3))
	assert.Equal(t, Missing, Percent(math.NaN()))

	d := time.Date(2024, 3, 4, 22, 10, 0, 0, time.UTC)
	assert.Equal(t, "Mar 04, 2024", Date(&d))
	assert.Equal(t, Missing, Date(nil))
}

func TestLongestStreak(t *testing.T) {
	dates := []time.Time{
		day(2024, 1, 1), day(2024, 1, 2),
		day(2024, 1, 5), day(2024, 1, 6), day(2024, 1, 7),
		day(2024, 1, 20),
	}
	s := LongestStreak(dates)
	assert.Equal(t, 3, s.Length)
	assert.Equal(t, "Jan 05, 2024 — Jan 07, 2024", s.RangeLabel())

	assert.Equal(t, 0, LongestStreak(nil).Length)
	assert.Equal(t, "— — —", LongestStreak(nil).RangeLabel())

	tie := LongestStreak([]time.Time{day(2024, 2, 1), day(2024, 3, 1)})
	assert.Equal(t, 1, tie.Length)
	assert.Equal(t, day(2024, 2, 1), *tie.Start)
}

func TestLongestGap(t *testing.T) {
	dates := []time.Time{day(2024, 1, 1), day(2024, 1, 4), day(2024, 1, 5), day(2024, 1, 15)}
	g := LongestGap(dates)
	assert.Equal(t, 9, g.Length)
	assert.Equal(t, day(2024, 1, 6), *g.Start)
	assert.Equal(t, day(2024, 1, 14), *g.End)

	none := LongestGap([]time.Time{day(2024, 1, 1), day(2024, 1, 2)})
	assert.Equal(t, 0, none.Length)
	assert.Nil(t, none.Start)
	assert.Equal(t, 0, LongestGap([]time.Time{day(2024, 1, 1)}).Length)
}

func sampleResult(t *testing.T) *model.AnalysisResult {
	t.Helper()
	mk := func(conv int, role string, ts time.Time, words int, code bool) model.FlatMessage {
		cal := model.NewCalendar(ts)
		return model.FlatMessage{
			ConversationIndex: conv,
			ConversationTitle: []string{"Trip <planning>", "Go generics", ""}[conv],
			Role:              role,
			CreateTime:        &ts,
			Calendar:          &cal,
			WordCount:         words,
			CharCount:         words * 6,
			HasCode:           code,
		}
	}
	msgs := []model.FlatMessage{
		mk(0, "user", day(2024, 1, 1).Add(9*time.Hour), 5, false),
		mk(0, "assistant", day(2024, 1, 1).Add(9*time.Hour+time.Minute), 100, false),
		mk(1, "user", day(2024, 2, 10).Add(10*time.Hour), 5, false),
		mk(1, "assistant", day(2024, 2, 10).Add(10*time.Hour+time.Minute), 40, true),
		mk(1, "user", day(2024, 2, 11).Add(10*time.Hour), 5, false),
		mk(1, "assistant", day(2024, 2, 11).Add(10*time.Hour+time.Minute), 20, false),
		mk(1, "tool", day(2024, 2, 11).Add(11*time.Hour), 0, false),
		mk(2, "user", day(2024, 2, 12).Add(8*time.Hour), 1, false),
	}
	res, err := pipeline.Summarise(msgs)
	require.NoError(t, err)
	return res
}

func TestBuildContext(t *testing.T) {
	c := BuildContext(sampleResult(t))

	assert.Equal(t, "Jan 01, 2024", c.FirstDate)
	assert.Equal(t, "Feb 12, 2024", c.LastDate)
	assert.Equal(t, "3", c.ConversationCount)
	assert.Equal(t, "8", c.MessageCount)
	assert.Equal(t, "4", c.ActiveDays)
	assert.Equal(t, "2", c.AvgMessagesPerDay)

	assert.Equal(t, "Feb 01, 2024", c.PeakMonthLabel)
	assert.Equal(t, "6", c.PeakMonthValue)
	assert.Equal(t, "Jan 01, 2024", c.QuietMonthLabel)
	assert.Equal(t, "Feb 11, 2024", c.BusiestDayLabel)
	assert.Equal(t, "3", c.BusiestDayValue)

	assert.Equal(t, "3", c.LongestStreakLength)
	assert.Equal(t, "Feb 10, 2024 — Feb 12, 2024", c.LongestStreakRange)
	assert.Equal(t, "39", c.LongestGapLength)

	assert.Equal(t, "37.5%", c.AssistantShare)
	assert.Equal(t, "50.0%", c.UserShare)
	assert.Equal(t, "33.3%", c.OneShare)
	assert.Equal(t, "66.7%", c.ShortShare)
	assert.Equal(t, Missing, c.DeepShare)
	assert.Equal(t, "33.3%", c.ToolShare)
	assert.Equal(t, "33.3%", c.CodeShare)

	assert.Equal(t, "Go generics", c.TopConversationTitle)
	assert.Equal(t, "5", c.TopConversationMessages)
	require.Len(t, c.TopConversations, 3)
	assert.Equal(t, "Untitled", c.TopConversations[2].Title)

	assert.Equal(t, "Jan 01, 2024", c.WordiestMonthLabel)
	assert.Equal(t, "100", c.WordiestMonthWords)
	assert.Equal(t, "30", c.TersestMonthWords)
	assert.Equal(t, "53.3", c.LatestWordAvg)
	assert.Equal(t, "320", c.LatestCharAvg)
	assert.Equal(t, "Feb 12, 2024", c.LatestDateLabel)
}

func TestBuildContext_NoTimestamps(t *testing.T) {
	res, err := pipeline.Summarise([]model.FlatMessage{{ConversationIndex: 0, Role: "user"}})
	require.NoError(t, err)

	c := BuildContext(res)
	assert.Equal(t, Missing, c.FirstDate)
	assert.Equal(t, Missing, c.AvgMessagesPerDay)
	assert.Equal(t, Missing, c.PeakMonthLabel)
	assert.Equal(t, Missing, c.LatestWordAvg)
	assert.Equal(t, "0", c.LongestStreakLength)
	assert.Equal(t, Missing, c.AssistantShare)
	assert.Equal(t, "100.0%", c.UserShare)
}

func TestRenderHTML(t *testing.T) {
	res := sampleResult(t)
	charts := map[string]string{
		"messages_cumulative.svg":           "/tmp/out/messages_cumulative.svg",
		"messages_per_month_by_role.svg":    "/tmp/out/messages_per_month_by_role.svg",
		"messages_weekday_hour_heatmap.svg": "/tmp/out/messages_weekday_hour_heatmap.svg",
	}

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, BuildContext(res), charts))
	html := buf.String()

	assert.Equal(t, 5, strings.Count(html, `class="story tone-`))
	assert.Contains(t, html, `src="messages_cumulative.svg"`)
	assert.NotContains(t, html, "/tmp/out")
	assert.NotContains(t, html, "assistant_reply_length_words_hist.svg")
	assert.Contains(t, html, "Jan 01, 2024 → Feb 12, 2024")
	assert.Contains(t, html, "RECAP")
	assert.NotContains(t, html, "NaN")
}

func TestRender_EscapesTitles(t *testing.T) {
	res := sampleResult(t)
	res.ConversationSummary[0].Messages = 99

	dir := t.TempDir()
	path, err := Render(res, nil, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Trip &lt;planning&gt;")
	assert.NotContains(t, string(data), "Trip <planning>")
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, BuildContext(sampleResult(t))))
	md := buf.String()

	assert.True(t, strings.HasPrefix(md, "# GPT Recap"))
	assert.Contains(t, md, "| Peak month | Feb 01, 2024 (6) |")
	assert.Contains(t, md, "1. Go generics (5 messages, short multi turn)")
	assert.Contains(t, md, "3. Untitled (1 messages, short multi turn)")
}

func TestRenderTerminal(t *testing.T) {
	out, err := RenderTerminal(BuildContext(sampleResult(t)), 80, "notty")
	require.NoError(t, err)
	assert.Contains(t, out, "GPT Recap")
	assert.Contains(t, out, "Go generics")
}
