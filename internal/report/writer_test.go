package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/pipeline"
)

func sampleResult(t *testing.T) *model.AnalysisResult {
	t.Helper()
	at := func(s string) *time.Time {
		ts, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return &ts
	}
	mk := func(conv int, role string, ts *time.Time, text string) model.FlatMessage {
		m := model.FlatMessage{
			ConversationIndex: conv,
			ConversationID:    "conv",
			ConversationTitle: "Trip, planning",
			MessageID:         "m-" + role,
			Role:              role,
			ContentType:       "text",
			Text:              text,
			WordCount:         pipeline.CountWords(text),
			CharCount:         len(text),
		}
		if ts != nil {
			cal := model.NewCalendar(*ts)
			m.CreateTime = ts
			m.Calendar = &cal
		}
		return m
	}

	res, err := pipeline.Summarise([]model.FlatMessage{
		mk(0, "user", at("2024-03-04T09:00:00Z"), "where should we go"),
		mk(0, "assistant", at("2024-03-04T09:01:40Z"), "try \"Lisbon\"\nor Porto"),
		mk(1, "user", nil, "untimed"),
	})
	require.NoError(t, err)
	return res
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSVs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteCSVs(context.Background(), sampleResult(t), dir)
	require.NoError(t, err)
	require.Len(t, paths, len(TableNames))

	for _, name := range TableNames {
		assert.FileExists(t, filepath.Join(dir, name+".csv"))
	}

	flat := readCSV(t, filepath.Join(dir, "messages_flat.csv"))
	require.Len(t, flat, 4)
	assert.Equal(t, model.MessageColumns, flat[0])
	assert.Equal(t, "2024-03-04T09:00:00Z", flat[1][6])
	assert.Equal(t, "2024-03-04", flat[1][13])
	assert.Equal(t, "2024-03-01T00:00:00", flat[1][14])
	assert.Equal(t, "Monday", flat[1][16])
	assert.Equal(t, "try \"Lisbon\"\nor Porto", flat[2][8])
	assert.Equal(t, flat[2][3], flat[2][4])
	assert.Equal(t, "False", flat[2][11])

	untimed := flat[3]
	assert.Equal(t, "", untimed[6])
	assert.Equal(t, "", untimed[13])
	assert.Equal(t, "", untimed[15])

	summary := readCSV(t, filepath.Join(dir, "conversation_summary.csv"))
	require.Len(t, summary, 3)
	assert.Equal(t, "Trip, planning", summary[1][2])
	assert.Equal(t, "1.6666666666666667", summary[1][5])
	assert.Equal(t, "2024-03-04T09:00:00", summary[1][16])
	assert.Equal(t, "", summary[2][5], "NaN duration is an empty cell")
	assert.Equal(t, "one_and_done", summary[1][18])

	weekday := readCSV(t, filepath.Join(dir, "messages_by_weekday.csv"))
	require.Len(t, weekday, 8)
	assert.Equal(t, []string{"Monday", "2"}, weekday[1])
	assert.Equal(t, []string{"Sunday", "0"}, weekday[7])

	wide := readCSV(t, filepath.Join(dir, "messages_per_month_by_role.csv"))
	assert.Equal(t, []string{"month", "assistant", "user"}, wide[0])
	assert.Equal(t, []string{"2024-03-01T00:00:00", "1", "1"}, wide[1])

	daily := readCSV(t, filepath.Join(dir, "assistant_daily_lengths.csv"))
	require.Len(t, daily, 2)
	assert.Equal(t, "4.0", daily[1][2])
}

func TestWriteCSV_EmptyTableHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteCSV(path, Table{Name: "empty", Header: []string{"date", "messages"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date,messages\n", string(data))
}

func TestTableByName(t *testing.T) {
	res := sampleResult(t)
	tbl, ok := TableByName(res, "messages_by_role")
	require.True(t, ok)
	assert.Equal(t, []string{"role", "messages"}, tbl.Header)
	assert.Equal(t, []string{"user", "2"}, tbl.Rows[0])

	_, ok = TableByName(res, "nope")
	assert.False(t, ok)
}

func TestWriteMetrics(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteMetrics(sampleResult(t), dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"conversation_count\": 2,")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.EqualValues(t, 3, doc["message_count_total"])

	dr := doc["date_range"].(map[string]any)
	assert.Equal(t, "2024-03-04T09:00:00", dr["first_conversation"])
	assert.Equal(t, "2024-03-04T09:01:40", dr["last_conversation"])
	assert.EqualValues(t, 1, dr["active_days"])

	duration := doc["conversation_duration_minutes_stats"].(map[string]any)
	assert.EqualValues(t, 1, duration["count"])

	turns := doc["user_turn_stats"].(map[string]any)
	assert.EqualValues(t, 2, turns["count"])
}

func TestMarshalMetrics_NaNIsNull(t *testing.T) {
	m := model.Metrics{ConversationLengthStats: pipeline.Describe(nil)}
	data, err := MarshalMetrics(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mean": null`)
	assert.Contains(t, string(data), `"first_conversation": null`)
}

func TestFloatCell(t *testing.T) {
	assert.Equal(t, "2.0", floatCell(2))
	assert.Equal(t, "2.5", floatCell(2.5))
	assert.Equal(t, "", floatCell(math.NaN()))
}
