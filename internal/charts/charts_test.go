package charts

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/pipeline"
)

func wellFormed(t *testing.T, data []byte) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			t.Fatalf("malformed SVG: %v", err)
		}
	}
}

func sample(t *testing.T) *model.AnalysisResult {
	t.Helper()
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	var msgs []model.FlatMessage
	for day := 0; day < 40; day++ {
		for i, role := range []string{"user", "assistant", "tool"} {
			ts := base.AddDate(0, 0, day).Add(time.Duration(i) * time.Minute)
			cal := model.NewCalendar(ts)
			msgs = append(msgs, model.FlatMessage{
				ConversationIndex: day,
				Role:              role,
				CreateTime:        &ts,
				Calendar:          &cal,
				WordCount:         day * 10,
				CharCount:         day * 60,
			})
		}
	}
	res, err := pipeline.Summarise(msgs)
	require.NoError(t, err)
	return res
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteAll(dir, sample(t))
	require.NoError(t, err)
	require.Len(t, paths, len(FileNames))

	for _, name := range FileNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		wellFormed(t, data)
		assert.NotContains(t, string(data), "No data", name)
		assert.NotContains(t, string(data), "NaN", name)
	}
}

func TestRender_EmptyTablesUsePlaceholder(t *testing.T) {
	res := &model.AnalysisResult{}
	for _, name := range FileNames {
		data, err := Render(name, res)
		require.NoError(t, err, name)
		wellFormed(t, data)
		assert.Contains(t, string(data), "No data", name)
	}

	_, err := Render("nope.svg", res)
	assert.Error(t, err)
}

func TestMonthlyByRoleChart_Colors(t *testing.T) {
	svg := string(MonthlyByRoleChart(sample(t).MonthlyMessageCountsByRole))
	assert.Contains(t, svg, "#64ffda")
	assert.Contains(t, svg, "#ff61ef")
	assert.Contains(t, svg, "#ffd479")
	assert.Contains(t, svg, "Messages per Month by Role")
	assert.Contains(t, svg, ">Assistant<")
}

func TestDepthMixChart_Labels(t *testing.T) {
	svg := string(DepthMixChart([]model.CategoryCount{{Category: model.CategoryOneAndDone, Conversations: 3}}))
	assert.Contains(t, svg, "Deep dives")
	assert.Contains(t, svg, "Quick loops")
	assert.Contains(t, svg, "One &amp; done")
}

func TestBuildHistogram(t *testing.T) {
	h := BuildHistogram([]float64{0, 5000, 10, 2000}, WordClip, 4)
	require.Len(t, h.Counts, 4)
	require.Len(t, h.Edges, 5)
	assert.Equal(t, 0.0, h.Edges[0])
	assert.Equal(t, 2000.0, h.Edges[4])
	assert.Equal(t, []int{2, 0, 0, 2}, h.Counts)

	single := BuildHistogram([]float64{7, 7}, WordClip, HistogramBins)
	total := 0
	for _, n := range single.Counts {
		total += n
	}
	assert.Equal(t, 2, total)

	assert.Empty(t, BuildHistogram(nil, WordClip, HistogramBins).Counts)
}

func TestNiceTicks(t *testing.T) {
	assert.Equal(t, []float64{0, 1}, niceTicks(0))
	assert.Equal(t, []float64{0, 2, 4, 6, 8, 10}, niceTicks(9))
	assert.Equal(t, []float64{0, 20, 40, 60, 80, 100}, niceTicks(87))
	assert.Equal(t, "1.5k", formatTick(1500))
	assert.Equal(t, "20", formatTick(20))
}

func TestRampColor(t *testing.T) {
	assert.Equal(t, "#440154", rampColor(0))
	assert.Equal(t, "#fde725", rampColor(1))
	assert.Equal(t, "#fde725", rampColor(3))
}

func TestRoleColor(t *testing.T) {
	assert.Equal(t, "#d2d2d2", RoleColor("unknown"))
	assert.Equal(t, "#9bb5ff", RoleColor("critic"))
}
