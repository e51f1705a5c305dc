package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/gptrecap/internal/config"
	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/pipeline"
	"github.com/theirongolddev/gptrecap/internal/report"
	"github.com/theirongolddev/gptrecap/internal/story"
	"github.com/theirongolddev/gptrecap/internal/store"
)

const sampleExport = `[{"id":"c1","title":"Hello","mapping":{
	"a":{"message":{"id":"m1","author":{"role":"user"},"create_time":1704067200,"content":{"content_type":"text","parts":["Hello there"]}}},
	"b":{"message":{"id":"m2","author":{"role":"assistant"},"create_time":1704067260,"content":{"content_type":"text","parts":["General Kenobi!"]}}},
	"c":{"message":{"id":"m3","author":{"role":"tool"},"create_time":1704073200,"content":{"content_type":"text","parts":["done"]}}}
}}]`

func writeExport(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conversations.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRootWritesRecap(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	input := writeExport(t, sampleExport)
	out := filepath.Join(t.TempDir(), "recap")

	rootCmd.SetArgs([]string{input, "-o", out, "-q"})
	require.NoError(t, rootCmd.Execute())

	for _, name := range []string{story.FileName, store.FileName, "conversation_summary.csv", report.MetricsFile} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	db, err := store.OpenDir(out)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	runs, err := db.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run, err := findRun(ctx, db, runs[0].ID[:6])
	require.NoError(t, err)
	assert.Equal(t, runs[0].ID, run.ID)
	assert.Equal(t, 3, run.Messages)

	_, err = findRun(ctx, db, "not-a-run")
	assert.Error(t, err)
}

func TestRootOutputFlagBeatsEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	envDir := filepath.Join(t.TempDir(), "from-env")
	t.Setenv(config.OutputDirEnv, envDir)
	input := writeExport(t, sampleExport)
	out := filepath.Join(t.TempDir(), "from-flag")

	rootCmd.SetArgs([]string{input, "-o", out, "-q"})
	require.NoError(t, rootCmd.Execute())

	assert.FileExists(t, filepath.Join(out, report.MetricsFile))
	assert.NoDirExists(t, envDir)
	assert.Equal(t, envDir, os.Getenv(config.OutputDirEnv), "environment must be left untouched")
	assert.Equal(t, out, config.OutputDir(appCfg))
}

func TestRootMalformedInput(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	input := writeExport(t, `{"not":"a list"}`)

	rootCmd.SetArgs([]string{input, "-o", t.TempDir(), "-q"})
	err := rootCmd.Execute()
	require.Error(t, err)

	msg := formatError(err)
	assert.True(t, strings.HasPrefix(msg, "gptrecap: MalformedInputError: "+input+": "), msg)
	assert.NotContains(t, msg, ": malformed input")
}

func TestFormatError(t *testing.T) {
	err := wrapInput("export.json", errors.Wrap(model.ErrEmptyDataset, "no messages to analyse"))
	assert.Equal(t, "gptrecap: EmptyDatasetError: export.json: no messages to analyse", formatError(err))

	assert.Equal(t, "gptrecap: unexpected error: boom", formatError(errors.New("boom")))
	assert.NoError(t, wrapInput("x", nil))
}

func TestSetupLogging(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.WarnLevel) })

	require.NoError(t, setupLogging("DEBUG", false))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	require.NoError(t, setupLogging("info", true))
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())

	require.NoError(t, setupLogging("", false))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	assert.Error(t, setupLogging("loud", false))
}

func loadSample(t *testing.T) *model.AnalysisResult {
	t.Helper()
	_, res, err := pipeline.LoadAndSummarise(writeExport(t, sampleExport), nil)
	require.NoError(t, err)
	return res
}

func TestSummaryRows(t *testing.T) {
	rows := summaryRows(loadSample(t))
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Conversations", "1"}, rows[0])
	assert.Equal(t, []string{"Messages", "3"}, rows[1])

	var categories []string
	for _, r := range rows {
		if len(r) == 2 && r[0] == model.CategoryOneAndDone {
			categories = append(categories, r[1])
		}
	}
	assert.Equal(t, []string{"1"}, categories)
}

func TestWeekdayTable(t *testing.T) {
	tbl := weekdayTable(loadSample(t))
	assert.Equal(t, []string{"Day", "Total", "assistant", "tool", "user"}, tbl.Headers)
	require.Len(t, tbl.Rows, 7)

	// 2024-01-01 was a Monday.
	assert.Equal(t, []string{"Mon", "3", "1", "1", "1"}, tbl.Rows[0])
	assert.Equal(t, "0", tbl.Rows[6][1])
}

func TestTopConversations(t *testing.T) {
	convs := []model.ConversationSummary{
		{ConversationIndex: 0, Messages: 2},
		{ConversationIndex: 1, Messages: 9},
		{ConversationIndex: 2, Messages: 2},
	}
	top := topConversations(convs, 2)
	require.Len(t, top, 2)
	assert.Equal(t, 1, top[0].ConversationIndex)
	assert.Equal(t, 0, top[1].ConversationIndex)
	assert.Len(t, topConversations(convs, 0), 3)
	assert.Equal(t, 0, convs[0].ConversationIndex, "input left untouched")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0123abcd", shortID("0123abcd-ffff"))
	assert.Equal(t, "abc", shortID("abc"))
}
