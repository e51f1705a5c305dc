package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/gptrecap/internal/cli"
	"github.com/theirongolddev/gptrecap/internal/config"
	"github.com/theirongolddev/gptrecap/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recaps recorded in <output>/recap.db",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var runsDailyCmd = &cobra.Command{
	Use:   "daily <run-id>",
	Short: "Daily message counts stored for a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDaily,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Remove a run and its rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsCmd.AddCommand(runsDailyCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

// openRuns opens the run database of the output directory. A nil store
// means nothing has been recorded yet.
func openRuns() (*store.Store, string, error) {
	dir := config.OutputDir(appCfg)
	if _, err := os.Stat(filepath.Join(dir, store.FileName)); err != nil {
		return nil, dir, nil
	}
	db, err := store.OpenDir(dir)
	return db, dir, err
}

// findRun resolves a full run id or a unique prefix of one.
func findRun(ctx context.Context, db *store.Store, prefix string) (store.Run, error) {
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return store.Run{}, err
	}
	var matches []store.Run
	for _, r := range runs {
		if strings.HasPrefix(r.ID, prefix) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return store.Run{}, errors.Errorf("no run matches %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return store.Run{}, errors.Errorf("%q matches %d runs", prefix, len(matches))
	}
}

func runRuns(cmd *cobra.Command, _ []string) error {
	db, dir, err := openRuns()
	if err != nil {
		return err
	}
	if db == nil {
		fmt.Printf("\n  No runs recorded in %s\n\n", dir)
		return nil
	}
	defer func() { _ = db.Close() }()

	runs, err := db.ListRuns(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("RUNS  %s", filepath.Join(dir, store.FileName))))
	fmt.Println()

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.GeneratedAt.Local().Format("2006-01-02 15:04"),
			filepath.Base(r.InputPath),
			cli.FormatCount(r.InputSize) + "B",
			cli.FormatNumber(int64(r.Conversations)),
			cli.FormatNumber(int64(r.Messages)),
			cli.FormatNumber(int64(r.SkippedEntries)),
			shortID(r.ID),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Generated", "Export", "Size", "Convs", "Msgs", "Skipped", "Run"},
		Rows:    rows,
	}))
	if len(runs) > 0 {
		fmt.Printf("\n  Latest run %s ago\n\n", time.Since(runs[0].GeneratedAt).Round(time.Second))
	}
	return nil
}

func runRunsDaily(cmd *cobra.Command, args []string) error {
	db, dir, err := openRuns()
	if err != nil {
		return err
	}
	if db == nil {
		return errors.Errorf("no runs recorded in %s", dir)
	}
	defer func() { _ = db.Close() }()

	run, err := findRun(cmd.Context(), db, args[0])
	if err != nil {
		return err
	}
	days, err := db.DailyCounts(cmd.Context(), run.ID)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("RUN %s  %s", shortID(run.ID), filepath.Base(run.InputPath))))
	fmt.Println()

	peak := 0
	for _, d := range days {
		peak = max(peak, d.Messages)
	}
	for _, d := range days {
		fmt.Printf("  %s %s │ %6s │%s\n", d.Date.Format("2006-01-02"), cli.FormatWeekday(d.Date.Weekday()),
			cli.FormatNumber(int64(d.Messages)),
			cli.RenderHorizontalBar("", float64(d.Messages), float64(peak), 40))
	}
	fmt.Println()
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	db, dir, err := openRuns()
	if err != nil {
		return err
	}
	if db == nil {
		return errors.Errorf("no runs recorded in %s", dir)
	}
	defer func() { _ = db.Close() }()

	run, err := findRun(cmd.Context(), db, args[0])
	if err != nil {
		return err
	}
	if err := db.DeleteRun(cmd.Context(), run.ID); err != nil {
		return err
	}
	fmt.Printf("  Deleted run %s (%s)\n", shortID(run.ID), run.GeneratedAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
