package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/gptrecap/internal/cli"
	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/pipeline"
)

var weekdayCmd = &cobra.Command{
	Use:   "weekday <conversations.json>",
	Short: "Messages by weekday, Monday first, split by role",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeekday,
}

func init() {
	rootCmd.AddCommand(weekdayCmd)
}

func runWeekday(_ *cobra.Command, args []string) error {
	_, res, err := loadData(args[0])
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("MESSAGES BY WEEKDAY  (UTC)"))
	fmt.Println()
	fmt.Print(cli.RenderTable(weekdayTable(res)))
	return nil
}

func weekdayTable(res *model.AnalysisResult) cli.Table {
	pivot := pipeline.PivotByRole[time.Weekday](res.MessagesByWeekdayByRole)
	byDay := make(map[time.Weekday][]int, len(pivot.Rows))
	for _, r := range pivot.Rows {
		byDay[r.Key] = r.Counts
	}
	totals := make(map[time.Weekday]int, len(res.MessagesByWeekday))
	for _, wd := range res.MessagesByWeekday {
		totals[wd.Weekday] = wd.Messages
	}

	headers := append([]string{"Day", "Total"}, pivot.Roles...)
	rows := make([][]string, 0, len(model.WeekdayOrder))
	for _, d := range model.WeekdayOrder {
		row := []string{cli.FormatWeekday(d), cli.FormatNumber(int64(totals[d]))}
		counts := byDay[d]
		for i := range pivot.Roles {
			n := 0
			if i < len(counts) {
				n = counts[i]
			}
			row = append(row, cli.FormatNumber(int64(n)))
		}
		rows = append(rows, row)
	}
	return cli.Table{Headers: headers, Rows: rows}
}
