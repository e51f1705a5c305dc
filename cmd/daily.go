package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/gptrecap/internal/cli"
)

var flagDailyLast int

var dailyCmd = &cobra.Command{
	Use:   "daily <conversations.json>",
	Short: "Messages per day",
	Args:  cobra.ExactArgs(1),
	RunE:  runDaily,
}

func init() {
	dailyCmd.Flags().IntVarP(&flagDailyLast, "last", "n", 30, "Show the last N active days (0 for all)")
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, args []string) error {
	_, res, err := loadData(args[0])
	if err != nil {
		return err
	}

	cum := res.CumulativeMessageCounts
	if flagDailyLast > 0 && len(cum) > flagDailyLast {
		cum = cum[len(cum)-flagDailyLast:]
	}
	if len(cum) == 0 {
		fmt.Println("\n  No timed messages.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY MESSAGES  %d days", len(cum))))
	fmt.Println()

	rows := make([][]string, 0, len(cum))
	series := make([]float64, 0, len(cum))
	for _, d := range cum {
		rows = append(rows, []string{
			d.Date.Format("2006-01-02"),
			cli.FormatWeekday(d.Date.Weekday()),
			cli.FormatNumber(int64(d.Messages)),
			cli.FormatNumber(int64(d.CumulativeMessages)),
		})
		series = append(series, float64(d.CumulativeMessages))
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Messages", "Cumulative"},
		Rows:    rows,
	}))
	fmt.Printf("\n  Cumulative  %s\n\n", cli.RenderSparkline(series))
	return nil
}
