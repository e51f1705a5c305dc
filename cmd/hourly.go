package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/gptrecap/internal/cli"
)

var hourlyCmd = &cobra.Command{
	Use:   "hourly <conversations.json>",
	Short: "Messages by hour of day (UTC)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHourly,
}

func init() {
	rootCmd.AddCommand(hourlyCmd)
}

func runHourly(_ *cobra.Command, args []string) error {
	_, res, err := loadData(args[0])
	if err != nil {
		return err
	}

	hours := make([]int, 24)
	for _, h := range res.MessagesByHour {
		if h.Hour >= 0 && h.Hour < 24 {
			hours[h.Hour] = h.Messages
		}
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("MESSAGES BY HOUR  (UTC)"))
	fmt.Println()

	peakHour := 0
	for h, n := range hours {
		if n > hours[peakHour] {
			peakHour = h
		}
	}

	for h, n := range hours {
		fmt.Printf("  %02d:00 │ %6s │%s\n", h, cli.FormatNumber(int64(n)),
			cli.RenderHorizontalBar("", float64(n), float64(hours[peakHour]), 40))
	}

	fmt.Printf("\n  Peak: %02d:00 (%s messages)\n\n",
		peakHour, cli.FormatNumber(int64(hours[peakHour])))
	return nil
}
