package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/gptrecap/internal/cli"
	"github.com/theirongolddev/gptrecap/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <conversations.json>",
	Short: "Headline metrics of an export",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, args []string) error {
	_, res, err := loadData(args[0])
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("CHATGPT RECAP  " + filepath.Base(args[0])))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    summaryRows(res),
	}))
	return nil
}

func summaryRows(res *model.AnalysisResult) [][]string {
	m := res.Metrics
	dr := m.DateRange

	rows := [][]string{
		{"Conversations", cli.FormatNumber(int64(m.ConversationCount))},
		{"Messages", cli.FormatNumber(int64(m.MessageCountTotal))},
	}
	for _, rc := range res.MessagesByRole {
		rows = append(rows, []string{"  " + cli.RenderRole(rc.Role), fmt.Sprintf("%s  %s",
			cli.FormatNumber(int64(rc.Messages)),
			cli.FormatPercent(float64(rc.Messages)/float64(max(1, m.MessageCountTotal))))})
	}
	rows = append(rows,
		cli.SeparatorRow,
		[]string{"First conversation", cli.FormatDate(dr.FirstConversation)},
		[]string{"Last conversation", cli.FormatDate(dr.LastConversation)},
		[]string{"Active days", cli.FormatNumber(int64(dr.ActiveDays))},
		cli.SeparatorRow,
		[]string{"Messages / conversation", cli.FormatFloat(m.ConversationLengthStats.Mean)},
		[]string{"Median duration", cli.FormatMinutes(m.ConversationDurationMinutesStats.Median)},
		[]string{"Words / prompt", cli.FormatFloat(m.UserWordCountStats.Mean)},
		[]string{"Words / reply", cli.FormatFloat(m.AssistantWordCountStats.Mean)},
		cli.SeparatorRow,
	)
	for _, cc := range res.ConversationCategories {
		rows = append(rows, []string{cc.Category, cli.FormatNumber(int64(cc.Conversations))})
	}
	return rows
}
