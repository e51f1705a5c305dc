package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/gptrecap/internal/cli"
	"github.com/theirongolddev/gptrecap/internal/model"
)

var flagConvLimit int

var conversationsCmd = &cobra.Command{
	Use:   "conversations <conversations.json>",
	Short: "Longest conversations by message count",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversations,
}

func init() {
	conversationsCmd.Flags().IntVarP(&flagConvLimit, "limit", "l", 20, "Number of conversations to show (0 for all)")
	rootCmd.AddCommand(conversationsCmd)
}

func runConversations(_ *cobra.Command, args []string) error {
	_, res, err := loadData(args[0])
	if err != nil {
		return err
	}

	top := topConversations(res.ConversationSummary, flagConvLimit)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TOP CONVERSATIONS  %d of %d", len(top), len(res.ConversationSummary))))
	fmt.Println()

	rows := make([][]string, 0, len(top))
	for _, c := range top {
		title := c.ConversationTitle
		if title == "" {
			title = "Untitled"
		}
		if r := []rune(title); len(r) > 48 {
			title = string(r[:47]) + "…"
		}
		rows = append(rows, []string{
			title,
			cli.FormatDate(c.FirstTime),
			cli.FormatNumber(int64(c.Messages)),
			cli.FormatNumber(int64(c.UserMessages)),
			cli.FormatNumber(int64(c.AssistantMessages)),
			cli.FormatMinutes(c.DurationMinutes),
			c.Category,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Title", "Started", "Msgs", "You", "Replies", "Duration", "Depth"},
		Rows:    rows,
	}))
	return nil
}

// topConversations orders by message count, busiest first, keeping export
// order among ties. limit <= 0 keeps everything.
func topConversations(convs []model.ConversationSummary, limit int) []model.ConversationSummary {
	out := make([]model.ConversationSummary, len(convs))
	copy(out, convs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Messages > out[j].Messages })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
