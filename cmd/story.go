package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/gptrecap/internal/story"
)

var (
	flagStoryWidth int
	flagStoryStyle string
)

var storyCmd = &cobra.Command{
	Use:   "story <conversations.json>",
	Short: "Print the recap story in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runStory,
}

func init() {
	storyCmd.Flags().IntVarP(&flagStoryWidth, "width", "w", 80, "Wrap width")
	storyCmd.Flags().StringVar(&flagStoryStyle, "style", "auto", "Glamour style: auto, dark, light, notty")
	rootCmd.AddCommand(storyCmd)
}

func runStory(_ *cobra.Command, args []string) error {
	_, res, err := loadData(args[0])
	if err != nil {
		return err
	}

	sctx := story.BuildContext(res)
	if n := appCfg.Story.TopConversations; n > 0 {
		sctx.TopConversations = story.TopConversations(res, n)
	}

	out, err := story.RenderTerminal(sctx, flagStoryWidth, flagStoryStyle)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
