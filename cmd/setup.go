package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/gptrecap/internal/config"
	"github.com/theirongolddev/gptrecap/internal/source"
	"github.com/theirongolddev/gptrecap/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup [conversations.json]",
	Short: "First-time setup wizard",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, args []string) error {
	cfg := appCfg

	// The export is optional; it only feeds the welcome note.
	input, conversations := "", -1
	if len(args) == 1 {
		input = args[0]
		if pr, err := source.ParseFile(input); err == nil {
			conversations = len(pr.Conversations)
		}
	}

	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(conversations, input, &vals).Run(); err != nil {
		return errors.Wrap(err, "setup")
	}

	cfg = vals.Apply(cfg)
	if err := config.Save(cfg); err != nil {
		return errors.Wrap(err, "saving config")
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `gptrecap setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
