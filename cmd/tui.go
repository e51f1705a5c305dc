package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/gptrecap/internal/tui"
	"github.com/theirongolddev/gptrecap/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui <conversations.json>",
	Short: "Launch the interactive dashboard",
	Args:  cobra.ExactArgs(1),
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, args []string) error {
	theme.SetActive(appCfg.Appearance.Theme)

	// Console logs would tear the alt screen.
	zerolog.SetGlobalLevel(zerolog.Disabled)

	// Force TrueColor so background styling always produces ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(args[0], appCfg)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "TUI error")
	}
	return nil
}
