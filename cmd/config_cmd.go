package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/gptrecap/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Output directory: %s\n", config.OutputDir(cfg))
	fmt.Printf("    Log level:        %s\n", cfg.General.LogLevel)
	fmt.Printf("    SQLite export:    %v\n", cfg.General.SQLiteExport)
	fmt.Println()

	fmt.Println("  [Outputs]")
	fmt.Printf("    CSV: %v  Charts: %v  Story: %v  Metrics: %v\n",
		cfg.Outputs.CSV, cfg.Outputs.Charts, cfg.Outputs.Story, cfg.Outputs.Metrics)
	fmt.Println()

	fmt.Println("  [Story]")
	fmt.Printf("    Top conversations: %d\n", cfg.Story.TopConversations)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:  %s\n", cfg.Server.Addr)
	fmt.Printf("    Debounce: %dms\n", cfg.Server.DebounceMS)
	if cfg.Server.LogFile != "" {
		fmt.Printf("    Log file: %s\n", cfg.Server.LogFile)
	}
	fmt.Println()

	fmt.Println("  Run `gptrecap setup` to reconfigure.")
	return nil
}
