// Package cmd implements the gptrecap CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/gptrecap/internal/cli"
	"github.com/theirongolddev/gptrecap/internal/config"
	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/pipeline"
	"github.com/theirongolddev/gptrecap/internal/recap"
	"github.com/theirongolddev/gptrecap/internal/story"
)

var (
	flagOutput   string
	flagLogLevel string
	flagQuiet    bool
	flagVerbose  bool

	flagNoSQLite bool
	flagNoCharts bool
	flagNoStory  bool
	flagNoCSV    bool
)

// appCfg is the loaded config with flag overrides applied.
var appCfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "gptrecap <conversations.json>",
	Short: "Recap a ChatGPT data export",
	Long: "Flatten a ChatGPT conversations.json export and write CSV tables, " +
		"metrics, SVG charts, an HTML story and a SQLite history.",
	Args:              cobra.ExactArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prepare,
	RunE:              runRecap,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output directory (default from config, \"outputs\")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")

	rootCmd.Flags().BoolVar(&flagNoSQLite, "no-sqlite", false, "Skip the recap.db export")
	rootCmd.Flags().BoolVar(&flagNoCharts, "no-charts", false, "Skip SVG charts")
	rootCmd.Flags().BoolVar(&flagNoStory, "no-story", false, "Skip the HTML story")
	rootCmd.Flags().BoolVar(&flagNoCSV, "no-csv", false, "Skip CSV tables")
}

// prepare loads the config, applies flag overrides and sets up logging.
func prepare(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputOverride = flagOutput
	}
	if flagLogLevel != "" {
		cfg.General.LogLevel = flagLogLevel
	}
	if flagVerbose {
		cfg.General.LogLevel = "debug"
	}
	if f := cmd.Flags().Lookup("no-sqlite"); f != nil && f.Changed {
		cfg.General.SQLiteExport = !flagNoSQLite
	}
	if flagNoCharts {
		cfg.Outputs.Charts = false
	}
	if flagNoStory {
		cfg.Outputs.Story = false
	}
	if flagNoCSV {
		cfg.Outputs.CSV = false
	}

	appCfg = cfg
	return setupLogging(cfg.General.LogLevel, flagQuiet)
}

// setupLogging points the global zerolog logger at a console writer on
// stderr. quiet raises the level to error.
func setupLogging(level string, quiet bool) error {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = "warn"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.Errorf("unknown log level %q", level)
	}
	if quiet && lvl < zerolog.ErrorLevel {
		lvl = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	return nil
}

// runError ties a failure to the export it was reading.
type runError struct {
	input string
	err   error
}

func (e *runError) Error() string { return e.err.Error() }
func (e *runError) Unwrap() error { return e.err }

func wrapInput(input string, err error) error {
	if err == nil {
		return nil
	}
	return &runError{input: input, err: err}
}

// formatError renders a failure for stderr. Known failure classes read
// "gptrecap: <kind>: <input>: <detail>".
func formatError(err error) string {
	kind := model.ErrorKind(err)
	if kind == "" {
		return "gptrecap: unexpected error: " + err.Error()
	}

	input := ""
	var re *runError
	if errors.As(err, &re) {
		input = re.input
	}

	detail := err.Error()
	for _, sentinel := range []error{model.ErrMalformedInput, model.ErrEmptyDataset} {
		detail = strings.TrimSuffix(detail, ": "+sentinel.Error())
	}
	return fmt.Sprintf("gptrecap: %s: %s: %s", kind, input, detail)
}

// progressFunc prints flattening progress to stderr unless --quiet.
func progressFunc() pipeline.ProgressFunc {
	if flagQuiet {
		return nil
	}
	return func(current, total int) {
		if current%100 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Flattening %s", cli.RenderProgressBar(current, total, 30))
		}
	}
}

// loadData is the shared loading path of the report subcommands.
func loadData(input string) (*pipeline.LoadResult, *model.AnalysisResult, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Reading %s...\n", filepath.Base(input))
	}
	lr, res, err := pipeline.LoadAndSummarise(input, progressFunc())
	if err != nil {
		return nil, nil, wrapInput(input, err)
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "\r  Flattened %s messages from %s conversations    \n",
			cli.FormatNumber(int64(len(lr.Messages))), cli.FormatNumber(int64(lr.Conversations)))
	}
	warnSkipped(lr)
	return lr, res, nil
}

func warnSkipped(lr *pipeline.LoadResult) {
	if lr.SkippedEntries > 0 {
		log.Warn().Int("skipped", lr.SkippedEntries).Str("input", lr.Path).Msg("export entries were not conversations")
	}
}

func recapOptions(input string) recap.Options {
	opts := recap.OptionsFromConfig(appCfg, input)
	opts.Progress = progressFunc()
	return opts
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runRecap(_ *cobra.Command, args []string) error {
	input := args[0]
	opts := recapOptions(input)

	ctx, cancel := signalContext()
	defer cancel()

	out, err := recap.Generate(ctx, opts)
	if !flagQuiet && opts.Progress != nil {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return wrapInput(input, err)
	}
	warnSkipped(out.Load)
	log.Info().
		Int("csv", len(out.CSVFiles)).
		Int("charts", len(out.Charts)).
		Dur("elapsed", out.Elapsed).
		Msg("recap written")

	fmt.Printf("Wrote analysis to %s\n", opts.OutputDir)
	if opts.Story {
		fmt.Printf("Story recap available at %s\n", filepath.Join(opts.OutputDir, story.FileName))
	}
	return nil
}
