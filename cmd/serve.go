package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/gptrecap/internal/daemon"
)

var (
	flagServeAddr         string
	flagServeDebounce     time.Duration
	flagServeEventsBuffer int
	flagServeLogFile      string
)

var serveCmd = &cobra.Command{
	Use:   "serve <conversations.json>",
	Short: "Serve the recap over HTTP and regenerate when the export changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().DurationVar(&flagServeDebounce, "debounce", 0, "Wait this long after a write before regenerating")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 0, "Max in-memory events retained")
	serveCmd.Flags().StringVar(&flagServeLogFile, "log-file", "", "Also log to this rotated file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, args []string) error {
	sc := appCfg.Server
	if flagServeAddr != "" {
		sc.Addr = flagServeAddr
	}
	if flagServeLogFile != "" {
		sc.LogFile = flagServeLogFile
	}
	debounce := time.Duration(sc.DebounceMS) * time.Millisecond
	if flagServeDebounce > 0 {
		debounce = flagServeDebounce
	}
	buffer := sc.EventsBuffer
	if flagServeEventsBuffer > 0 {
		buffer = flagServeEventsBuffer
	}

	if sc.LogFile != "" {
		lf := daemon.NewLogFile(sc.LogFile)
		defer func() { _ = lf.Close() }()
		console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
		log.Logger = zerolog.New(io.MultiWriter(console, lf)).With().Timestamp().Logger()
	}

	opts := recapOptions(args[0])
	opts.Progress = nil
	svc := daemon.New(daemon.Config{
		Recap:        opts,
		Addr:         sc.Addr,
		Debounce:     debounce,
		EventsBuffer: buffer,
	})

	fmt.Printf("  gptrecap serving http://%s\n", sc.Addr)
	fmt.Printf("  Watching %s, writing to %s\n", args[0], opts.OutputDir)
	fmt.Println("  Stop with Ctrl+C")

	ctx, cancel := signalContext()
	defer cancel()

	return svc.Run(ctx)
}
