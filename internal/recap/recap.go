// Package recap runs the whole pipeline for one export: load, summarise,
// then write every enabled artefact into the output directory.
package recap

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/gptrecap/internal/charts"
	"github.com/theirongolddev/gptrecap/internal/config"
	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/pipeline"
	"github.com/theirongolddev/gptrecap/internal/report"
	"github.com/theirongolddev/gptrecap/internal/store"
	"github.com/theirongolddev/gptrecap/internal/story"
)

// Options selects the input, the output directory and which artefacts to
// write.
type Options struct {
	Input     string
	OutputDir string

	CSV     bool
	Charts  bool
	Story   bool
	Metrics bool
	SQLite  bool

	// TopConversations sizes the story leaderboard; 0 keeps the default.
	TopConversations int
	Progress         pipeline.ProgressFunc
}

// DefaultOptions enables every artefact.
func DefaultOptions(input, outputDir string) Options {
	return Options{
		Input:     input,
		OutputDir: outputDir,
		CSV:       true,
		Charts:    true,
		Story:     true,
		Metrics:   true,
		SQLite:    true,
	}
}

// OptionsFromConfig maps the saved preferences onto Options. The
// output directory honours GPTRECAP_OUTPUT_DIR.
func OptionsFromConfig(cfg config.Config, input string) Options {
	return Options{
		Input:            input,
		OutputDir:        config.OutputDir(cfg),
		CSV:              cfg.Outputs.CSV,
		Charts:           cfg.Outputs.Charts,
		Story:            cfg.Outputs.Story,
		Metrics:          cfg.Outputs.Metrics,
		SQLite:           cfg.General.SQLiteExport,
		TopConversations: cfg.Story.TopConversations,
	}
}

// Outcome lists what a run produced.
type Outcome struct {
	Load     *pipeline.LoadResult
	Result   *model.AnalysisResult
	CSVFiles []string
	Metrics  string
	Charts   map[string]string
	Story    string
	Run      *store.Run
	Elapsed  time.Duration
}

// Generate loads opts.Input and writes the enabled artefacts. CSVs, metrics,
// charts and the SQLite export run concurrently; the story waits for the
// charts it embeds.
func Generate(ctx context.Context, opts Options) (*Outcome, error) {
	start := time.Now()

	loaded, res, err := pipeline.LoadAndSummarise(opts.Input, opts.Progress)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("input", opts.Input).
		Int("conversations", loaded.Conversations).
		Int("messages", len(loaded.Messages)).
		Int("skipped", loaded.SkippedEntries).
		Msg("export summarised")

	if err := os.MkdirAll(opts.OutputDir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "creating %s", opts.OutputDir)
	}

	out := &Outcome{Load: loaded, Result: res}
	g, gctx := errgroup.WithContext(ctx)

	if opts.CSV {
		g.Go(func() error {
			files, err := report.WriteCSVs(gctx, res, opts.OutputDir)
			out.CSVFiles = files
			return err
		})
	}
	if opts.Metrics {
		g.Go(func() error {
			path, err := report.WriteMetrics(res, opts.OutputDir)
			out.Metrics = path
			return err
		})
	}
	if opts.Charts || opts.Story {
		g.Go(func() error {
			var chartFiles map[string]string
			if opts.Charts {
				files, err := charts.WriteAll(opts.OutputDir, res)
				if err != nil {
					return err
				}
				chartFiles = files
				out.Charts = files
			}
			if !opts.Story {
				return nil
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			path, err := writeStory(res, chartFiles, opts)
			out.Story = path
			return err
		})
	}
	if opts.SQLite {
		g.Go(func() error {
			run, err := exportRun(gctx, loaded, res, opts.OutputDir)
			out.Run = run
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Elapsed = time.Since(start)
	log.Debug().Dur("elapsed", out.Elapsed).Str("output", opts.OutputDir).Msg("recap written")
	return out, nil
}

func writeStory(res *model.AnalysisResult, chartFiles map[string]string, opts Options) (string, error) {
	sctx := story.BuildContext(res)
	if opts.TopConversations > 0 {
		sctx.TopConversations = story.TopConversations(res, opts.TopConversations)
	}
	return story.RenderContext(sctx, chartFiles, opts.OutputDir)
}

func exportRun(ctx context.Context, loaded *pipeline.LoadResult, res *model.AnalysisResult, dir string) (*store.Run, error) {
	s, err := store.OpenDir(dir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()

	run, err := s.Export(ctx, store.Run{
		InputPath:      loaded.Path,
		InputSize:      loaded.SizeBytes,
		InputModTime:   loaded.ModTime,
		SkippedEntries: loaded.SkippedEntries,
	}, res)
	if err != nil {
		return nil, errors.Wrap(err, "exporting run")
	}
	return &run, nil
}
