// Package report serialises recap tables to CSV and metrics to JSON.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/gptrecap/internal/model"
)

// MetricsFile is the name of the metrics document.
const MetricsFile = "metrics_summary.json"

// maxConcurrentWrites bounds open files while writing tables.
const maxConcurrentWrites = 4

// WriteCSV writes one table to path. An empty table gets a header only.
func WriteCSV(path string, t Table) (err error) {
	f, err := os.Create(path) //nolint:gosec // output path is built from the configured directory
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "closing %s", path)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// WriteCSVs writes every table of res into dir and returns the paths in
// table order.
func WriteCSVs(ctx context.Context, res *model.AnalysisResult, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}

	tables := Tables(res)
	paths := make([]string, len(tables))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentWrites)
	for i, t := range tables {
		paths[i] = filepath.Join(dir, t.FileName())
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return WriteCSV(paths[i], t)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// MarshalMetrics renders metrics as two-space indented JSON.
func MarshalMetrics(m model.Metrics) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding metrics")
	}
	return append(data, '\n'), nil
}

// WriteMetrics writes the metrics document into dir and returns its path.
func WriteMetrics(res *model.AnalysisResult, dir string) (string, error) {
	data, err := MarshalMetrics(res.Metrics)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.Wrapf(err, "creating %s", dir)
	}
	path := filepath.Join(dir, MetricsFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	return path, nil
}
