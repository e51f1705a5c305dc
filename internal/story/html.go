package story

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"

	"github.com/theirongolddev/gptrecap/internal/model"
)

// FileName is the story page written next to the charts.
const FileName = "gpt_recap.html"

const defaultTitle = "GPT Recap"

//go:embed templates/*.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(
	template.New("recap.html.tmpl").Funcs(sprig.HtmlFuncMap()).ParseFS(templateFS, "templates/recap.html.tmpl"),
)

// page is the data handed to both story templates.
type page struct {
	Title     string
	Context   Context
	Charts    map[string]string
	Generated time.Time
}

func newPage(ctx Context, charts map[string]string) page {
	rel := make(map[string]string, len(charts))
	for name, path := range charts {
		rel[name] = filepath.Base(path)
	}
	return page{Title: defaultTitle, Context: ctx, Charts: rel, Generated: time.Now()}
}

// RenderHTML writes the slide deck. charts maps chart file names to paths;
// the page links them by base name, so they must sit next to the page.
func RenderHTML(w io.Writer, ctx Context, charts map[string]string) error {
	if err := htmlTemplate.Execute(w, newPage(ctx, charts)); err != nil {
		return errors.Wrap(err, "rendering story")
	}
	return nil
}

// Render builds the context of res and writes the story page into dir.
func Render(res *model.AnalysisResult, charts map[string]string, dir string) (string, error) {
	return RenderContext(BuildContext(res), charts, dir)
}

// RenderContext writes the story page for an already built context.
func RenderContext(ctx Context, charts map[string]string, dir string) (string, error) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, ctx, charts); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.Wrapf(err, "creating %s", dir)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	return path, nil
}
