package story

import (
	"bytes"
	"io"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
)

var markdownTemplate = template.Must(
	template.New("recap.md.tmpl").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/recap.md.tmpl"),
)

// RenderMarkdown writes the recap facts as markdown.
func RenderMarkdown(w io.Writer, ctx Context) error {
	if err := markdownTemplate.Execute(w, newPage(ctx, nil)); err != nil {
		return errors.Wrap(err, "rendering markdown story")
	}
	return nil
}

// RenderTerminal renders the markdown story for a terminal of the given
// width. style is a glamour style name; "auto" picks from the terminal
// background, "notty" disables styling.
func RenderTerminal(ctx Context, width int, style string) (string, error) {
	var md bytes.Buffer
	if err := RenderMarkdown(&md, ctx); err != nil {
		return "", err
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch style {
	case "", "auto":
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", errors.Wrap(err, "creating markdown renderer")
	}
	out, err := r.Render(md.String())
	if err != nil {
		return "", errors.Wrap(err, "rendering markdown")
	}
	return out, nil
}
