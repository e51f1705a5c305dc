package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"

	"github.com/theirongolddev/gptrecap/internal/cli"
	"github.com/theirongolddev/gptrecap/internal/config"
	"github.com/theirongolddev/gptrecap/internal/tui/theme"
)

// SetupValues holds the answers of the first-run form.
type SetupValues struct {
	OutputDir string
	Theme     string
	SQLite    bool
	Story     bool
}

// SetupValuesFrom seeds the form with the current config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		OutputDir: cfg.General.OutputDir,
		Theme:     cfg.Appearance.Theme,
		SQLite:    cfg.General.SQLiteExport,
		Story:     cfg.Outputs.Story,
	}
}

// Apply copies the answers onto cfg.
func (v SetupValues) Apply(cfg config.Config) config.Config {
	cfg.General.OutputDir = strings.TrimSpace(v.OutputDir)
	cfg.Appearance.Theme = v.Theme
	cfg.General.SQLiteExport = v.SQLite
	cfg.Outputs.Story = v.Story
	return cfg
}

// NewSetupForm builds the first-run form. conversations and input only
// feed the welcome note; conversations < 0 leaves the count out.
func NewSetupForm(conversations int, input string, vals *SetupValues) *huh.Form {
	welcome := "Let's pick where recaps go and how they look."
	if conversations >= 0 && input != "" {
		welcome = fmt.Sprintf("Found %s conversations in %s.\n%s",
			cli.FormatNumber(int64(conversations)), filepath.Base(input), welcome)
	}

	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themes = append(themes, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to gptrecap").
				Description(welcome),
			huh.NewInput().
				Title("Output directory").
				Description("CSVs, charts, the story and recap.db are written here.").
				Value(&vals.OutputDir).
				Validate(validateOutputDir),
			huh.NewSelect[string]().
				Title("Colour theme").
				Options(themes...).
				Value(&vals.Theme),
			huh.NewConfirm().
				Title("Write the story recap page?").
				Value(&vals.Story),
			huh.NewConfirm().
				Title("Keep a SQLite history of every run?").
				Value(&vals.SQLite),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

func validateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("output directory cannot be empty")
	}
	return nil
}
