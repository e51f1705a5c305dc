package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/theirongolddev/gptrecap/internal/cli"
	"github.com/theirongolddev/gptrecap/internal/config"
	"github.com/theirongolddev/gptrecap/internal/tui/components"
	"github.com/theirongolddev/gptrecap/internal/tui/theme"
)

const (
	settingsFieldOutputDir = iota
	settingsFieldTheme
	settingsFieldTopConversations
	settingsFieldSQLite
	settingsFieldCharts
	settingsFieldLogLevel
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	cfg := a.cfg
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldOutputDir:
		ti.Placeholder = "outputs"
		ti.SetValue(cfg.General.OutputDir)
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(cfg.Appearance.Theme)
	case settingsFieldTopConversations:
		ti.Placeholder = "5"
		ti.SetValue(strconv.Itoa(cfg.Story.TopConversations))
	case settingsFieldSQLite:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(cfg.General.SQLiteExport))
	case settingsFieldCharts:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(cfg.Outputs.Charts))
	case settingsFieldLogLevel:
		ti.Placeholder = "debug, info, warn, error"
		ti.SetValue(cfg.General.LogLevel)
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave validates the edited value, applies it and writes the
// config file. Invalid values leave the config untouched.
func (a *App) settingsSave() {
	cfg, err := applySetting(a.cfg, a.settings.cursor, a.settings.input.Value())
	if err != nil {
		a.settings.saveErr = err
		return
	}
	a.cfg = cfg
	theme.SetActive(cfg.Appearance.Theme)
	a.settings.saveErr = config.Save(cfg)
}

func applySetting(cfg config.Config, field int, raw string) (config.Config, error) {
	val := strings.TrimSpace(raw)
	switch field {
	case settingsFieldOutputDir:
		if val == "" {
			return cfg, errors.New("output directory cannot be empty")
		}
		cfg.General.OutputDir = val
	case settingsFieldTheme:
		if !theme.Valid(val) {
			return cfg, errors.Errorf("unknown theme %q", val)
		}
		cfg.Appearance.Theme = val
	case settingsFieldTopConversations:
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			return cfg, errors.Errorf("top conversations must be a positive number, got %q", val)
		}
		cfg.Story.TopConversations = n
	case settingsFieldSQLite, settingsFieldCharts:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return cfg, errors.Errorf("expected true or false, got %q", val)
		}
		if field == settingsFieldSQLite {
			cfg.General.SQLiteExport = b
		} else {
			cfg.Outputs.Charts = b
		}
	case settingsFieldLogLevel:
		switch val {
		case "debug", "info", "warn", "error":
			cfg.General.LogLevel = val
		default:
			return cfg, errors.Errorf("unknown log level %q", val)
		}
	}
	return cfg, nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceHover).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	fields := [settingsFieldCount][2]string{
		{"Output directory", cfg.General.OutputDir},
		{"Theme", cfg.Appearance.Theme},
		{"Top conversations", strconv.Itoa(cfg.Story.TopConversations)},
		{"SQLite export", strconv.FormatBool(cfg.General.SQLiteExport)},
		{"Charts", strconv.FormatBool(cfg.Outputs.Charts)},
		{"Log level", cfg.General.LogLevel},
	}

	innerW := components.CardInnerWidth(cw)
	var form strings.Builder
	for i, f := range fields {
		switch {
		case a.settings.editing && i == a.settings.cursor:
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-19s ", f[0])))
			form.WriteString(a.settings.input.View())
		case i == a.settings.cursor:
			line := markerStyle.Render("▸ ") +
				selectedLabelStyle.Render(fmt.Sprintf("%-19s ", f[0]+":")) +
				selectedStyle.Render(f[1])
			form.WriteString(lipgloss.PlaceHorizontal(innerW, lipgloss.Left, line,
				lipgloss.WithWhitespaceBackground(t.SurfaceHover)))
		default:
			form.WriteString(labelStyle.Render("  " + fmt.Sprintf("%-19s ", f[0]+":")))
			form.WriteString(valueStyle.Render(f[1]))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		form.WriteString("\n")
		form.WriteString(warnStyle.Render("Not saved: " + a.settings.saveErr.Error()))
		form.WriteString("\n")
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(greenStyle.Render("Saved to " + config.Path()))
		form.WriteString("\n")
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	info := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-18s", label)) + valueStyle.Render(value)
	}
	lines := []string{
		info("Export", a.input),
		info("Writes to", config.OutputDir(cfg)),
		info("Config file", config.Path()),
	}
	if a.load != nil {
		lines = append(lines,
			info("Export size", cli.FormatCount(a.load.SizeBytes)+"B"),
			info("Conversations", cli.FormatNumber(int64(a.load.Conversations))),
			info("Skipped entries", cli.FormatNumber(int64(a.load.SkippedEntries))),
		)
	}
	lines = append(lines, info("Load time", fmt.Sprintf("%.2fs", a.loadTime.Seconds())))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", form.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Export", strings.Join(lines, "\n"), cw))
	return b.String()
}
