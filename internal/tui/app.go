// Package tui provides the interactive Bubble Tea dashboard for a recap.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/gptrecap/internal/cli"
	"github.com/theirongolddev/gptrecap/internal/config"
	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/pipeline"
	"github.com/theirongolddev/gptrecap/internal/recap"
	"github.com/theirongolddev/gptrecap/internal/tui/components"
	"github.com/theirongolddev/gptrecap/internal/tui/theme"
)

// DataLoadedMsg is sent when the pipeline finishes, successfully or not.
type DataLoadedMsg struct {
	Load     *pipeline.LoadResult
	Result   *model.AnalysisResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports flattening progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RecapWrittenMsg is sent when the artefacts have been written.
type RecapWrittenMsg struct {
	Outcome *recap.Outcome
	Err     error
}

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabActivity
	tabReplies
	tabConversations
	tabSettings
)

// App is the root Bubble Tea model.
type App struct {
	input string
	cfg   config.Config

	// Data
	load     *pipeline.LoadResult
	result   *model.AnalysisResult
	loadErr  error
	loaded   bool
	loadTime time.Duration

	reloading bool
	writing   bool
	written   *recap.Outcome
	writeErr  error

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	convs    convState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues // shared with the form across model copies
	needSetup bool

	// Loading: progress and completion arrive through loadSub.
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	scrollOverhead   = 10 // header + status bar + card chrome
	minContentHeight = 5
)

// NewApp creates the dashboard for the export at input.
func NewApp(input string, cfg config.Config) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		input:     input,
		cfg:       cfg,
		needSetup: !config.Exists(),
		spinner:   sp,
		loadSub:   make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.input, a.loadSub),
		a.spinner.Tick,
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.reloading = false
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			a.loadErr = msg.Err
			return a, nil
		}
		a.loadErr = nil
		a.load = msg.Load
		a.result = msg.Result
		a.convs.reset(a.result)

		if a.needSetup {
			vals := SetupValuesFrom(a.cfg)
			a.setupVals = &vals
			a.setupForm = NewSetupForm(a.load.Conversations, a.input, a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case RecapWrittenMsg:
		a.writing = false
		a.written = msg.Outcome
		a.writeErr = msg.Err
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.reloading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Cursor blinks and the like.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.ready() || a.showHelp || a.setupForm != nil {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabConversations && !a.convs.searching {
			a.convs.move(-1)
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabConversations && !a.convs.searching {
			a.convs.move(1)
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}
	if a.loadErr != nil {
		switch key {
		case "q", "esc":
			return a, tea.Quit
		case "R":
			return a.reload()
		}
		return a, nil
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == tabConversations && a.convs.searching {
		return a.updateConversationSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeTab {
	case tabConversations:
		if handled, cmd := a.convs.handleKey(key, a.pageSize()); handled {
			return a, cmd
		}
	case tabSettings:
		switch key {
		case "j", "down":
			if a.settings.cursor < settingsFieldCount-1 {
				a.settings.cursor++
			}
			return a, nil
		case "k", "up":
			if a.settings.cursor > 0 {
				a.settings.cursor--
			}
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "R":
		return a.reload()
	case "w":
		if !a.writing {
			a.writing = true
			a.writeErr = nil
			return a, writeRecapCmd(recap.OptionsFromConfig(a.cfg, a.input))
		}
		return a, nil
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) reload() (tea.Model, tea.Cmd) {
	if a.reloading {
		return a, nil
	}
	a.reloading = true
	return a, tea.Batch(reloadDataCmd(a.input), a.spinner.Tick)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.cfg = a.setupVals.Apply(a.cfg)
		a.settings.saveErr = config.Save(a.cfg)
		theme.SetActive(a.cfg.Appearance.Theme)
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

// ready reports whether a recap is on screen.
func (a App) ready() bool {
	return a.loaded && a.loadErr == nil && a.result != nil
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func (a App) pageSize() int {
	return max(1, (a.height-scrollOverhead)/2)
}

// View implements tea.Model.
func (a App) View() string {
	switch {
	case a.width == 0:
		return ""
	case a.width < minTerminalWidth:
		return a.viewTooNarrow()
	case !a.loaded:
		return a.viewLoading()
	case a.loadErr != nil:
		return a.viewError()
	case a.setupForm != nil:
		return a.setupForm.View()
	case a.showHelp:
		return a.viewHelp()
	default:
		return a.viewMain()
	}
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  gptrecap needs at least %d columns.\n",
		a.width, minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

// overlay centres a bordered card on the app background.
func (a App) overlay(body string, border lipgloss.Color, padV, padH int) string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Background(t.Surface).
		Padding(padV, padH).
		Render(body)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoading() string {
	t := theme.Active

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ gptrecap"))
	b.WriteString(subtitleStyle.Render(" · " + filepath.Base(a.input)))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := max(20, min(40, a.width-30))
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Flattening conversations\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Reading export..."))
	}

	return a.overlay(b.String(), t.BorderAccent, 2, 4)
}

func (a App) viewError() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	kind := model.ErrorKind(a.loadErr)
	if kind == "" {
		kind = "Error"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("✗ " + kind))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render(truncStr(a.loadErr.Error(), a.width-12)))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("[R] retry  [q] quit"))

	return a.overlay(b.String(), t.Red, 1, 3)
}

func (a App) viewHelp() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o a r c x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move in lists"},
			{"g G", "First / Last conversation"},
			{"^d ^u", "Half-page scroll"},
		}},
		{"Actions", [][2]string{
			{"/", "Search conversation titles"},
			{"Enter", "Edit setting / Apply search"},
			{"Esc", "Clear search / Cancel"},
			{"w", "Write recap files"},
			{"R", "Reload export"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return a.overlay(b.String(), t.BorderAccent, 1, 3)
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderInfoLine(w)

	loadTime := fmt.Sprintf("%.1fs", a.loadTime.Seconds())
	statusBar := components.RenderStatusBar(w, filepath.Base(a.input), loadTime, a.reloading)

	contentH := max(minContentHeight, h-lipgloss.Height(header)-lipgloss.Height(statusBar))

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabActivity:
		content = a.renderActivityTab(cw)
	case tabReplies:
		content = a.renderRepliesTab(cw)
	case tabConversations:
		content = a.renderConversationsTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderInfoLine shows the export span and the state of the last write.
func (a App) renderInfoLine(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	dr := a.result.Metrics.DateRange
	line := dim.Render(" ") + accent.Render(cli.FormatDate(dr.FirstConversation)) +
		dim.Render(" → ") + accent.Render(cli.FormatDate(dr.LastConversation))
	if a.load != nil && a.load.SkippedEntries > 0 {
		line += dim.Render(" │ ") + warn.Render(fmt.Sprintf("%d skipped", a.load.SkippedEntries))
	}

	switch {
	case a.writing:
		line += dim.Render(" │ writing recap…")
	case a.writeErr != nil:
		line += dim.Render(" │ ") + warn.Render("write failed: "+a.writeErr.Error())
	case a.written != nil && a.written.Story != "":
		line += dim.Render(" │ wrote ") + accent.Render(a.written.Story)
	case a.written != nil:
		files := len(a.written.CSVFiles) + len(a.written.Charts)
		line += dim.Render(fmt.Sprintf(" │ wrote %d files", files))
	}

	return lipgloss.NewStyle().Background(t.Surface).Width(w).MaxWidth(w).Render(line)
}

// ─── Commands ───────────────────────────────────────────────────

// loadDataCmd runs the pipeline in a goroutine. It streams ProgressMsg
// updates and a final DataLoadedMsg through sub.
func loadDataCmd(input string, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking so workers never stall; the next update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			lr, res, err := pipeline.LoadAndSummarise(input, progressFn)
			sub <- DataLoadedMsg{Load: lr, Result: res, Err: err, LoadTime: time.Since(start)}
		}()

		return <-sub
	}
}

// waitForLoadMsg blocks until the loader goroutine sends again.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// reloadDataCmd reruns the pipeline without progress reporting.
func reloadDataCmd(input string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		lr, res, err := pipeline.LoadAndSummarise(input, nil)
		return DataLoadedMsg{Load: lr, Result: res, Err: err, LoadTime: time.Since(start)}
	}
}

func writeRecapCmd(opts recap.Options) tea.Cmd {
	return func() tea.Msg {
		out, err := recap.Generate(context.Background(), opts)
		return RecapWrittenMsg{Outcome: out, Err: err}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with the background
// colour so gaps between cards are not left unstyled.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at column x of the tab bar, or -1.
// Hitboxes follow the widths RenderTabBar draws.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}
