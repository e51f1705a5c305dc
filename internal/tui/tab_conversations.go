package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/gptrecap/internal/cli"
	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/tui/components"
	"github.com/theirongolddev/gptrecap/internal/tui/theme"
)

// convState holds the conversations tab state. all is sorted by
// message count, busiest first; visible is all narrowed by the search.
type convState struct {
	all     []model.ConversationSummary
	visible []model.ConversationSummary

	cursor int
	offset int

	searching   bool
	searchInput textinput.Model
	query       string
}

func (s *convState) reset(res *model.AnalysisResult) {
	s.all = make([]model.ConversationSummary, len(res.ConversationSummary))
	copy(s.all, res.ConversationSummary)
	sort.SliceStable(s.all, func(i, j int) bool {
		if s.all[i].Messages != s.all[j].Messages {
			return s.all[i].Messages > s.all[j].Messages
		}
		return s.all[i].ConversationIndex < s.all[j].ConversationIndex
	})
	s.applyQuery(s.query)
}

// applyQuery filters titles case-insensitively and resets the cursor.
func (s *convState) applyQuery(q string) {
	s.query = strings.TrimSpace(q)
	s.cursor, s.offset = 0, 0
	if s.query == "" {
		s.visible = s.all
		return
	}
	needle := strings.ToLower(s.query)
	s.visible = nil
	for _, c := range s.all {
		if strings.Contains(strings.ToLower(c.ConversationTitle), needle) {
			s.visible = append(s.visible, c)
		}
	}
}

func (s *convState) move(delta int) {
	s.cursor = max(0, min(len(s.visible)-1, s.cursor+delta))
}

func (s *convState) selected() (model.ConversationSummary, bool) {
	if s.cursor < 0 || s.cursor >= len(s.visible) {
		return model.ConversationSummary{}, false
	}
	return s.visible[s.cursor], true
}

// handleKey applies list navigation. It reports whether key was consumed.
func (s *convState) handleKey(key string, page int) (bool, tea.Cmd) {
	switch key {
	case "/":
		s.searching = true
		s.searchInput = newSearchInput(s.query)
		s.searchInput.Focus()
		return true, s.searchInput.Cursor.BlinkCmd()
	case "esc":
		if s.query != "" {
			s.applyQuery("")
		}
		return true, nil
	case "j", "down":
		s.move(1)
	case "k", "up":
		s.move(-1)
	case "g", "home":
		s.cursor = 0
	case "G", "end":
		s.move(len(s.visible))
	case "ctrl+d", "pgdown":
		s.move(page)
	case "ctrl+u", "pgup":
		s.move(-page)
	default:
		return false, nil
	}
	return true, nil
}

func newSearchInput(value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "title contains…"
	ti.Prompt = "/ "
	ti.CharLimit = 120
	ti.Width = 40
	ti.SetValue(value)
	return ti
}

// updateConversationSearch handles keys while the search box is open.
func (a App) updateConversationSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.convs.applyQuery(a.convs.searchInput.Value())
		a.convs.searching = false
		return a, nil
	case "esc":
		a.convs.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.convs.searchInput, cmd = a.convs.searchInput.Update(msg)
	return a, cmd
}

func (a App) renderConversationsTab(cw, h int) string {
	t := theme.Active
	s := a.convs

	if len(s.visible) == 0 {
		msg := "No conversations"
		if s.query != "" {
			msg = fmt.Sprintf("No titles match %q  [Esc] clear", s.query)
		}
		body := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(msg)
		if s.searching {
			body = s.searchInput.View() + "\n" + body
		}
		return components.ContentCard("Conversations", body, cw)
	}

	if a.isCompactLayout() {
		return a.renderConversationList(cw, h)
	}

	leftW := max(40, cw*2/5)
	return components.CardRow([]string{
		a.renderConversationList(leftW, h),
		a.renderConversationDetail(cw - leftW),
	})
}

func (a App) renderConversationList(w, h int) string {
	t := theme.Active
	s := a.convs
	inner := components.CardInnerWidth(w)

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	visible := max(5, h-6) // border, title, search or hint lines
	offset := s.offset
	if s.cursor < offset {
		offset = s.cursor
	}
	if s.cursor >= offset+visible {
		offset = s.cursor - visible + 1
	}
	end := min(len(s.visible), offset+visible)

	countW := len(cli.FormatNumber(int64(s.visible[0].Messages)))
	titleW := max(8, inner-countW-4)

	var body strings.Builder
	for i := offset; i < end; i++ {
		c := s.visible[i]
		title := fmt.Sprintf("%-*s", titleW, truncStr(displayTitle(c.ConversationTitle), titleW))
		count := fmt.Sprintf("%*s", countW, cli.FormatNumber(int64(c.Messages)))
		if i == s.cursor {
			line := selStyle.Render("▸ " + title + "  " + count)
			body.WriteString(lipgloss.PlaceHorizontal(inner, lipgloss.Left, line,
				lipgloss.WithWhitespaceBackground(t.SurfaceHover)))
		} else {
			body.WriteString(rowStyle.Render("  "+title+"  ") + countStyle.Render(count))
		}
		body.WriteString("\n")
	}

	body.WriteString("\n")
	switch {
	case s.searching:
		body.WriteString(s.searchInput.View())
	case s.query != "":
		body.WriteString(hintStyle.Render(fmt.Sprintf("%q · %d of %d  [Esc] clear", s.query, len(s.visible), len(s.all))))
	default:
		body.WriteString(hintStyle.Render(fmt.Sprintf("%d of %d  [/] search  [j/k] move", s.cursor+1, len(s.visible))))
	}

	return components.ContentCard("Conversations by messages", body.String(), w)
}

func (a App) renderConversationDetail(w int) string {
	t := theme.Active
	c, ok := a.convs.selected()
	if !ok {
		return components.ContentCard("Detail", "", w)
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	inner := components.CardInnerWidth(w)

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-16s", label)) + valueStyle.Render(value) + "\n"
	}
	flag := func(on bool) string {
		if on {
			return "yes"
		}
		return "no"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(truncStr(displayTitle(c.ConversationTitle), inner)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(truncStr(c.ConversationID, inner)))
	b.WriteString("\n\n")
	b.WriteString(row("Started", cli.FormatDateTime(c.FirstTime)))
	b.WriteString(row("Last message", cli.FormatDateTime(c.LastTime)))
	b.WriteString(row("Duration", cli.FormatMinutes(c.DurationMinutes)))
	b.WriteString(row("Depth", strings.ReplaceAll(c.Category, "_", " ")))
	b.WriteString("\n")

	barW := max(10, inner-16-10)
	roles := []struct {
		role  string
		count int
	}{
		{model.RoleUser, c.UserMessages},
		{model.RoleAssistant, c.AssistantMessages},
		{model.RoleTool, c.ToolMessages},
		{model.RoleSystem, c.SystemMessages},
	}
	for _, r := range roles {
		pct := 0.0
		if c.Messages > 0 {
			pct = float64(r.count) / float64(c.Messages)
		}
		b.WriteString(components.ShareBar(r.role, pct, cli.FormatNumber(int64(r.count)), t.Role(r.role), 15, barW))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(row("Words (you)", cli.FormatNumber(int64(c.WordsUser))))
	b.WriteString(row("Words (reply)", cli.FormatNumber(int64(c.WordsAssistant))))
	b.WriteString(row("Code", flag(c.HasCode)))
	b.WriteString(row("Attachments", flag(c.HasMultimodal)))
	b.WriteString(strings.TrimSuffix(row("Tools", flag(c.HasTool)), "\n"))

	return components.ContentCard("Detail", b.String(), w)
}

func displayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Untitled"
	}
	return title
}
