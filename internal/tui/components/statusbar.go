package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/gptrecap/internal/tui/theme"
)

// RenderStatusBar renders the bottom bar: key hints on the left, the
// input file and load time on the right.
func RenderStatusBar(width int, input, loadTime string, reloading bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	left := " [?]help  [R]eload  [q]uit"
	right := input
	if loadTime != "" {
		right += "  " + loadTime
	}
	if reloading {
		right = "reloading…  " + right
	}
	right += " "

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		// Drop the input path before the key hints.
		right = loadTime + " "
		padding = width - lipgloss.Width(left) - lipgloss.Width(right)
	}
	if padding < 0 {
		padding = 0
	}

	return style.Render(left) + style.Render(strings.Repeat(" ", padding)) + accent.Render(right)
}
