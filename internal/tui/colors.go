// Package tui renders assistant output for a terminal: markdown replies via
// glamour, suggestion cards via lipgloss, and tagged status lines. When the
// output is not a terminal everything degrades to plain text.
package tui

import "github.com/charmbracelet/lipgloss"

// ANSI codes for tagged status lines.
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

var (
	accent      = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#9AA5B1")
	destructive = lipgloss.Color("#E53935")

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1).
			Width(cardWidth)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	badgeStyle  = lipgloss.NewStyle().Foreground(accent)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
	errorStyle  = lipgloss.NewStyle().Foreground(destructive).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

const (
	cardWidth = 72
	wordWrap  = 80
)
