package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/derive"
)

// Color palette
var (
	colorPrimary   = lipgloss.Color("#6366F1")
	colorAccent    = lipgloss.Color("#F43F5E")
	colorMuted     = lipgloss.Color("#64748B")
	colorSuccess   = lipgloss.Color("#10B981")
	colorWarning   = lipgloss.Color("#F59E0B")
	colorError     = lipgloss.Color("#EF4444")
	colorFg        = lipgloss.Color("#E2E8F0")
	colorSubtle    = lipgloss.Color("#334155")
	colorHighlight = lipgloss.Color("#38BDF8")
)

// Styles
var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(0, 1)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Align(lipgloss.Center)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	accentStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	toastStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Padding(0, 1)

	toastErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg).
			Background(colorError).
			Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)
)

// dot renders a colored bullet, falling back to the muted color.
func dot(color string) string {
	if color == "" {
		return mutedStyle.Render("●")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}

func bandStyle(b derive.Band) lipgloss.Style {
	switch b {
	case derive.BandOverdue:
		return errorStyle.Bold(true)
	case derive.BandDueToday:
		return accentStyle.Bold(true)
	case derive.BandDueSoon:
		return warningStyle
	}
	return mutedStyle
}

// progressBar draws a fixed-width bar for a 0..100 percentage.
func progressBar(pct, width int) string {
	if width < 1 {
		return ""
	}
	pct = min(max(pct, 0), 100)
	filled := pct * width / 100
	style := highlightStyle
	if pct >= 100 {
		style = successStyle
	}
	return style.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}
