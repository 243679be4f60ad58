package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#6B7280")
	destructive = lipgloss.Color("#E53935")
	warning     = lipgloss.Color("#FFC107")
)

// Styles groups the lipgloss styles of the screen.
type Styles struct {
	Title   lipgloss.Style
	Search  lipgloss.Style
	Spinner lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Confirm lipgloss.Style
	Status  lipgloss.Style
	Help    lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginBottom(1),
		Search: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		Spinner: lipgloss.NewStyle().Foreground(accent),
		Muted:   lipgloss.NewStyle().Foreground(muted),
		Error:   lipgloss.NewStyle().Foreground(destructive).Bold(true),
		Confirm: lipgloss.NewStyle().Foreground(warning).Bold(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1),
		Help: lipgloss.NewStyle().Foreground(muted).MarginTop(1),
	}
}
