package main

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual styling for the yolla dashboard.
type Theme struct {
	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Muted   lipgloss.Color
}

// DefaultTheme returns the default theme for yolla dash.
func DefaultTheme() Theme {
	return Theme{
		Primary: lipgloss.Color("12"),  // Blue
		Success: lipgloss.Color("10"),  // Green
		Warning: lipgloss.Color("11"),  // Yellow
		Error:   lipgloss.Color("9"),   // Red
		Muted:   lipgloss.Color("240"), // Gray
	}
}

// Styles holds pre-built lipgloss styles derived from a Theme.
type Styles struct {
	Title     lipgloss.Style
	StatusBar lipgloss.Style
	Muted     lipgloss.Style
	EventLine lipgloss.Style
	StateDone lipgloss.Style
	StateFail lipgloss.Style
	StateRun  lipgloss.Style
	StateWait lipgloss.Style
}

// NewStyles builds the style set for a theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		StatusBar: lipgloss.NewStyle().Foreground(theme.Muted),
		Muted:     lipgloss.NewStyle().Foreground(theme.Muted),
		EventLine: lipgloss.NewStyle().Foreground(theme.Muted),
		StateDone: lipgloss.NewStyle().Foreground(theme.Success),
		StateFail: lipgloss.NewStyle().Foreground(theme.Error),
		StateRun:  lipgloss.NewStyle().Foreground(theme.Primary),
		StateWait: lipgloss.NewStyle().Foreground(theme.Warning),
	}
}
