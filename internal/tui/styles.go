package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/esdbtop/internal/ui"
)

// appTitle is drawn at the right end of the tab bar.
const appTitle = "EventStoreDB Administration Tool"

// Base styles for the session chrome
var (
	TabBarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorBorder).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(ui.ColorAccent).
			Padding(0, 1)

	TabActiveStyle = TabStyle.
			Bold(true).
			Reverse(true)

	AppTitleStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)

	LegendStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorBorder).
			Padding(0, 1)

	LegendKeyStyle = lipgloss.NewStyle().
			Foreground(ui.ColorSuccess)

	LegendDescStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary)

	BodyStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ui.ColorAccent).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)

	BoldStyle = lipgloss.NewStyle().
			Bold(true)
)

// Error overlay styles
var (
	errorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorError).
			Foreground(ui.ColorPrimary).
			Padding(1, 2)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(ui.ColorError).
			Bold(true).
			MarginBottom(1)
)
