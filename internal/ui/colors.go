package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors use ANSI codes so they degrade cleanly on 16-color
// terminals and disappear entirely under the ASCII profile (--no-color).
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// Surface colors for chrome and overlays
const (
	ColorSurface lipgloss.Color = "0" // Black
	ColorBorder  lipgloss.Color = "8"
	ColorAccent  lipgloss.Color = "10" // Bright green, the header color of every table
)
