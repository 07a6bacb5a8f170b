package ui

import "github.com/charmbracelet/lipgloss"

// Unicode symbols for status lines printed outside the dashboard.
const (
	SymbolSuccess = "✓"
	SymbolFail    = "✗"
	SymbolWarning = "!"
)

// Success renders a message prefixed with a green check mark.
func Success(msg string) string {
	return lipgloss.NewStyle().Foreground(ColorSuccess).Render(SymbolSuccess) + " " + msg
}

// Failure renders a message prefixed with a red cross.
func Failure(msg string) string {
	return lipgloss.NewStyle().Foreground(ColorError).Render(SymbolFail) + " " + msg
}

// Warning renders a message prefixed with a yellow exclamation mark.
func Warning(msg string) string {
	return lipgloss.NewStyle().Foreground(ColorWarning).Render(SymbolWarning) + " " + msg
}
