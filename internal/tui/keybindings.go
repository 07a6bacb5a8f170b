package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Key bindings as constants for consistency.
const (
	KeyQuit       = "q"
	KeyQuitUpper  = "Q"
	KeyForceQuit  = "ctrl+c"
	KeyNextTab    = "tab"
	KeyPrevTab    = "shift+tab"
	KeyToggleHelp = "?"
	KeyUp         = "up"
	KeyDown       = "down"
	KeyLeft       = "left"
	KeyRight      = "right"
	KeySelect     = "enter"
	KeyBack       = "esc"
	KeySearch     = "/"
)

// Global bindings shown in every legend. A view binding with the same help
// key replaces the global one.
var (
	nextTabBinding = key.NewBinding(key.WithKeys(KeyNextTab), key.WithHelp("Tab", "Next tab"))
	prevTabBinding = key.NewBinding(key.WithKeys(KeyPrevTab), key.WithHelp("Shift+Tab", "Previous tab"))
	quitBinding    = key.NewBinding(key.WithKeys(KeyQuit, KeyQuitUpper), key.WithHelp("q", "Exit"))
	helpBinding    = key.NewBinding(key.WithKeys(KeyToggleHelp), key.WithHelp("?", "Help"))
)

// Bindings shared by the views.
var (
	upBinding     = key.NewBinding(key.WithKeys(KeyUp), key.WithHelp("↑", "Scroll up"))
	downBinding   = key.NewBinding(key.WithKeys(KeyDown), key.WithHelp("↓", "Scroll down"))
	selectBinding = key.NewBinding(key.WithKeys(KeySelect), key.WithHelp("Enter", "Select"))
	backBinding   = key.NewBinding(key.WithKeys(KeyBack), key.WithHelp("Esc", "Back"))
	closeBinding  = key.NewBinding(key.WithKeys(KeyQuit, KeyQuitUpper, KeyBack), key.WithHelp("q", "Close"))
	switchBinding = key.NewBinding(key.WithKeys(KeyLeft, KeyRight), key.WithHelp("←/→", "Switch column"))
	searchBinding = key.NewBinding(key.WithKeys(KeySearch), key.WithHelp("/", "Open stream"))
)

func globalBindings() []key.Binding {
	return []key.Binding{nextTabBinding, prevTabBinding, quitBinding, helpBinding}
}

// mergeBindings overlays view bindings on the globals by help key, keeping
// the globals first and the view's own order after them.
func mergeBindings(global, view []key.Binding) []key.Binding {
	overridden := make(map[string]bool, len(view))
	for _, b := range view {
		overridden[b.Help().Key] = true
	}

	merged := make([]key.Binding, 0, len(global)+len(view))
	for _, b := range global {
		if !overridden[b.Help().Key] {
			merged = append(merged, b)
		}
	}
	return append(merged, view...)
}

// bound reports whether any of the bindings matches the key.
func bound(msg tea.KeyMsg, bindings []key.Binding) bool {
	for _, b := range bindings {
		if key.Matches(msg, b) {
			return true
		}
	}
	return false
}
