package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rileyhilliard/esdbtop/internal/ui"
)

// resetStyle ends whatever SGR state a cut background line leaves open.
const resetStyle = "\x1b[m"

// Help overlay styles
var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorAccent).
			Padding(1, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(ui.ColorAccent).
			Bold(true).
			MarginBottom(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(ui.ColorPrimary).
			Bold(true).
			Width(14)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)
)

// renderHelpOverlay renders a centered help box listing the bindings that
// are live for the current view and stage.
func renderHelpOverlay(bindings []key.Binding, width, height int) string {
	var lines []string
	lines = append(lines, helpTitleStyle.Render("Keyboard Shortcuts"))

	for _, b := range bindings {
		h := b.Help()
		lines = append(lines, helpKeyStyle.Render(h.Key)+helpDescStyle.Render(h.Desc))
	}
	lines = append(lines, helpKeyStyle.Render("Ctrl+C")+helpDescStyle.Render("Quit immediately"))

	lines = append(lines, "")
	lines = append(lines, MutedStyle.Render("Press ? or Esc to close"))

	helpBox := helpBoxStyle.Render(strings.Join(lines, "\n"))

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox,
		lipgloss.WithWhitespaceChars(" "),
	)
}

// renderErrorBox renders the error slot as a box. Only q leaves it.
func renderErrorBox(title string, err error, width int) string {
	boxWidth := width * 2 / 3
	if boxWidth < 30 {
		boxWidth = 30
	}

	body := strings.TrimSpace(err.Error())
	content := errorTitleStyle.Render(title) + "\n" +
		lipgloss.NewStyle().Width(boxWidth-6).Render(body) + "\n\n" +
		MutedStyle.Render("Press q to quit")

	return errorBoxStyle.Width(boxWidth).Render(content)
}

// overlayCenter draws fg centered on top of bg. The rows and columns of bg
// outside fg stay visible.
func overlayCenter(bg, fg string, width, height int) string {
	rows := strings.Split(bg, "\n")
	for len(rows) < height {
		rows = append(rows, "")
	}

	box := strings.Split(fg, "\n")
	boxWidth := lipgloss.Width(fg)
	x := max((width-boxWidth)/2, 0)
	y := max((height-len(box))/2, 0)

	for i, line := range box {
		row := y + i
		if row >= len(rows) {
			break
		}
		base := rows[row]
		left := ansi.Truncate(base, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		right := ansi.TruncateLeft(base, x+boxWidth, "")
		rows[row] = left + resetStyle + line + resetStyle + right
	}
	return strings.Join(rows, "\n")
}
