package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableStyle provides consistent styling for tables across the dashboard.
type TableStyle struct {
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Selected lipgloss.Style
	Border   lipgloss.Style
}

// DefaultTableStyle returns the default table styling.
func DefaultTableStyle() TableStyle {
	return TableStyle{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent),
		Cell: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Selected: lipgloss.NewStyle().
			Reverse(true),
		Border: lipgloss.NewStyle().
			Foreground(ColorBorder),
	}
}

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a new Bubbles table with default styling. Height counts
// the header and its border; a non-positive height fits all rows.
func NewTable(columns []TableColumn, rows []table.Row, height int) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	if height <= 0 {
		height = len(rows) + 2 // header and its bottom border
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(height),
	)

	t.SetStyles(tableStyles(true))
	return t
}

// WithoutHighlight renders the cursor row like any other row.
func WithoutHighlight(t *table.Model) {
	t.SetStyles(tableStyles(false))
}

func tableStyles(highlight bool) table.Styles {
	ts := DefaultTableStyle()
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(ts.Header.GetForeground())
	s.Cell = s.Cell.
		Foreground(ts.Cell.GetForeground())
	if highlight {
		s.Selected = s.Selected.
			Foreground(lipgloss.NoColor{}).
			Reverse(true).
			Bold(false)
	} else {
		s.Selected = lipgloss.NewStyle()
	}
	return s
}

// PercentColumns splits total cells of width between titles by percentage.
// Missing percentages share what is left equally.
func PercentColumns(total int, titles []string, percents []int) []TableColumn {
	cols := make([]TableColumn, len(titles))
	used, unsized := 0, 0
	for i := range titles {
		if i < len(percents) {
			used += percents[i]
		} else {
			unsized++
		}
	}

	rest := 0
	if unsized > 0 && used < 100 {
		rest = (100 - used) / unsized
	}

	for i, title := range titles {
		pct := rest
		if i < len(percents) {
			pct = percents[i]
		}
		// Two cells of padding per column in the default styles.
		w := total*pct/100 - 2
		if w < 1 {
			w = 1
		}
		cols[i] = TableColumn{Title: title, Width: w}
	}
	return cols
}

// KeyValue is one line of a labelled panel.
type KeyValue struct {
	Key   string
	Value string
}

// RenderKeyValues renders "key: value" lines with the keys padded to the
// longest one.
func RenderKeyValues(pairs []KeyValue) string {
	width := 0
	for _, p := range pairs {
		if w := lipgloss.Width(p.Key); w > width {
			width = w
		}
	}

	labelStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	lines := make([]string, len(pairs))
	for i, p := range pairs {
		lines[i] = labelStyle.Render(padRight(p.Key, width)+": ") + p.Value
	}
	return strings.Join(lines, "\n")
}

// Panel draws content inside a rounded border with a title on the top line.
func Panel(title, content string, width int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)
	if width > 2 {
		style = style.Width(width - 2)
	}

	heading := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render(title)
	if content == "" {
		return style.Render(heading)
	}
	return style.Render(heading + "\n" + content)
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Account for ANSI codes when calculating visible length
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
