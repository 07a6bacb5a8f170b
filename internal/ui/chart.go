package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Chart describes a line chart over a sliding time window.
type Chart struct {
	Title  string
	Values []float64
	// From and To label the time axis.
	From, To float64
	// Lower and Upper widen the value axis; they never clip data.
	Lower, Upper float64
	Width        int
	Height       int
	Precision    uint
}

// minChartWidth leaves room for the value axis labels.
const minChartWidth = 20

// RenderChart plots the chart with asciigraph. An empty series renders a
// placeholder so the layout does not jump before the first sample.
func RenderChart(c Chart) string {
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	height := c.Height
	if height < 2 {
		height = 2
	}
	width := c.Width - 12
	if width < minChartWidth {
		width = minChartWidth
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Title))
	b.WriteString("\n")

	if len(finite(c.Values)) == 0 {
		b.WriteString(mutedStyle.Render("waiting for data"))
		b.WriteString(strings.Repeat("\n", height))
		return b.String()
	}

	graph := asciigraph.Plot(finite(c.Values),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(c.Lower),
		asciigraph.UpperBound(c.Upper),
		asciigraph.Precision(c.Precision),
		asciigraph.Caption(fmt.Sprintf("time %s .. %s", formatAxis(c.From), formatAxis(c.To))),
	)
	b.WriteString(lipgloss.NewStyle().Foreground(ColorInfo).Render(graph))
	return b.String()
}

// finite drops NaN and infinite samples, which asciigraph cannot scale.
func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func formatAxis(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
