// Package ui provides the rendering building blocks of the esdbtop dashboard.
//
// The package wraps the Bubbles table, asciigraph line charts, sparklines and
// bordered panels so every view draws with the same palette.
//
// # Color Scheme
//
// Colors are defined as ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Healthy values
//	ColorError     (red)    - Failures and the error overlay
//	ColorWarning   (yellow) - Degraded values
//	ColorInfo      (cyan)   - Chart lines
//	ColorMuted     (gray)   - Labels and secondary text
//	ColorAccent    (bright green) - Table headers and panel titles
//
// Forcing the ASCII color profile on lipgloss (the --no-color flag) turns all
// of them off without any change here.
//
// # Charts
//
//	ui.RenderChart(ui.Chart{Title: "CPU Usage", Values: cpu, Upper: 100, Width: 60, Height: 8})
//
// Non-finite samples are dropped before plotting. An empty series renders a
// placeholder of the same height.
//
// # Sparklines
//
//	ui.RenderSparkline(values, 20, ui.ColorInfo) // ▁▂▃▅▇█
package ui
