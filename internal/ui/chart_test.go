package ui

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderChart_Empty(t *testing.T) {
	out := RenderChart(Chart{Title: "CPU Usage", Width: 40, Height: 4})

	assert.Contains(t, out, "CPU Usage")
	assert.Contains(t, out, "waiting for data")
}

func TestRenderChart_OnlyNonFinite(t *testing.T) {
	out := RenderChart(Chart{Title: "Bytes written", Values: []float64{math.NaN(), math.Inf(1)}, Width: 40, Height: 4})
	assert.Contains(t, out, "waiting for data")
}

func TestRenderChart_PlotsSeries(t *testing.T) {
	out := RenderChart(Chart{
		Title:  "CPU Usage",
		Values: []float64{10, 20, 30, 25},
		To:     20,
		Upper:  100,
		Width:  60,
		Height: 5,
	})

	assert.Contains(t, out, "CPU Usage")
	assert.Contains(t, out, "time 0 .. 20")
	assert.Contains(t, out, "100")
	assert.Greater(t, strings.Count(out, "\n"), 5)
}

func TestFinite(t *testing.T) {
	assert.Equal(t, []float64{1, 3}, finite([]float64{1, math.NaN(), 3, math.Inf(-1)}))
}

func TestFormatAxis(t *testing.T) {
	assert.Equal(t, "20", formatAxis(20))
	assert.Equal(t, "2.5", formatAxis(2.5))
}
