package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableStyle(t *testing.T) {
	style := DefaultTableStyle()

	testStr := "test"
	assert.NotPanics(t, func() {
		_ = style.Header.Render(testStr)
		_ = style.Cell.Render(testStr)
		_ = style.Selected.Render(testStr)
		_ = style.Border.Render(testStr)
	})
}

func TestNewTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "Queue Name", Width: 20},
		{Title: "Rate (items/s)", Width: 16},
	}
	rows := []table.Row{
		{"MainQueue", "12.5"},
		{"Workers", "0"},
	}

	tbl := NewTable(columns, rows, 0)

	view := tbl.View()
	assert.Contains(t, view, "Queue Name")
	assert.Contains(t, view, "Rate (items/s)")
	assert.Contains(t, view, "MainQueue")
	assert.Contains(t, view, "Workers")
}

func TestNewTable_EmptyRows(t *testing.T) {
	tbl := NewTable([]TableColumn{{Title: "Name", Width: 20}}, nil, 0)
	assert.Contains(t, tbl.View(), "Name")
}

func TestPercentColumns(t *testing.T) {
	cols := PercentColumns(100, []string{"A", "B", "C"}, []int{50})

	require.Len(t, cols, 3)
	assert.Equal(t, TableColumn{Title: "A", Width: 48}, cols[0])
	assert.Equal(t, TableColumn{Title: "B", Width: 23}, cols[1])
	assert.Equal(t, TableColumn{Title: "C", Width: 23}, cols[2])
}

func TestPercentColumns_NeverBelowOne(t *testing.T) {
	cols := PercentColumns(5, []string{"A", "B"}, []int{10, 90})
	assert.Equal(t, 1, cols[0].Width)
	assert.Equal(t, 2, cols[1].Width)
}

func TestRenderKeyValues(t *testing.T) {
	out := stripANSI(RenderKeyValues([]KeyValue{
		{Key: "Epoch number", Value: "3"},
		{Key: "Version", Value: "v23.10.0"},
	}))

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Epoch number: 3", lines[0])
	assert.Equal(t, "Version     : v23.10.0", lines[1])
}

func TestPanel(t *testing.T) {
	out := stripANSI(Panel("Key metrics", "Elections: 1", 30))

	assert.Contains(t, out, "Key metrics")
	assert.Contains(t, out, "Elections: 1")
	assert.Contains(t, out, "╭")
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{name: "shorter than width", input: "foo", width: 5, expected: "foo  "},
		{name: "equal to width", input: "foobar", width: 6, expected: "foobar"},
		{name: "longer than width", input: "foobarbaz", width: 3, expected: "foobarbaz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, padRight(tt.input, tt.width))
		})
	}
}
