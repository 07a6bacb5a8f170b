package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/rileyhilliard/esdbtop/internal/client"
	"github.com/rileyhilliard/esdbtop/internal/errors"
	"github.com/rileyhilliard/esdbtop/internal/ui"
)

// timeLayout formats event creation times in tables.
const timeLayout = "2006-01-02 15:04:05"

// eventHeaders are the columns of every event listing.
var eventHeaders = []string{"Event #", "Name", "Type", "Created Date"}

func moveUp(selected int) int {
	if selected > 0 {
		return selected - 1
	}
	return 0
}

func moveDown(selected, count int) int {
	if selected+1 < count {
		return selected + 1
	}
	return selected
}

// clampIndex keeps a selection inside a list that may have shrunk.
func clampIndex(selected, count int) int {
	if selected >= count {
		selected = count - 1
	}
	if selected < 0 {
		return 0
	}
	return selected
}

// readOrEmpty reads a stream and treats a missing stream as an empty one.
func readOrEmpty(ctx context.Context, src client.Source, name string, opts client.ReadOptions) ([]client.Event, error) {
	events, err := src.ReadStream(ctx, name, opts)
	if errors.IsNotFound(err) {
		return nil, nil
	}
	return events, err
}

// renderTable draws a table with the selected row highlighted. A negative
// selection highlights nothing.
func renderTable(cols []ui.TableColumn, rows []table.Row, selected, height int) string {
	t := ui.NewTable(cols, rows, height)
	if selected >= 0 && selected < len(rows) {
		t.SetCursor(selected)
	} else {
		ui.WithoutHighlight(&t)
	}
	return t.View()
}

func eventRows(events []client.Event) []table.Row {
	rows := make([]table.Row, len(events))
	for i, e := range events {
		created := ""
		if !e.Created.IsZero() {
			created = e.Created.Format(timeLayout)
		}
		rows[i] = table.Row{
			fmt.Sprintf("%d", e.EventNumber),
			eventName(e),
			e.EventType,
			created,
		}
	}
	return rows
}

// eventName is the "number@stream" handle of an event.
func eventName(e client.Event) string {
	return fmt.Sprintf("%d@%s", e.EventNumber, e.StreamID)
}

// renderLineNumbers prefixes each line with its right-aligned number.
func renderLineNumbers(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return ""
	}

	lines := strings.Split(content, "\n")
	width := len(fmt.Sprintf("%d", len(lines)))

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%*d | %s", width, i+1, line)
	}
	return b.String()
}

// emptyNote is drawn under a table with no rows.
func emptyNote(table, note string) string {
	return table + "\n" + MutedStyle.Render(note)
}
