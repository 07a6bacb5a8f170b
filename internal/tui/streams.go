package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/esdbtop/internal/client"
	"github.com/rileyhilliard/esdbtop/internal/errors"
	"github.com/rileyhilliard/esdbtop/internal/ui"
)

// StreamsIndex is the system stream linking to the first event of every stream.
const StreamsIndex = "$streams"

// binaryPlaceholder replaces payloads that are not JSON.
const binaryPlaceholder = "<BINARY>"

type streamStage int

const (
	streamsMain streamStage = iota
	streamsStream
	streamsPreview
	streamsPopup
)

var streamColumnHeaders = [2]string{"Recently Created Streams", "Recently Changed Streams"}

var (
	previewBinding = key.NewBinding(key.WithKeys(KeySelect), key.WithHelp("Enter", "Preview event"))
	openBinding    = key.NewBinding(key.WithKeys(KeySelect), key.WithHelp("Enter", "Open"))
	cancelBinding  = key.NewBinding(key.WithKeys(KeyBack), key.WithHelp("Esc", "Cancel"))
)

// StreamsView browses recently created and changed streams and their events.
type StreamsView struct {
	pageSize int

	stage    streamStage
	column   int
	selected int

	created []string
	changed []string

	stream string
	events []client.Event

	input   textinput.Model
	preview viewport.Model
}

// NewStreamsView creates the stream browser. pageSize is how many entries
// each listing reads.
func NewStreamsView(pageSize int) *StreamsView {
	if pageSize <= 0 {
		pageSize = 20
	}

	input := textinput.New()
	input.Placeholder = "stream name"
	input.Prompt = "Stream: "
	input.CharLimit = 256

	return &StreamsView{
		pageSize: pageSize,
		input:    input,
		preview:  viewport.New(0, 0),
	}
}

func (v *StreamsView) Title() string { return "Streams Browser" }

func (v *StreamsView) Load() Fetch { return v.fetchListings() }

func (v *StreamsView) Unload() {
	v.stage = streamsMain
	v.column = 0
	v.selected = 0
	v.created = nil
	v.changed = nil
	v.stream = ""
	v.events = nil
	v.input.Blur()
	v.input.Reset()
}

// Refresh re-reads whatever the current stage shows. The preview and the
// popup hold no remote data of their own.
func (v *StreamsView) Refresh() Fetch {
	switch v.stage {
	case streamsMain:
		return v.fetchListings()
	case streamsStream:
		return v.fetchStream()
	}
	return nil
}

// CapturingInput is true while the stream name popup is open.
func (v *StreamsView) CapturingInput() bool {
	return v.stage == streamsPopup
}

func (v *StreamsView) fetchListings() Fetch {
	n := v.pageSize
	return func(ctx context.Context, src client.Source) (Apply, error) {
		var created, changed []string

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			events, err := readOrEmpty(gctx, src, StreamsIndex, client.LatestOptions(n))
			if err != nil {
				return err
			}
			created, err = createdStreams(events)
			return err
		})
		g.Go(func() error {
			events, err := src.ReadAll(gctx, client.LatestOptions(n))
			if err != nil && !errors.IsNotFound(err) {
				return err
			}
			changed = changedStreams(events)
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		return func() {
			v.created = created
			v.changed = changed
			v.selected = clampIndex(v.selected, len(v.currentColumn()))
		}, nil
	}
}

func (v *StreamsView) fetchStream() Fetch {
	name, n := v.stream, v.pageSize
	return func(ctx context.Context, src client.Source) (Apply, error) {
		opts := client.LatestOptions(n)
		opts.ResolveLinkTos = true

		events, err := readOrEmpty(ctx, src, name, opts)
		if err != nil {
			return nil, err
		}

		return func() {
			// The user may have moved on to another stream meanwhile.
			if v.stream != name {
				return
			}
			v.events = events
			v.selected = clampIndex(v.selected, len(events))
		}, nil
	}
}

// createdStreams decodes the "number@stream" link payloads of $streams.
func createdStreams(events []client.Event) ([]string, error) {
	names := make([]string, 0, len(events))
	for _, e := range events {
		if !utf8.Valid(e.Data) {
			return nil, errors.Malformed(fmt.Errorf("event %d of %s is not UTF-8", e.EventNumber, StreamsIndex), "stream link")
		}
		link := string(e.Data)
		at := strings.LastIndex(link, "@")
		if at < 0 {
			continue
		}
		names = append(names, link[at+1:])
	}
	return names, nil
}

// changedStreams lists the streams of the newest global events, first seen first.
func changedStreams(events []client.Event) []string {
	seen := make(map[string]bool, len(events))
	names := make([]string, 0, len(events))
	for _, e := range events {
		if seen[e.StreamID] {
			continue
		}
		seen[e.StreamID] = true
		names = append(names, e.StreamID)
	}
	return names
}

func (v *StreamsView) currentColumn() []string {
	if v.column == 0 {
		return v.created
	}
	return v.changed
}

func (v *StreamsView) Draw(width, height int) string {
	switch v.stage {
	case streamsStream:
		return v.drawStream(width, height)
	case streamsPreview:
		return v.drawPreview(width, height)
	case streamsPopup:
		return v.drawPopup(width, height)
	}
	return v.drawMain(width, height)
}

func (v *StreamsView) drawMain(width, height int) string {
	half := width / 2
	panes := make([]string, 2)
	for idx, names := range [][]string{v.created, v.changed} {
		rows := make([]table.Row, len(names))
		for i, name := range names {
			rows[i] = table.Row{name}
		}

		selected := -1
		if idx == v.column {
			selected = v.selected
		}
		cols := []ui.TableColumn{{Title: streamColumnHeaders[idx], Width: half - 4}}
		panes[idx] = renderTable(cols, rows, selected, height-1)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panes[0], "  ", panes[1])
}

func (v *StreamsView) drawStream(width, height int) string {
	title := TitleStyle.Render(fmt.Sprintf("Event Stream '%s'", v.stream))
	cols := ui.PercentColumns(width, eventHeaders, []int{15, 35, 25, 25})
	out := renderTable(cols, eventRows(v.events), v.selected, height-3)
	if len(v.events) == 0 {
		out = emptyNote(out, "No events")
	}
	return title + "\n" + out
}

func (v *StreamsView) drawPreview(width, height int) string {
	if v.selected >= len(v.events) {
		return MutedStyle.Render("Event is no longer available")
	}
	e := v.events[v.selected]

	title := TitleStyle.Render(fmt.Sprintf("Event '%s'", eventName(e)))
	cols := ui.PercentColumns(width, eventHeaders, []int{15, 35, 25, 25})
	header := renderTable(cols, eventRows([]client.Event{e}), -1, 0)

	v.preview.Width = width
	v.preview.Height = height - lipgloss.Height(title) - lipgloss.Height(header) - 1
	if v.preview.Height < 1 {
		v.preview.Height = 1
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, header, "", v.preview.View())
}

// drawPopup lays the stream name prompt over the main listing.
func (v *StreamsView) drawPopup(width, height int) string {
	v.input.Width = width - lipgloss.Width(v.input.Prompt) - 6
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorAccent).
		Padding(0, 1).
		Width(width - 2).
		Render(TitleStyle.Render("Open stream") + "\n" + v.input.View())
	return box + "\n" + v.drawMain(width, height-lipgloss.Height(box)-1)
}

// previewContent pretty-prints JSON payloads. Anything else is shown as binary.
func previewContent(e client.Event) string {
	if !e.IsJSON {
		return binaryPlaceholder
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, e.Data, "", "  "); err != nil {
		return string(e.Data)
	}
	return buf.String()
}

func (v *StreamsView) OnKey(msg tea.KeyMsg) Request {
	switch v.stage {
	case streamsMain:
		return v.onMainKey(msg)
	case streamsStream:
		return v.onStreamKey(msg)
	case streamsPreview:
		return v.onPreviewKey(msg)
	case streamsPopup:
		return v.onPopupKey(msg)
	}
	return Noop
}

func (v *StreamsView) onMainKey(msg tea.KeyMsg) Request {
	switch {
	case key.Matches(msg, switchBinding):
		v.column = (v.column + 1) % 2
		v.selected = 0
	case key.Matches(msg, upBinding):
		v.selected = moveUp(v.selected)
	case key.Matches(msg, downBinding):
		v.selected = moveDown(v.selected, len(v.currentColumn()))
	case key.Matches(msg, selectBinding):
		names := v.currentColumn()
		if v.selected >= len(names) {
			return Noop
		}
		return v.open(names[v.selected])
	case key.Matches(msg, searchBinding):
		v.stage = streamsPopup
		v.input.Reset()
		v.input.Focus()
	}
	return Noop
}

// open switches to the event listing of a stream.
func (v *StreamsView) open(name string) Request {
	v.stage = streamsStream
	v.stream = name
	v.events = nil
	v.selected = 0
	return Refresh
}

func (v *StreamsView) onStreamKey(msg tea.KeyMsg) Request {
	switch {
	case key.Matches(msg, upBinding):
		v.selected = moveUp(v.selected)
	case key.Matches(msg, downBinding):
		v.selected = moveDown(v.selected, len(v.events))
	case key.Matches(msg, previewBinding):
		if v.selected < len(v.events) {
			v.stage = streamsPreview
			v.preview.SetContent(previewContent(v.events[v.selected]))
			v.preview.GotoTop()
		}
	case key.Matches(msg, backBinding):
		v.stage = streamsMain
		v.stream = ""
		v.events = nil
		v.selected = 0
		return Refresh
	}
	return Noop
}

func (v *StreamsView) onPreviewKey(msg tea.KeyMsg) Request {
	if key.Matches(msg, backBinding) {
		v.stage = streamsStream
		return Noop
	}
	v.preview, _ = v.preview.Update(msg)
	return Noop
}

func (v *StreamsView) onPopupKey(msg tea.KeyMsg) Request {
	switch {
	case key.Matches(msg, cancelBinding):
		v.stage = streamsMain
		v.input.Blur()
		return Noop
	case key.Matches(msg, openBinding):
		name := strings.TrimSpace(v.input.Value())
		if name == "" {
			return Noop
		}
		v.input.Blur()
		return v.open(name)
	}
	v.input, _ = v.input.Update(msg)
	return Noop
}

func (v *StreamsView) Keybindings() []key.Binding {
	switch v.stage {
	case streamsStream:
		return []key.Binding{upBinding, downBinding, previewBinding, backBinding}
	case streamsPreview:
		return []key.Binding{upBinding, downBinding, backBinding}
	case streamsPopup:
		return []key.Binding{openBinding, cancelBinding}
	}
	return []key.Binding{upBinding, downBinding, switchBinding, selectBinding, searchBinding}
}
