package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/esdbtop/internal/client"
	"github.com/rileyhilliard/esdbtop/internal/errors"
	"github.com/rileyhilliard/esdbtop/internal/models"
	"github.com/rileyhilliard/esdbtop/internal/ui"
)

// definitionPageSize is how many events each step of the backwards search
// for a projection definition reads.
const definitionPageSize = 100

var projectionHeaders = []string{
	"Name",
	"Status",
	"Checkpoint Status",
	"Mode",
	"Done",
	"Read / Write in Progress",
	"Write Queues",
	"Partitions Cached",
	"Rate (events/s)",
	"Events",
}

type projectionStage int

const (
	projectionsMain projectionStage = iota
	projectionsDetail
)

// ProjectionsView lists projections and drills into one of them.
type ProjectionsView struct {
	model    *models.Projections
	stage    projectionStage
	selected int
	name     string
	query    viewport.Model
}

// NewProjectionsView creates the projections view. A nil clock means time.Now.
func NewProjectionsView(clock models.Clock) *ProjectionsView {
	return &ProjectionsView{
		model: models.NewProjections(clock),
		query: viewport.New(0, 0),
	}
}

func (v *ProjectionsView) Title() string { return "Projections" }

func (v *ProjectionsView) Load() Fetch { return v.Refresh() }

// Unload keeps the catalog so rates survive a tab switch.
func (v *ProjectionsView) Unload() {
	v.stage = projectionsMain
	v.name = ""
}

func (v *ProjectionsView) Refresh() Fetch {
	if v.stage == projectionsDetail {
		return v.fetchDetail(v.name)
	}
	return v.fetchList()
}

func (v *ProjectionsView) fetchList() Fetch {
	return func(ctx context.Context, src client.Source) (Apply, error) {
		list, err := src.ListProjections(ctx)
		if err != nil {
			return nil, err
		}
		return func() {
			v.model.Update(list)
			v.selected = clampIndex(v.selected, v.model.Count())
		}, nil
	}
}

// fetchDetail refreshes the listing along with the definition, state and
// result of one projection.
func (v *ProjectionsView) fetchDetail(name string) Fetch {
	return func(ctx context.Context, src client.Source) (Apply, error) {
		var (
			list                 []client.ProjectionSnapshot
			query, state, result string
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			list, err = src.ListProjections(gctx)
			return err
		})
		g.Go(func() (err error) {
			query, err = readDefinition(gctx, src, name)
			return err
		})
		g.Go(func() (err error) {
			state, err = orEmpty(src.ProjectionState(gctx, name))
			return err
		})
		g.Go(func() (err error) {
			result, err = orEmpty(src.ProjectionResult(gctx, name))
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		return func() {
			v.model.Update(list)
			v.model.SetDetail(name, query, state, result)
			if v.name == name {
				v.query.SetContent(renderLineNumbers(query))
			}
		}, nil
	}
}

// readDefinition pages backwards through the projection's stream until the
// newest definition turns up. An exhausted or missing stream yields "".
func readDefinition(ctx context.Context, src client.Source, name string) (string, error) {
	stream := client.ProjectionStream(name)
	opts := client.LatestOptions(definitionPageSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		events, err := readOrEmpty(ctx, src, stream, opts)
		if err != nil || len(events) == 0 {
			return "", err
		}

		query, err := models.QueryFromEvents(events)
		if !errors.IsNotFound(err) {
			return query, err
		}

		oldest := events[len(events)-1].EventNumber
		if oldest <= 0 {
			return "", nil
		}
		opts = client.BackwardsFrom(oldest-1, definitionPageSize)
	}
}

// orEmpty turns a NotFound document into an empty one.
func orEmpty(doc string, err error) (string, error) {
	if errors.IsNotFound(err) {
		return "", nil
	}
	return doc, err
}

func (v *ProjectionsView) Draw(width, height int) string {
	if v.stage == projectionsDetail {
		return v.drawDetail(width, height)
	}
	return v.drawMain(width, height)
}

func (v *ProjectionsView) drawMain(width, height int) string {
	list := v.model.List()
	rows := make([]table.Row, len(list))
	for i, p := range list {
		rows[i] = projectionRow(p)
	}

	cols := ui.PercentColumns(width, projectionHeaders, []int{16, 8, 10, 8, 6, 12, 10, 10, 10, 10})
	out := renderTable(cols, rows, v.selected, height-1)
	if len(rows) == 0 {
		return emptyNote(out, "No projections")
	}
	return out
}

func projectionRow(p models.Projection) table.Row {
	checkpoint := p.CheckpointStatus
	if checkpoint == "" {
		checkpoint = "-"
	}
	return table.Row{
		p.Name,
		p.Status,
		checkpoint,
		p.Mode,
		fmt.Sprintf("%.1f%%", p.Progress),
		fmt.Sprintf("%d / %d", p.ReadsInProgress, p.WritesInProgress),
		fmt.Sprintf("%d", p.BufferedEvents),
		fmt.Sprintf("%d", p.PartitionsCached),
		formatRate(p),
		fmt.Sprintf("%d", p.EventsProcessed),
	}
}

// formatRate shows a dash until a second sample makes the rate meaningful.
func formatRate(p models.Projection) string {
	if !p.HasRate {
		return "-"
	}
	return fmt.Sprintf("%.1f", p.Rate)
}

func (v *ProjectionsView) drawDetail(width, height int) string {
	p, ok := v.model.Get(v.name)
	if !ok {
		return MutedStyle.Render(fmt.Sprintf("Projection '%s' is no longer listed", v.name))
	}

	half := width / 2
	v.query.Width = half - 4
	v.query.Height = height - 3
	if v.query.Height < 1 {
		v.query.Height = 1
	}

	query := v.query.View()
	if p.Query == "" {
		query = MutedStyle.Render("No definition found")
	}
	left := ui.Panel("Query", query, half)
	right := ui.Panel(p.Name, ui.RenderKeyValues(projectionDetails(p)), width-half)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func projectionDetails(p models.Projection) []ui.KeyValue {
	return []ui.KeyValue{
		{Key: "Events/sec", Value: formatRate(p)},
		{Key: "Buffered events", Value: fmt.Sprintf("%d", p.BufferedEvents)},
		{Key: "Events processed", Value: fmt.Sprintf("%d", p.EventsProcessed)},
		{Key: "Partitions cached", Value: fmt.Sprintf("%d", p.PartitionsCached)},
		{Key: "Reads in-progress", Value: fmt.Sprintf("%d", p.ReadsInProgress)},
		{Key: "Writes in-progress", Value: fmt.Sprintf("%d", p.WritesInProgress)},
		{Key: "Write queue", Value: fmt.Sprintf("%d", p.WriteQueue)},
		{Key: "Write queue (chkp)", Value: fmt.Sprintf("%d", p.WriteQueueCheckpoint)},
		{Key: "Checkpoint status", Value: p.CheckpointStatus},
		{Key: "Position", Value: p.Position},
		{Key: "Last checkpoint", Value: p.LastCheckpoint},
		{Key: BoldStyle.Render("Results"), Value: compact(p.Result)},
		{Key: BoldStyle.Render("State"), Value: compact(p.State)},
	}
}

// compact folds a document onto one line for the detail panel.
func compact(doc string) string {
	return strings.Join(strings.Fields(doc), " ")
}

func (v *ProjectionsView) OnKey(msg tea.KeyMsg) Request {
	if v.stage == projectionsDetail {
		switch {
		case key.Matches(msg, closeBinding):
			v.stage = projectionsMain
			v.name = ""
			return Refresh
		case key.Matches(msg, upBinding), key.Matches(msg, downBinding):
			v.query, _ = v.query.Update(msg)
		}
		return Noop
	}

	switch {
	case key.Matches(msg, upBinding):
		v.selected = moveUp(v.selected)
	case key.Matches(msg, downBinding):
		v.selected = moveDown(v.selected, v.model.Count())
	case key.Matches(msg, selectBinding):
		p, ok := v.model.ByIndex(v.selected)
		if !ok {
			return Noop
		}
		v.stage = projectionsDetail
		v.name = p.Name
		v.query.SetContent("")
		v.query.GotoTop()
		return Refresh
	}
	return Noop
}

func (v *ProjectionsView) Keybindings() []key.Binding {
	if v.stage == projectionsDetail {
		return []key.Binding{upBinding, downBinding, closeBinding}
	}
	return []key.Binding{upBinding, downBinding, selectBinding}
}
