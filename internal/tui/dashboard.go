package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/esdbtop/internal/client"
	"github.com/rileyhilliard/esdbtop/internal/logger"
	"github.com/rileyhilliard/esdbtop/internal/models"
	"github.com/rileyhilliard/esdbtop/internal/ui"
)

var queueHeaders = []string{
	"Queue Name",
	"Length (Current | Peak)",
	"Rate (items/s)",
	"Time (ms/item)",
	"Items Processed",
	"Current / Last Message",
}

// DashboardView lists the node's internal work queues.
type DashboardView struct {
	log      logger.Logger
	queues   []models.ResourceQueue
	selected int
}

// NewDashboardView creates the queue dashboard.
func NewDashboardView(log logger.Logger) *DashboardView {
	if log == nil {
		log = logger.Noop()
	}
	return &DashboardView{log: log}
}

func (v *DashboardView) Title() string { return "Dashboard" }

func (v *DashboardView) Load() Fetch { return v.Refresh() }

func (v *DashboardView) Unload() {
	v.selected = 0
}

// Refresh rebuilds the queue list from a fresh stats blob.
func (v *DashboardView) Refresh() Fetch {
	log := v.log
	return func(ctx context.Context, src client.Source) (Apply, error) {
		stats, err := src.Stats(ctx)
		if err != nil {
			return nil, err
		}
		queues := models.SortedQueues(models.ParseQueues(stats, log))

		return func() {
			v.queues = queues
			v.selected = clampIndex(v.selected, len(queues))
		}, nil
	}
}

func (v *DashboardView) Draw(width, height int) string {
	rows := make([]table.Row, len(v.queues))
	for i, q := range v.queues {
		rows[i] = table.Row{
			q.Name,
			q.LengthCurrentTryPeak + " | " + q.LengthLifetimePeak,
			q.AvgItemsPerSecond,
			q.CurrentIdleTime,
			q.TotalItemsProcessed,
			q.InProgressMessage + " / " + q.LastProcessedMessage,
		}
	}

	cols := ui.PercentColumns(width, queueHeaders, []int{20, 15, 10, 10, 10, 35})
	out := renderTable(cols, rows, v.selected, height-1)
	if len(rows) == 0 {
		return emptyNote(out, "No queues reported yet")
	}
	return out
}

func (v *DashboardView) OnKey(msg tea.KeyMsg) Request {
	switch {
	case key.Matches(msg, upBinding):
		v.selected = moveUp(v.selected)
	case key.Matches(msg, downBinding):
		v.selected = moveDown(v.selected, len(v.queues))
	}
	return Noop
}

func (v *DashboardView) Keybindings() []key.Binding {
	return []key.Binding{upBinding, downBinding}
}
