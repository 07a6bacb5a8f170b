package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/esdbtop/internal/client"
	"github.com/rileyhilliard/esdbtop/internal/logger"
	"github.com/rileyhilliard/esdbtop/internal/models"
	"github.com/rileyhilliard/esdbtop/internal/ui"
)

const gigabyte = 1 << 30

// ClusterObserver is told about every poll the monitoring view folds in.
type ClusterObserver interface {
	ObserveCluster(m *models.Monitoring, changes models.Changes)
}

// MonitoringView charts cluster health. Its model lives for the whole
// session, so counters survive tab switches.
type MonitoringView struct {
	log      logger.Logger
	model    *models.Monitoring
	observer ClusterObserver
}

// NewMonitoringView creates the monitoring view. observer may be nil.
func NewMonitoringView(log logger.Logger, observer ClusterObserver) *MonitoringView {
	if log == nil {
		log = logger.Noop()
	}
	return &MonitoringView{
		log:      log,
		model:    models.NewMonitoring(),
		observer: observer,
	}
}

func (v *MonitoringView) Title() string { return "Monitoring" }

// Load also asks for the server version, which does not change while connected.
func (v *MonitoringView) Load() Fetch { return v.fetch(true) }

func (v *MonitoringView) Unload() {}

func (v *MonitoringView) Refresh() Fetch { return v.fetch(false) }

func (v *MonitoringView) fetch(withVersion bool) Fetch {
	return func(ctx context.Context, src client.Source) (Apply, error) {
		var (
			raw     map[string]string
			members []client.Member
			version string
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			raw, err = src.Stats(gctx)
			return err
		})
		g.Go(func() (err error) {
			members, err = src.Gossip(gctx)
			return err
		})
		if withVersion {
			g.Go(func() (err error) {
				version, err = src.ServerVersion(gctx)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		stats, err := models.ParseStats(raw)
		if err != nil {
			return nil, err
		}

		return func() {
			if withVersion {
				v.model.Version = version
			}
			changes := v.model.Update(stats, members)
			v.report(changes)
			if v.observer != nil {
				v.observer.ObserveCluster(v.model, changes)
			}
		}, nil
	}
}

// report logs what a poll detected.
func (v *MonitoringView) report(c models.Changes) {
	m := v.model
	if c.NoLeader {
		v.log.Warn("No leader in gossip (%d polls so far)", m.NoLeader)
	}
	if c.Election {
		v.log.Warn("Election detected, epoch is now %d", m.Epoch())
	}
	if c.OutOfSync {
		v.log.Warn("Followers are behind the last writer checkpoint")
	}
	if c.Truncation {
		v.log.Warn("Writer checkpoint moved backwards to %d", m.WriterCheckpoint())
	}
	if c.LeaderChange && m.Leader != nil {
		v.log.Info("Leader is %s", m.Leader.InstanceID)
	}
}

func (v *MonitoringView) Draw(width, height int) string {
	m := v.model
	from, to := m.TimeBounds()

	left := width * 6 / 10
	right := width - left
	chartHeight := height/2 - 4
	if chartHeight < 2 {
		chartHeight = 2
	}

	cpu := ui.RenderChart(ui.Chart{
		Title:     "CPU Usage (%)",
		Values:    m.CPU.Values(),
		From:      from,
		To:        to,
		Lower:     0,
		Upper:     100,
		Width:     left,
		Height:    chartHeight,
		Precision: 0,
	})

	written := m.BytesWritten.Values()
	lo, hi := paddedBounds(written)
	bytes := ui.RenderChart(ui.Chart{
		Title:     "Bytes written",
		Values:    written,
		From:      from,
		To:        to,
		Lower:     lo,
		Upper:     hi,
		Width:     left,
		Height:    chartHeight,
		Precision: 2,
	})

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(left).Render(cpu),
		ui.Panel("Key metrics", v.keyMetrics(right), right),
	)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(left).Render(bytes),
		v.driveMetrics(right),
	)
	return lipgloss.JoinVertical(lipgloss.Left, top, "", bottom)
}

func (v *MonitoringView) keyMetrics(width int) string {
	m := v.model

	epoch, checkpoint := "N/A", "N/A"
	if e := m.Epoch(); e >= 0 {
		epoch = fmt.Sprintf("%d", e)
	}
	if w := m.WriterCheckpoint(); w >= 0 {
		checkpoint = fmt.Sprintf("%d", w)
	}
	version := "N/A"
	if m.Version != "" {
		version = "v" + strings.TrimPrefix(m.Version, "v")
	}
	leader := MutedStyle.Render("none")
	if m.Leader != nil {
		leader = m.Leader.InstanceID
	}

	pairs := []ui.KeyValue{
		{Key: "Epoch number", Value: epoch},
		{Key: "Writer checkpoint", Value: checkpoint},
		{Key: "Elections", Value: fmt.Sprintf("%d", m.Elections)},
		{Key: "Out of syncs", Value: fmt.Sprintf("%d", m.OutOfSyncs)},
		{Key: "Truncations", Value: fmt.Sprintf("%d", m.Truncations)},
		{Key: "Polls without leader", Value: fmt.Sprintf("%d", m.NoLeader)},
		{Key: "Unresponsive nodes", Value: fmt.Sprintf("%d", m.Unresponsive)},
		{Key: "Free memory", Value: fmt.Sprintf("%.2f GB", float64(m.FreeMem)/gigabyte)},
		{Key: "Load average", Value: fmt.Sprintf("%.2f %.2f %.2f", m.LoadAvg[0], m.LoadAvg[1], m.LoadAvg[2])},
		{Key: "Leader", Value: leader},
		{Key: "Version", Value: version},
	}

	spark := ui.RenderSparkline(m.FreeMemory.Values(), width-24, ui.ColorSuccess)
	return ui.RenderKeyValues(pairs) + "\n" + MutedStyle.Render("free memory ") + spark
}

func (v *MonitoringView) driveMetrics(width int) string {
	drives := v.model.Drives
	if len(drives) == 0 {
		return ui.Panel("Drive metrics", MutedStyle.Render("No drive stats reported"), width)
	}

	panels := make([]string, len(drives))
	for i, d := range drives {
		panels[i] = ui.Panel("Drive metrics", ui.RenderKeyValues(driveRows(d)), width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func driveRows(d models.Drive) []ui.KeyValue {
	return []ui.KeyValue{
		{Key: "Directory", Value: d.Path},
		{Key: "Total", Value: fmt.Sprintf("%.2f GB", float64(d.TotalBytes)/gigabyte)},
		{Key: "Available", Value: fmt.Sprintf("%.2f GB", float64(d.AvailableBytes)/gigabyte)},
		{Key: "Used", Value: fmt.Sprintf("%.2f GB (%s)", float64(d.UsedBytes)/gigabyte, d.Usage)},
	}
}

// paddedBounds widens the value axis of a series by half the power of ten
// above its spread, never going below zero.
func paddedBounds(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	diff := math.Round(hi - lo)
	incr := 10.0
	for diff-incr >= 0 {
		incr *= 10
	}
	scale := incr / 2

	if lo-scale < 0 {
		return 0, hi
	}
	return lo - scale, hi + scale
}

func (v *MonitoringView) OnKey(tea.KeyMsg) Request { return Noop }

func (v *MonitoringView) Keybindings() []key.Binding { return nil }
