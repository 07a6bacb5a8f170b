package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/esdbtop/internal/client"
	"github.com/rileyhilliard/esdbtop/internal/errors"
	"github.com/rileyhilliard/esdbtop/internal/models"
	"github.com/rileyhilliard/esdbtop/internal/ui"
)

var subscriptionHeaders = []string{
	"Stream/Group",
	"Rate (messages/s)",
	"Messages (Known | Current | In Flight)",
	"Connections",
	"Status # of msgs / estimated time to catchup in seconds",
}

type subscriptionStage int

const (
	subscriptionsMain subscriptionStage = iota
	subscriptionsChoices
	subscriptionsDetail
)

type subscriptionChoice int

const (
	choiceSettings subscriptionChoice = iota
	choiceParked
)

var subscriptionChoices = []string{"Settings", "Parked messages"}

// SubscriptionsView lists persistent subscription groups. Selecting a group
// offers its settings or its parked messages.
type SubscriptionsView struct {
	pageSize int

	model    *models.PersistentSubscriptions
	stage    subscriptionStage
	selected int

	key    string
	choice subscriptionChoice
	row    int
	parked []client.Event
}

// NewSubscriptionsView creates the persistent subscriptions view. pageSize
// bounds the parked message listing.
func NewSubscriptionsView(pageSize int) *SubscriptionsView {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &SubscriptionsView{
		pageSize: pageSize,
		model:    models.NewPersistentSubscriptions(),
	}
}

func (v *SubscriptionsView) Title() string { return "Persistent Subscriptions" }

func (v *SubscriptionsView) Load() Fetch { return v.Refresh() }

func (v *SubscriptionsView) Unload() {
	v.stage = subscriptionsMain
	v.key = ""
	v.choice = choiceSettings
	v.row = 0
	v.parked = nil
}

func (v *SubscriptionsView) Refresh() Fetch {
	if v.stage != subscriptionsDetail {
		return v.fetchList()
	}
	sub, ok := v.model.Get(v.key)
	if !ok {
		return v.fetchList()
	}
	if v.choice == choiceParked {
		return v.fetchParked(sub.StreamName, sub.GroupName)
	}
	return v.fetchSettings(sub.StreamName, sub.GroupName)
}

func (v *SubscriptionsView) fetchList() Fetch {
	return func(ctx context.Context, src client.Source) (Apply, error) {
		list, err := src.ListPersistentSubscriptions(ctx)
		if err != nil {
			return nil, err
		}
		return func() {
			v.model.Update(list)
			v.selected = clampIndex(v.selected, v.model.Count())
		}, nil
	}
}

func (v *SubscriptionsView) fetchSettings(stream, group string) Fetch {
	return func(ctx context.Context, src client.Source) (Apply, error) {
		var (
			list     []client.SubscriptionSnapshot
			settings *client.SubscriptionSettings
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			list, err = src.ListPersistentSubscriptions(gctx)
			return err
		})
		g.Go(func() (err error) {
			settings, err = src.SubscriptionSettings(gctx, stream, group)
			if errors.IsNotFound(err) {
				settings, err = nil, nil
			}
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		return func() {
			v.model.Update(list)
			v.model.SetSettings(stream+"/"+group, settings)
		}, nil
	}
}

func (v *SubscriptionsView) fetchParked(stream, group string) Fetch {
	n := v.pageSize
	id := stream + "/" + group
	return func(ctx context.Context, src client.Source) (Apply, error) {
		events, err := readOrEmpty(ctx, src, client.ParkedStream(stream, group), client.LatestOptions(n))
		if err != nil {
			return nil, err
		}
		return func() {
			if v.key != id {
				return
			}
			v.parked = events
			v.row = clampIndex(v.row, len(events))
		}, nil
	}
}

func (v *SubscriptionsView) Draw(width, height int) string {
	switch v.stage {
	case subscriptionsChoices:
		return v.drawChoices(width)
	case subscriptionsDetail:
		if v.choice == choiceParked {
			return v.drawParked(width, height)
		}
		return v.drawSettings(width)
	}
	return v.drawMain(width, height)
}

func (v *SubscriptionsView) drawMain(width, height int) string {
	list := v.model.List()
	rows := make([]table.Row, len(list))
	for i, s := range list {
		rows[i] = subscriptionRow(s)
	}

	cols := ui.PercentColumns(width, subscriptionHeaders, []int{20, 20, 20, 10, 30})
	out := renderTable(cols, rows, v.selected, height-1)
	if len(rows) == 0 {
		return emptyNote(out, "No persistent subscriptions")
	}
	return out
}

func subscriptionRow(s models.PersistentSubscription) table.Row {
	return table.Row{
		s.Key(),
		fmt.Sprintf("%.1f", s.AverageItemsPerSecond),
		fmt.Sprintf("%s | %s | %d", s.LastKnown, s.LastCheckpointed, s.InFlightMessages),
		fmt.Sprintf("%d", s.ConnectionCount),
		fmt.Sprintf("%s %d / %.1f", s.Status, s.BehindByMessages, s.BehindByTime),
	}
}

func (v *SubscriptionsView) drawChoices(width int) string {
	lines := make([]string, len(subscriptionChoices))
	for i, c := range subscriptionChoices {
		if subscriptionChoice(i) == v.choice {
			lines[i] = BoldStyle.Render("> " + c)
		} else {
			lines[i] = "  " + c
		}
	}
	return ui.Panel(v.key, strings.Join(lines, "\n"), width/2)
}

func (v *SubscriptionsView) drawSettings(width int) string {
	sub, ok := v.model.Get(v.key)
	if !ok {
		return MutedStyle.Render(fmt.Sprintf("Subscription '%s' is no longer listed", v.key))
	}
	if sub.Settings == nil {
		return ui.Panel(sub.Key()+" settings", MutedStyle.Render("No settings reported"), width)
	}
	return ui.Panel(sub.Key()+" settings", ui.RenderKeyValues(settingsRows(sub.Settings)), width)
}

func settingsRows(s *client.SubscriptionSettings) []ui.KeyValue {
	return []ui.KeyValue{
		{Key: "Buffer Size", Value: fmt.Sprintf("%d", s.BufferSize)},
		{Key: "Check Point After", Value: fmt.Sprintf("%d ms", s.CheckPointAfterMs)},
		{Key: "Extra Statistics", Value: fmt.Sprintf("%t", s.ExtraStatistics)},
		{Key: "Live Buffer Size", Value: fmt.Sprintf("%d", s.LiveBufferSize)},
		{Key: "Max Checkpoint Count", Value: fmt.Sprintf("%d", s.MaxCheckPointCount)},
		{Key: "Max Retry Count", Value: fmt.Sprintf("%d", s.MaxRetryCount)},
		{Key: "Message Timeout (ms)", Value: fmt.Sprintf("%d", s.MessageTimeoutMs)},
		{Key: "Min Checkpoint Count", Value: fmt.Sprintf("%d", s.MinCheckPointCount)},
		{Key: "Consumer Strategy", Value: s.ConsumerStrategy},
		{Key: "Read Batch Size", Value: fmt.Sprintf("%d", s.ReadBatchSize)},
		{Key: "Resolve Link Tos", Value: fmt.Sprintf("%t", s.ResolveLinkTos)},
		{Key: "Start From", Value: s.StartFrom},
	}
}

func (v *SubscriptionsView) drawParked(width, height int) string {
	title := TitleStyle.Render(fmt.Sprintf("Parked messages of '%s'", v.key))
	cols := ui.PercentColumns(width, eventHeaders, []int{15, 35, 25, 25})
	out := renderTable(cols, eventRows(v.parked), v.row, height-3)
	if len(v.parked) == 0 {
		out = emptyNote(out, "No parked messages")
	}
	return title + "\n" + out
}

func (v *SubscriptionsView) OnKey(msg tea.KeyMsg) Request {
	switch v.stage {
	case subscriptionsChoices:
		return v.onChoicesKey(msg)
	case subscriptionsDetail:
		return v.onDetailKey(msg)
	}

	switch {
	case key.Matches(msg, upBinding):
		v.selected = moveUp(v.selected)
	case key.Matches(msg, downBinding):
		v.selected = moveDown(v.selected, v.model.Count())
	case key.Matches(msg, selectBinding):
		list := v.model.List()
		if v.selected >= len(list) {
			return Noop
		}
		v.stage = subscriptionsChoices
		v.key = list[v.selected].Key()
		v.choice = choiceSettings
	}
	return Noop
}

func (v *SubscriptionsView) onChoicesKey(msg tea.KeyMsg) Request {
	switch {
	case key.Matches(msg, upBinding):
		v.choice = subscriptionChoice(moveUp(int(v.choice)))
	case key.Matches(msg, downBinding):
		v.choice = subscriptionChoice(moveDown(int(v.choice), len(subscriptionChoices)))
	case key.Matches(msg, selectBinding):
		v.stage = subscriptionsDetail
		v.row = 0
		v.parked = nil
		return Refresh
	case key.Matches(msg, backBinding):
		v.stage = subscriptionsMain
		v.key = ""
		return Refresh
	}
	return Noop
}

func (v *SubscriptionsView) onDetailKey(msg tea.KeyMsg) Request {
	switch {
	case key.Matches(msg, backBinding):
		v.stage = subscriptionsChoices
		v.parked = nil
		return Noop
	case key.Matches(msg, upBinding):
		v.row = moveUp(v.row)
	case key.Matches(msg, downBinding):
		v.row = moveDown(v.row, len(v.parked))
	}
	return Noop
}

func (v *SubscriptionsView) Keybindings() []key.Binding {
	switch v.stage {
	case subscriptionsChoices:
		return []key.Binding{upBinding, downBinding, selectBinding, backBinding}
	case subscriptionsDetail:
		if v.choice == choiceParked {
			return []key.Binding{upBinding, downBinding, backBinding}
		}
		return []key.Binding{backBinding}
	}
	return []key.Binding{upBinding, downBinding, selectBinding}
}
