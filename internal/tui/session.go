package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/esdbtop/internal/client"
	"github.com/rileyhilliard/esdbtop/internal/errors"
	"github.com/rileyhilliard/esdbtop/internal/logger"
)

// Default cadences. The tick only redraws; the refresh re-fetches the active view.
const (
	DefaultTickInterval    = 250 * time.Millisecond
	DefaultRefreshInterval = 2 * time.Second
)

// Fallback terminal size until the first WindowSizeMsg arrives.
const (
	defaultWidth  = 120
	defaultHeight = 40
)

// legendRows is how many bindings stack in one legend column.
const legendRows = 3

// FetchObserver is told about every completed fetch.
type FetchObserver interface {
	ObserveFetch(view string, took time.Duration, err error)
}

// Options configures a Session.
type Options struct {
	Source          client.Source
	Views           []View
	Logger          logger.Logger
	TickInterval    time.Duration
	RefreshInterval time.Duration
	Observer        FetchObserver
}

// tickMsg signals a periodic redraw.
type tickMsg time.Time

// refreshMsg signals that the active view should re-fetch.
type refreshMsg time.Time

// fetchResultMsg carries a finished fetch back to the UI goroutine.
type fetchResultMsg struct {
	view  int
	gen   uint64
	apply Apply
	err   error
}

// fetchSlot tracks the single fetch a view may have outstanding. gen is
// bumped on unload so results from before the unload are dropped.
type fetchSlot struct {
	gen      uint64
	inFlight bool
	queued   bool
	cancel   context.CancelFunc
}

// Session is the bubbletea model that owns the tabs, the error slot and the
// fetch scheduling. Views never talk to the Source directly.
type Session struct {
	src      client.Source
	views    []View
	slots    []fetchSlot
	log      logger.Logger
	observer FetchObserver

	tickInterval    time.Duration
	refreshInterval time.Duration

	active   int
	err      error
	showHelp bool
	quitting bool
	width    int
	height   int

	help help.Model
}

// NewSession creates the session model. It panics without views since there
// would be nothing to draw.
func NewSession(opts Options) *Session {
	if len(opts.Views) == 0 {
		panic("tui: session needs at least one view")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}

	h := help.New()
	h.Styles.FullKey = LegendKeyStyle
	h.Styles.FullDesc = LegendDescStyle

	return &Session{
		src:             opts.Source,
		views:           opts.Views,
		slots:           make([]fetchSlot, len(opts.Views)),
		log:             opts.Logger,
		observer:        opts.Observer,
		tickInterval:    opts.TickInterval,
		refreshInterval: opts.RefreshInterval,
		help:            h,
	}
}

// Init loads the first tab and starts both timers.
func (s *Session) Init() tea.Cmd {
	return tea.Batch(
		s.load(s.active),
		s.tickCmd(),
		s.refreshCmd(),
	)
}

// Update handles messages and returns the updated model.
func (s *Session) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return s, s.handleKey(msg)

	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		return s, nil

	case tickMsg:
		return s, s.tickCmd()

	case refreshMsg:
		return s, tea.Batch(s.refresh(s.active), s.refreshCmd())

	case fetchResultMsg:
		return s, s.finish(msg)
	}

	return s, nil
}

// handleKey applies the key rules in priority order: the error overlay,
// force quit, free-text stages, help, tab switching, view bindings, then q.
func (s *Session) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.err != nil {
		if k := msg.String(); k == KeyQuit || k == KeyQuitUpper {
			return s.quit()
		}
		return nil
	}

	if msg.String() == KeyForceQuit {
		return s.quit()
	}

	view := s.views[s.active]
	if capturing(view) {
		return s.dispatch(view.OnKey(msg))
	}

	if s.showHelp {
		switch msg.String() {
		case KeyToggleHelp, KeyBack:
			s.showHelp = false
		case KeyQuit, KeyQuitUpper:
			return s.quit()
		}
		return nil
	}

	switch {
	case key.Matches(msg, nextTabBinding):
		return s.switchTab(1)
	case key.Matches(msg, prevTabBinding):
		return s.switchTab(-1)
	case key.Matches(msg, helpBinding):
		s.showHelp = true
		return nil
	case bound(msg, view.Keybindings()):
		return s.dispatch(view.OnKey(msg))
	case key.Matches(msg, quitBinding):
		return s.quit()
	}

	return s.dispatch(view.OnKey(msg))
}

func (s *Session) dispatch(req Request) tea.Cmd {
	switch req {
	case Refresh:
		return s.refresh(s.active)
	case Exit:
		return s.quit()
	}
	return nil
}

func (s *Session) quit() tea.Cmd {
	s.quitting = true
	for i := range s.slots {
		if s.slots[i].cancel != nil {
			s.slots[i].cancel()
		}
	}
	return tea.Quit
}

// switchTab unloads the current view, moves with wrap-around and loads the
// new one.
func (s *Session) switchTab(delta int) tea.Cmd {
	s.unload(s.active)

	n := len(s.views)
	s.active = ((s.active+delta)%n + n) % n
	s.log.Debug("Switched to tab %q", s.views[s.active].Title())

	return s.load(s.active)
}

func (s *Session) unload(idx int) {
	s.views[idx].Unload()

	slot := &s.slots[idx]
	if slot.cancel != nil {
		slot.cancel()
	}
	slot.gen++
	slot.inFlight = false
	slot.queued = false
	slot.cancel = nil
}

func (s *Session) load(idx int) tea.Cmd {
	return s.start(idx, s.views[idx].Load())
}

func (s *Session) refresh(idx int) tea.Cmd {
	if s.slots[idx].inFlight {
		s.slots[idx].queued = true
		return nil
	}
	return s.start(idx, s.views[idx].Refresh())
}

// start runs f as a command unless the view already has a fetch outstanding,
// in which case one follow-up refresh is queued.
func (s *Session) start(idx int, f Fetch) tea.Cmd {
	if f == nil {
		return nil
	}

	slot := &s.slots[idx]
	if slot.inFlight {
		slot.queued = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	slot.inFlight = true
	slot.cancel = cancel

	gen := slot.gen
	src := s.src
	name := s.views[idx].Title()
	observer := s.observer

	return func() tea.Msg {
		defer cancel()

		started := time.Now()
		apply, err := f(ctx, src)
		if observer != nil {
			observer.ObserveFetch(name, time.Since(started), err)
		}

		return fetchResultMsg{view: idx, gen: gen, apply: apply, err: err}
	}
}

// finish applies a fetch result on the UI goroutine.
func (s *Session) finish(msg fetchResultMsg) tea.Cmd {
	slot := &s.slots[msg.view]
	if msg.gen != slot.gen {
		s.log.Debug("Dropping stale result for %q", s.views[msg.view].Title())
		return nil
	}

	slot.inFlight = false
	slot.cancel = nil

	if msg.err != nil {
		s.log.Error("Fetch for %q failed: %v", s.views[msg.view].Title(), msg.err)
		s.err = msg.err
	} else {
		if msg.apply != nil {
			msg.apply()
		}
		if s.err != nil {
			s.log.Info("Recovered after error")
		}
		s.err = nil
	}

	if slot.queued {
		slot.queued = false
		return s.start(msg.view, s.views[msg.view].Refresh())
	}
	return nil
}

func (s *Session) tickCmd() tea.Cmd {
	return tea.Tick(s.tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (s *Session) refreshCmd() tea.Cmd {
	return tea.Tick(s.refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Active returns the index of the selected tab.
func (s *Session) Active() int {
	return s.active
}

// Err returns the error currently shown, if any.
func (s *Session) Err() error {
	return s.err
}

// View renders the tab bar, the active view and the legend. The error box
// is laid over that frame; the help overlay replaces it.
func (s *Session) View() string {
	if s.quitting {
		return ""
	}

	width, height := s.size()

	bindings := s.bindings()
	if s.showHelp && s.err == nil {
		return renderHelpOverlay(bindings, width, height)
	}

	tabs := s.renderTabs(width)
	legend := s.renderLegend(bindings, width)

	bodyHeight := height - lipgloss.Height(tabs) - lipgloss.Height(legend)
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := s.views[s.active].Draw(width-2, bodyHeight)
	body = BodyStyle.
		Width(width).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		Render(body)

	frame := lipgloss.JoinVertical(lipgloss.Left, tabs, body, legend)
	if s.err != nil {
		return overlayCenter(frame, renderErrorBox(errorTitle(s.err), s.err, width), width, height)
	}
	return frame
}

func (s *Session) size() (int, int) {
	width, height := s.width, s.height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return width, height
}

// bindings merges the active view's bindings over the globals.
func (s *Session) bindings() []key.Binding {
	return mergeBindings(globalBindings(), s.views[s.active].Keybindings())
}

func (s *Session) renderTabs(width int) string {
	tabs := make([]string, len(s.views))
	for i, v := range s.views {
		if i == s.active {
			tabs[i] = TabActiveStyle.Render(v.Title())
		} else {
			tabs[i] = TabStyle.Render(v.Title())
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	inner := width - 4
	title := AppTitleStyle.Render(appTitle)
	if gap := inner - lipgloss.Width(line) - lipgloss.Width(title); gap > 0 {
		line += lipgloss.NewStyle().Width(gap).Render("") + title
	}

	return TabBarStyle.Width(width - 2).Render(line)
}

func (s *Session) renderLegend(bindings []key.Binding, width int) string {
	var columns [][]key.Binding
	for i := 0; i < len(bindings); i += legendRows {
		end := i + legendRows
		if end > len(bindings) {
			end = len(bindings)
		}
		columns = append(columns, bindings[i:end])
	}

	s.help.Width = width - 4
	return LegendStyle.Width(width - 2).Render(s.help.FullHelpView(columns))
}

// errorTitle names the overlay after the kind of failure.
func errorTitle(err error) string {
	switch {
	case errors.IsTransport(err):
		return "Connection error"
	case errors.IsMalformed(err):
		return "Unexpected payload"
	case errors.IsNotFound(err):
		return "Not found"
	default:
		return "Error"
	}
}
