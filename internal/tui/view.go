package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/esdbtop/internal/client"
)

// Request is what a view asks of the session after handling a key.
type Request int

const (
	// Noop asks for nothing beyond a redraw.
	Noop Request = iota
	// Refresh asks the session to fetch data for the view's current stage now.
	Refresh
	// Exit asks the session to quit.
	Exit
)

func (r Request) String() string {
	switch r {
	case Refresh:
		return "refresh"
	case Exit:
		return "exit"
	default:
		return "noop"
	}
}

// Apply folds a completed fetch into a view. The session only runs it on the
// UI goroutine, and only if the view has not been unloaded since.
type Apply func()

// Fetch performs the remote calls for one load or refresh. It runs off the UI
// goroutine, so it must only read values captured when it was built and
// leave every mutation to the returned Apply.
type Fetch func(ctx context.Context, src client.Source) (Apply, error)

// View is one dashboard tab. Draw and OnKey never fail; everything that can
// fail lives in the Fetch values returned by Load and Refresh. A nil Fetch
// means there is nothing to fetch.
type View interface {
	Title() string
	Load() Fetch
	Unload()
	Refresh() Fetch
	Draw(width, height int) string
	OnKey(msg tea.KeyMsg) Request
	Keybindings() []key.Binding
}

// inputCapturer is implemented by views whose current stage takes free text.
// While capturing, every key except the force-quit chord goes to the view.
type inputCapturer interface {
	CapturingInput() bool
}

func capturing(v View) bool {
	c, ok := v.(inputCapturer)
	return ok && c.CapturingInput()
}
