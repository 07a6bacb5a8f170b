// Package tui implements the interactive esdbtop dashboard.
//
// The dashboard is a set of tabs, one View per concern, driven by a single
// Session model on the Bubble Tea framework.
//
// # Architecture
//
// Session follows the Elm Architecture:
//
//   - Model: the tabs, the active index, the error slot and one fetch slot per view
//   - Update: keys, window sizes, the redraw tick, the refresh tick and fetch results
//   - View: the tab bar, the active view, the legend, or an overlay
//
// # Key Components
//
//	Session            - Owns the views and schedules every remote call
//	DashboardView      - Internal work queues of the node
//	StreamsView        - Recently created/changed streams, events and payloads
//	ProjectionsView    - Projection listing with derived rates, plus a detail screen
//	SubscriptionsView  - Persistent subscription groups, settings and parked messages
//	MonitoringView     - Cluster health charts and counters for the whole session
//
// # Fetch Flow
//
// Views never call the client themselves. Load and Refresh return a Fetch:
//
//  1. the Session runs the Fetch in a command, off the UI goroutine
//  2. the Fetch calls the Source and returns an Apply closure
//  3. a fetchResultMsg carries the Apply back to Update
//  4. the Session runs Apply unless the view was unloaded meanwhile
//
// A view has at most one fetch outstanding. A refresh asked for while one is
// running is queued and started once the result arrives; further requests
// collapse into it. Unloading a view cancels its context and drops the result.
//
// # Errors
//
// A failed fetch fills the error slot and the overlay replaces the screen.
// While it is shown only q quits. The next successful fetch clears it.
package tui
