// Package testing provides test doubles for the client package.
package testing

import (
	"context"
	"sync"

	"github.com/rileyhilliard/esdbtop/internal/client"
	"github.com/rileyhilliard/esdbtop/internal/errors"
)

// FakeSource is a scripted, in-memory client.Source. Zero values answer with
// empty results; Fail makes a method return an error until it is cleared.
type FakeSource struct {
	mu sync.Mutex

	stats         map[string]string
	gossip        []client.Member
	version       string
	streams       map[string][]client.Event // oldest first
	all           []client.Event            // oldest first
	projections   []client.ProjectionSnapshot
	states        map[string]string
	results       map[string]string
	subscriptions []client.SubscriptionSnapshot
	settings      map[string]*client.SubscriptionSettings
	failures      map[string]error

	// Calls records every method invocation, e.g. "ReadStream:$streams".
	Calls []string
}

var _ client.Source = (*FakeSource)(nil)

// NewFakeSource creates an empty fake.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		stats:    make(map[string]string),
		streams:  make(map[string][]client.Event),
		states:   make(map[string]string),
		results:  make(map[string]string),
		settings: make(map[string]*client.SubscriptionSettings),
		failures: make(map[string]error),
	}
}

// SetStats replaces the stats blob.
func (f *FakeSource) SetStats(stats map[string]string) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = stats
	return f
}

// SetGossip replaces the membership listing.
func (f *FakeSource) SetGossip(members ...client.Member) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gossip = members
	return f
}

// SetVersion sets the reported server version.
func (f *FakeSource) SetVersion(v string) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = v
	return f
}

// AppendEvents appends events to a stream, oldest first. Events also land in
// $all unless the stream is a system stream.
func (f *FakeSource) AppendEvents(stream string, events ...client.Event) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range events {
		if ev.StreamID == "" {
			ev.StreamID = stream
		}
		ev.EventNumber = int64(len(f.streams[stream]))
		f.streams[stream] = append(f.streams[stream], ev)
		if len(stream) == 0 || stream[0] != '$' {
			f.all = append(f.all, ev)
		}
	}
	return f
}

// SetProjections replaces the projection listing.
func (f *FakeSource) SetProjections(p ...client.ProjectionSnapshot) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projections = p
	return f
}

// SetProjectionState sets the state and result documents of a projection.
func (f *FakeSource) SetProjectionState(name, state, result string) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[name] = state
	f.results[name] = result
	return f
}

// SetSubscriptions replaces the persistent subscription listing.
func (f *FakeSource) SetSubscriptions(s ...client.SubscriptionSnapshot) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions = s
	return f
}

// SetSettings sets the settings of one subscription group.
func (f *FakeSource) SetSettings(stream, group string, s *client.SubscriptionSettings) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[stream+"/"+group] = s
	return f
}

// Fail makes the named method ("Stats", "Gossip", "ReadStream", ...) return
// err. Passing a nil err clears the failure.
func (f *FakeSource) Fail(method string, err error) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, method)
	} else {
		f.failures[method] = err
	}
	return f
}

// CallCount returns how many times a call label was recorded.
func (f *FakeSource) CallCount(label string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == label {
			n++
		}
	}
	return n
}

// record notes the call and returns the scripted failure for method, if any.
func (f *FakeSource) record(method, label string) error {
	f.Calls = append(f.Calls, label)
	return f.failures[method]
}

func (f *FakeSource) Stats(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Stats", "Stats"); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(f.stats))
	for k, v := range f.stats {
		out[k] = v
	}
	return out, nil
}

func (f *FakeSource) Gossip(ctx context.Context) ([]client.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Gossip", "Gossip"); err != nil {
		return nil, err
	}
	return append([]client.Member(nil), f.gossip...), nil
}

func (f *FakeSource) ServerVersion(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ServerVersion", "ServerVersion"); err != nil {
		return "", err
	}
	return f.version, nil
}

func (f *FakeSource) ReadStream(ctx context.Context, name string, opts client.ReadOptions) ([]client.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ReadStream", "ReadStream:"+name); err != nil {
		return nil, err
	}
	events, ok := f.streams[name]
	if !ok {
		return nil, errors.NotFound("stream " + name)
	}
	return page(events, opts, true), nil
}

func (f *FakeSource) ReadAll(ctx context.Context, opts client.ReadOptions) ([]client.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ReadAll", "ReadAll"); err != nil {
		return nil, err
	}
	return page(f.all, opts, false), nil
}

// page applies start, direction and count to an oldest-first slice. Stream
// slices are indexed by event number, so positional reads honor opts.From.
func page(events []client.Event, opts client.ReadOptions, positional bool) []client.Event {
	first, last := 0, len(events)-1
	if positional && !opts.FromEnd {
		if opts.Backwards {
			last = int(min(opts.From, int64(last)))
		} else {
			first = int(max(opts.From, 0))
		}
	}

	n := opts.MaxCount
	if n <= 0 {
		n = len(events)
	}
	out := make([]client.Event, 0)
	if opts.Backwards {
		for i := last; i >= 0 && len(out) < n; i-- {
			out = append(out, events[i])
		}
		return out
	}
	for i := first; i < len(events) && len(out) < n; i++ {
		out = append(out, events[i])
	}
	return out
}

func (f *FakeSource) ListProjections(ctx context.Context) ([]client.ProjectionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListProjections", "ListProjections"); err != nil {
		return nil, err
	}
	return append([]client.ProjectionSnapshot(nil), f.projections...), nil
}

func (f *FakeSource) ProjectionState(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ProjectionState", "ProjectionState:"+name); err != nil {
		return "", err
	}
	s, ok := f.states[name]
	if !ok {
		return "", errors.NotFound("projection " + name)
	}
	return s, nil
}

func (f *FakeSource) ProjectionResult(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ProjectionResult", "ProjectionResult:"+name); err != nil {
		return "", err
	}
	r, ok := f.results[name]
	if !ok {
		return "", errors.NotFound("projection " + name)
	}
	return r, nil
}

func (f *FakeSource) ListPersistentSubscriptions(ctx context.Context) ([]client.SubscriptionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListPersistentSubscriptions", "ListPersistentSubscriptions"); err != nil {
		return nil, err
	}
	return append([]client.SubscriptionSnapshot(nil), f.subscriptions...), nil
}

func (f *FakeSource) SubscriptionSettings(ctx context.Context, stream, group string) (*client.SubscriptionSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := stream + "/" + group
	if err := f.record("SubscriptionSettings", "SubscriptionSettings:"+key); err != nil {
		return nil, err
	}
	s, ok := f.settings[key]
	if !ok {
		return nil, errors.NotFound("settings for " + key)
	}
	copied := *s
	return &copied, nil
}
