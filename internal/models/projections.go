package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/rileyhilliard/esdbtop/internal/client"
	"github.com/rileyhilliard/esdbtop/internal/errors"
)

// ProjectionUpdatedEvent is the event type carrying a projection's definition.
const ProjectionUpdatedEvent = "$ProjectionUpdated"

// minRateInterval is the smallest gap between two updates that yields a new rate.
const minRateInterval = time.Millisecond

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// Projection is one catalog entry. Rate is only meaningful when HasRate is set.
type Projection struct {
	Name                 string
	Status               string
	Mode                 string
	Progress             float64
	EventsProcessed      int64
	Rate                 float64
	HasRate              bool
	BufferedEvents       int64
	PartitionsCached     int64
	ReadsInProgress      int64
	WritesInProgress     int64
	WriteQueue           int64
	WriteQueueCheckpoint int64
	CheckpointStatus     string
	Position             string
	LastCheckpoint       string

	// Loaded on demand for the detail screen.
	Query  string
	State  string
	Result string
}

// Projections keeps projections across polls so rates can be derived.
type Projections struct {
	clock    Clock
	start    time.Time
	entries  map[string]*Projection
	previous map[string]client.ProjectionSnapshot
	last     time.Duration
	hasLast  bool
}

// NewProjections creates an empty catalog. A nil clock means time.Now.
func NewProjections(clock Clock) *Projections {
	if clock == nil {
		clock = time.Now
	}
	return &Projections{
		clock:    clock,
		start:    clock(),
		entries:  make(map[string]*Projection),
		previous: make(map[string]client.ProjectionSnapshot),
	}
}

// Update merges a listing into the catalog. The clock is sampled once per call
// so every projection in a batch shares the same interval. Projections missing
// from the listing are dropped.
func (p *Projections) Update(snapshots []client.ProjectionSnapshot) {
	now := p.clock().Sub(p.start)
	last := now
	if p.hasLast {
		last = p.last
	}
	elapsed := now - last

	seen := make(map[string]bool, len(snapshots))
	for _, s := range snapshots {
		seen[s.Name] = true

		entry, ok := p.entries[s.Name]
		if !ok {
			entry = &Projection{Name: s.Name}
			p.entries[s.Name] = entry
		}

		if prev, ok := p.previous[s.Name]; ok && elapsed >= minRateInterval {
			delta := s.EventsProcessedAfterRestart - prev.EventsProcessedAfterRestart
			entry.Rate = float64(delta) / elapsed.Seconds()
			entry.HasRate = true
		}

		entry.Status = s.Status
		entry.Mode = s.Mode
		entry.Progress = s.Progress
		entry.EventsProcessed = s.EventsProcessedAfterRestart
		entry.BufferedEvents = s.BufferedEvents
		entry.PartitionsCached = s.PartitionsCached
		entry.ReadsInProgress = s.ReadsInProgress
		entry.WritesInProgress = s.WritesInProgress
		entry.WriteQueue = s.WritePendingEventsBeforeCheckpoint
		entry.WriteQueueCheckpoint = s.WritePendingEventsAfterCheckpoint
		entry.CheckpointStatus = s.CheckpointStatus
		entry.Position = s.Position
		entry.LastCheckpoint = s.LastCheckpoint

		p.previous[s.Name] = s
	}

	for name := range p.entries {
		if !seen[name] {
			delete(p.entries, name)
			delete(p.previous, name)
		}
	}

	p.last = now
	p.hasLast = true
}

// List returns a copy of the catalog ordered by name.
func (p *Projections) List() []Projection {
	out := make([]Projection, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns a copy of one entry.
func (p *Projections) Get(name string) (Projection, bool) {
	e, ok := p.entries[name]
	if !ok {
		return Projection{}, false
	}
	return *e, true
}

// ByIndex returns the entry at position idx of List.
func (p *Projections) ByIndex(idx int) (Projection, bool) {
	list := p.List()
	if idx < 0 || idx >= len(list) {
		return Projection{}, false
	}
	return list[idx], true
}

// Count returns the number of projections.
func (p *Projections) Count() int {
	return len(p.entries)
}

// SetDetail attaches the on-demand fields to an entry. Unknown names are ignored.
func (p *Projections) SetDetail(name, query, state, result string) {
	if e, ok := p.entries[name]; ok {
		e.Query = query
		e.State = state
		e.Result = result
	}
}

// QueryFromEvents finds the newest $ProjectionUpdated event in a newest-first
// read of a projection's metadata stream and returns its query text.
func QueryFromEvents(events []client.Event) (string, error) {
	for _, ev := range events {
		if ev.EventType != ProjectionUpdatedEvent {
			continue
		}
		var body struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(ev.Data, &body); err != nil {
			return "", errors.Malformed(err, "projection definition")
		}
		return body.Query, nil
	}
	return "", errors.NotFound("projection definition")
}
