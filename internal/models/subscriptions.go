package models

import (
	"math"
	"sort"

	"github.com/rileyhilliard/esdbtop/internal/client"
)

// Unknown marks a lag value that cannot be computed.
const Unknown = -1

// PersistentSubscription is one catalog entry.
type PersistentSubscription struct {
	StreamName            string
	GroupName             string
	Status                string
	AverageItemsPerSecond float64
	TotalItemsProcessed   int64
	ConnectionCount       int64
	InFlightMessages      int64
	LastKnown             *client.Cursor
	LastCheckpointed      *client.Cursor

	// BehindByMessages is a message count for named streams. For $all it is
	// 0 when caught up and Unknown otherwise.
	BehindByMessages int64
	// BehindByTime is the estimated catch-up time in seconds, Unknown for $all.
	BehindByTime float64

	Settings *client.SubscriptionSettings
}

// Key identifies the entry, "<stream>/<group>".
func (s PersistentSubscription) Key() string {
	return s.StreamName + "/" + s.GroupName
}

// PersistentSubscriptions keeps subscription groups across polls.
type PersistentSubscriptions struct {
	entries map[string]*PersistentSubscription
}

// NewPersistentSubscriptions creates an empty catalog.
func NewPersistentSubscriptions() *PersistentSubscriptions {
	return &PersistentSubscriptions{entries: make(map[string]*PersistentSubscription)}
}

// Update merges a listing into the catalog. Groups missing from the listing
// are dropped; settings fetched earlier survive.
func (p *PersistentSubscriptions) Update(snapshots []client.SubscriptionSnapshot) {
	seen := make(map[string]bool, len(snapshots))
	for _, s := range snapshots {
		key := s.Key()
		seen[key] = true

		entry, ok := p.entries[key]
		if !ok {
			entry = &PersistentSubscription{StreamName: s.StreamName, GroupName: s.GroupName}
			p.entries[key] = entry
		}

		entry.Status = s.Status
		entry.AverageItemsPerSecond = s.AverageItemsPerSecond
		entry.TotalItemsProcessed = s.TotalItemsProcessed
		entry.ConnectionCount = s.ConnectionCount
		entry.InFlightMessages = s.InFlightMessages
		entry.LastKnown = s.LastKnown
		entry.LastCheckpointed = s.LastCheckpointed
		entry.BehindByMessages, entry.BehindByTime = BehindBy(s)
	}

	for key := range p.entries {
		if !seen[key] {
			delete(p.entries, key)
		}
	}
}

// BehindBy computes how far a group's checkpoint trails the stream. Missing
// revisions count as 0.
func BehindBy(s client.SubscriptionSnapshot) (messages int64, seconds float64) {
	if s.StreamName == client.AllStream {
		if s.LastKnown.Equal(s.LastCheckpointed) {
			return 0, Unknown
		}
		return Unknown, Unknown
	}

	messages = revision(s.LastKnown) - revision(s.LastCheckpointed) + 1
	seconds = math.Round(float64(messages)/s.AverageItemsPerSecond*100) / 100
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	return messages, seconds
}

func revision(c *client.Cursor) int64 {
	if c == nil || c.Global {
		return 0
	}
	return c.Revision
}

// List returns a copy of the catalog ordered by key.
func (p *PersistentSubscriptions) List() []PersistentSubscription {
	out := make([]PersistentSubscription, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Get returns a copy of one entry.
func (p *PersistentSubscriptions) Get(key string) (PersistentSubscription, bool) {
	e, ok := p.entries[key]
	if !ok {
		return PersistentSubscription{}, false
	}
	return *e, true
}

// Count returns the number of groups.
func (p *PersistentSubscriptions) Count() int {
	return len(p.entries)
}

// SetSettings attaches settings to an entry. Unknown keys are ignored.
func (p *PersistentSubscriptions) SetSettings(key string, s *client.SubscriptionSettings) {
	if e, ok := p.entries[key]; ok {
		e.Settings = s
	}
}
