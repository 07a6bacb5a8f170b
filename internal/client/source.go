// Package client talks to an EventStoreDB node over its HTTP API and exposes
// the typed snapshots the dashboard renders.
package client

import (
	"context"
	"fmt"
	"time"
)

// AllStream is the name of the global log.
const AllStream = "$all"

// Source is everything the dashboard needs from a cluster node. Each method is
// one attempt; callers decide whether to try again on the next refresh.
type Source interface {
	// Stats returns the node's stats blob flattened into dash-joined keys.
	Stats(ctx context.Context) (map[string]string, error)
	// Gossip returns the cluster membership as seen by the node.
	Gossip(ctx context.Context) ([]Member, error)
	// ServerVersion returns the node's reported version string.
	ServerVersion(ctx context.Context) (string, error)
	// ReadStream reads events from a named stream. A missing stream is a NotFound error.
	ReadStream(ctx context.Context, name string, opts ReadOptions) ([]Event, error)
	// ReadAll reads events from the global log.
	ReadAll(ctx context.Context, opts ReadOptions) ([]Event, error)
	ListProjections(ctx context.Context) ([]ProjectionSnapshot, error)
	// ProjectionState returns the raw state document of a projection.
	ProjectionState(ctx context.Context, name string) (string, error)
	// ProjectionResult returns the raw result document of a projection.
	ProjectionResult(ctx context.Context, name string) (string, error)
	ListPersistentSubscriptions(ctx context.Context) ([]SubscriptionSnapshot, error)
	SubscriptionSettings(ctx context.Context, stream, group string) (*SubscriptionSettings, error)
}

// Member is one node in the gossip listing.
type Member struct {
	InstanceID       string
	Role             string
	Alive            bool
	Epoch            int64
	WriterCheckpoint int64
	ChaserCheckpoint int64
	HTTPEndpoint     string
}

// IsLeader reports whether the member currently holds the leader role.
func (m Member) IsLeader() bool {
	return m.Role == "Leader"
}

// ReadOptions shapes a stream read.
type ReadOptions struct {
	MaxCount int
	// From is the event number the read starts at unless FromEnd is set.
	// It is ignored for $all.
	From           int64
	FromEnd        bool
	Backwards      bool
	ResolveLinkTos bool
}

// LatestOptions reads the newest n events, newest first.
func LatestOptions(n int) ReadOptions {
	return ReadOptions{MaxCount: n, FromEnd: true, Backwards: true}
}

// BackwardsFrom reads up to n events, newest first, starting at event number from.
func BackwardsFrom(from int64, n int) ReadOptions {
	return ReadOptions{MaxCount: n, From: from, Backwards: true}
}

// Event is a single recorded event. For resolved links StreamID and
// EventNumber refer to the link target.
type Event struct {
	StreamID    string
	EventNumber int64
	EventType   string
	EventID     string
	IsJSON      bool
	Data        []byte
	Metadata    []byte
	Created     time.Time
}

// ProjectionSnapshot is one entry of the projections listing.
type ProjectionSnapshot struct {
	Name                               string
	Status                             string
	Mode                               string
	CheckpointStatus                   string
	Position                           string
	LastCheckpoint                     string
	Progress                           float64
	EventsProcessedAfterRestart        int64
	BufferedEvents                     int64
	PartitionsCached                   int64
	ReadsInProgress                    int64
	WritesInProgress                   int64
	WritePendingEventsBeforeCheckpoint int64
	WritePendingEventsAfterCheckpoint  int64
}

// Cursor is either a stream revision or, for subscriptions to $all, a
// commit/prepare position in the global log.
type Cursor struct {
	Global   bool
	Revision int64
	Commit   int64
	Prepare  int64
}

// Revision returns a stream-revision cursor.
func Revision(rev int64) *Cursor {
	return &Cursor{Revision: rev}
}

// Position returns a global-log cursor.
func Position(commit, prepare int64) *Cursor {
	return &Cursor{Global: true, Commit: commit, Prepare: prepare}
}

func (c *Cursor) String() string {
	if c == nil {
		return "0"
	}
	if c.Global {
		return fmt.Sprintf("C:%d/P:%d", c.Commit, c.Prepare)
	}
	return fmt.Sprintf("%d", c.Revision)
}

// Equal compares two cursors; nil equals nil only.
func (c *Cursor) Equal(o *Cursor) bool {
	if c == nil || o == nil {
		return c == nil && o == nil
	}
	return *c == *o
}

// SubscriptionSnapshot is one entry of the persistent subscriptions listing.
type SubscriptionSnapshot struct {
	StreamName            string
	GroupName             string
	Status                string
	AverageItemsPerSecond float64
	TotalItemsProcessed   int64
	ConnectionCount       int64
	InFlightMessages      int64
	LastKnown             *Cursor
	LastCheckpointed      *Cursor
}

// Key identifies a subscription in the catalog.
func (s SubscriptionSnapshot) Key() string {
	return s.StreamName + "/" + s.GroupName
}

// SubscriptionSettings is the configuration of one persistent subscription group.
type SubscriptionSettings struct {
	BufferSize         int64
	CheckPointAfterMs  int64
	ExtraStatistics    bool
	LiveBufferSize     int64
	MaxCheckPointCount int64
	MaxRetryCount      int64
	MessageTimeoutMs   int64
	MinCheckPointCount int64
	ConsumerStrategy   string
	ReadBatchSize      int64
	ResolveLinkTos     bool
	StartFrom          string
	MaxSubscriberCount int64
}

// ParkedStream is the stream holding parked messages for a subscription group.
func ParkedStream(stream, group string) string {
	return "$persistentsubscription-" + stream + "::" + group + "-parked"
}

// ProjectionStream is the metadata stream of a projection.
func ProjectionStream(name string) string {
	return "$projections-" + name
}
