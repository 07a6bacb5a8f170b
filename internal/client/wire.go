package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/rileyhilliard/esdbtop/internal/errors"
)

type gossipDoc struct {
	Members []memberDoc `json:"members"`
}

type memberDoc struct {
	InstanceID       string `json:"instanceId"`
	State            string `json:"state"`
	IsAlive          bool   `json:"isAlive"`
	EpochNumber      int64  `json:"epochNumber"`
	WriterCheckpoint int64  `json:"writerCheckpoint"`
	ChaserCheckpoint int64  `json:"chaserCheckpoint"`
	HTTPEndPointIP   string `json:"httpEndPointIp"`
	HTTPEndPointPort int    `json:"httpEndPointPort"`
}

func (m memberDoc) member() Member {
	endpoint := ""
	if m.HTTPEndPointIP != "" {
		endpoint = fmt.Sprintf("%s:%d", m.HTTPEndPointIP, m.HTTPEndPointPort)
	}
	return Member{
		InstanceID:       m.InstanceID,
		Role:             m.State,
		Alive:            m.IsAlive,
		Epoch:            m.EpochNumber,
		WriterCheckpoint: m.WriterCheckpoint,
		ChaserCheckpoint: m.ChaserCheckpoint,
		HTTPEndpoint:     endpoint,
	}
}

type atomFeed struct {
	Entries []atomEntry `json:"entries"`
}

type atomEntry struct {
	EventID             string          `json:"eventId"`
	EventType           string          `json:"eventType"`
	EventNumber         int64           `json:"eventNumber"`
	StreamID            string          `json:"streamId"`
	IsJSON              bool            `json:"isJson"`
	Data                json.RawMessage `json:"data"`
	MetaData            json.RawMessage `json:"metaData"`
	Updated             string          `json:"updated"`
	PositionStreamID    string          `json:"positionStreamId"`
	PositionEventNumber *int64          `json:"positionEventNumber"`
}

// event converts a feed entry. Without link resolution the entry is the link
// itself, so the position fields win over the target fields.
func (e atomEntry) event(resolved bool) (Event, error) {
	data, err := rawPayload(e.Data)
	if err != nil {
		return Event{}, errors.Malformed(err, "event data")
	}
	meta, err := rawPayload(e.MetaData)
	if err != nil {
		return Event{}, errors.Malformed(err, "event metadata")
	}

	ev := Event{
		StreamID:    e.StreamID,
		EventNumber: e.EventNumber,
		EventType:   e.EventType,
		EventID:     e.EventID,
		IsJSON:      e.IsJSON,
		Data:        data,
		Metadata:    meta,
	}
	if !resolved && e.PositionStreamID != "" {
		ev.StreamID = e.PositionStreamID
		if e.PositionEventNumber != nil {
			ev.EventNumber = *e.PositionEventNumber
		}
	}
	if e.Updated != "" {
		if t, err := dateparse.ParseAny(e.Updated); err == nil {
			ev.Created = t.UTC()
		}
	}
	return ev, nil
}

// rawPayload unwraps a body that the feed embeds either as a JSON string or
// as an inline JSON document.
func rawPayload(raw json.RawMessage) ([]byte, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return []byte(trimmed), nil
}

type projectionDoc struct {
	Name                               string  `json:"name"`
	Status                             string  `json:"status"`
	Mode                               string  `json:"mode"`
	CheckpointStatus                   string  `json:"checkpointStatus"`
	Position                           string  `json:"position"`
	LastCheckpoint                     string  `json:"lastCheckpoint"`
	Progress                           float64 `json:"progress"`
	EventsProcessedAfterRestart        int64   `json:"eventsProcessedAfterRestart"`
	BufferedEvents                     int64   `json:"bufferedEvents"`
	PartitionsCached                   int64   `json:"partitionsCached"`
	ReadsInProgress                    int64   `json:"readsInProgress"`
	WritesInProgress                   int64   `json:"writesInProgress"`
	WritePendingEventsBeforeCheckpoint int64   `json:"writePendingEventsBeforeCheckpoint"`
	WritePendingEventsAfterCheckpoint  int64   `json:"writePendingEventsAfterCheckpoint"`
}

func (p projectionDoc) snapshot() ProjectionSnapshot {
	return ProjectionSnapshot(p)
}

type subscriptionDoc struct {
	EventStreamID                 string  `json:"eventStreamId"`
	GroupName                     string  `json:"groupName"`
	Status                        string  `json:"status"`
	AverageItemsPerSecond         float64 `json:"averageItemsPerSecond"`
	TotalItemsProcessed           int64   `json:"totalItemsProcessed"`
	ConnectionCount               int64   `json:"connectionCount"`
	TotalInFlightMessages         int64   `json:"totalInFlightMessages"`
	LastKnownEventNumber          *int64  `json:"lastKnownEventNumber"`
	LastProcessedEventNumber      *int64  `json:"lastProcessedEventNumber"`
	LastKnownEventPosition        *string `json:"lastKnownEventPosition"`
	LastCheckpointedEventPosition *string `json:"lastCheckpointedEventPosition"`
}

func (d subscriptionDoc) snapshot() (SubscriptionSnapshot, error) {
	global := d.EventStreamID == AllStream

	known, err := pickCursor(d.LastKnownEventPosition, d.LastKnownEventNumber, global)
	if err != nil {
		return SubscriptionSnapshot{}, err
	}
	checkpointed, err := pickCursor(d.LastCheckpointedEventPosition, d.LastProcessedEventNumber, global)
	if err != nil {
		return SubscriptionSnapshot{}, err
	}

	return SubscriptionSnapshot{
		StreamName:            d.EventStreamID,
		GroupName:             d.GroupName,
		Status:                d.Status,
		AverageItemsPerSecond: d.AverageItemsPerSecond,
		TotalItemsProcessed:   d.TotalItemsProcessed,
		ConnectionCount:       d.ConnectionCount,
		InFlightMessages:      d.TotalInFlightMessages,
		LastKnown:             known,
		LastCheckpointed:      checkpointed,
	}, nil
}

// pickCursor prefers the textual position newer servers report and falls
// back to the numeric event number older ones use.
func pickCursor(text *string, number *int64, global bool) (*Cursor, error) {
	if text != nil && *text != "" {
		c, err := ParseCursor(*text, global)
		if err != nil {
			return nil, errors.Malformed(err, "subscription position")
		}
		return c, nil
	}
	if number != nil && !global {
		return Revision(*number), nil
	}
	return nil, nil
}

// ParseCursor parses "C:<commit>/P:<prepare>" for the global log and a plain
// revision number otherwise.
func ParseCursor(s string, global bool) (*Cursor, error) {
	if !global {
		rev, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid revision %q: %w", s, err)
		}
		return Revision(rev), nil
	}

	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || !strings.HasPrefix(parts[0], "C:") || !strings.HasPrefix(parts[1], "P:") {
		return nil, fmt.Errorf("invalid position %q", s)
	}
	commit, err := strconv.ParseInt(strings.TrimPrefix(parts[0], "C:"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid commit in %q: %w", s, err)
	}
	prepare, err := strconv.ParseInt(strings.TrimPrefix(parts[1], "P:"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid prepare in %q: %w", s, err)
	}
	return Position(commit, prepare), nil
}

type settingsDoc struct {
	BufferSize                  int64           `json:"bufferSize"`
	CheckPointAfterMilliseconds int64           `json:"checkPointAfterMilliseconds"`
	ExtraStatistics             bool            `json:"extraStatistics"`
	LiveBufferSize              int64           `json:"liveBufferSize"`
	MaxCheckPointCount          int64           `json:"maxCheckPointCount"`
	MaxRetryCount               int64           `json:"maxRetryCount"`
	MessageTimeoutMilliseconds  int64           `json:"messageTimeoutMilliseconds"`
	MinCheckPointCount          int64           `json:"minCheckPointCount"`
	NamedConsumerStrategy       string          `json:"namedConsumerStrategy"`
	ReadBatchSize               int64           `json:"readBatchSize"`
	ResolveLinkTos              bool            `json:"resolveLinktos"`
	StartFrom                   json.RawMessage `json:"startFrom"`
	StartPosition               string          `json:"startPosition"`
	MaxSubscriberCount          int64           `json:"maxSubscriberCount"`
}

func (d settingsDoc) settings() *SubscriptionSettings {
	start := d.StartPosition
	if start == "" {
		if s, err := rawPayload(d.StartFrom); err == nil {
			start = string(s)
		}
	}
	return &SubscriptionSettings{
		BufferSize:         d.BufferSize,
		CheckPointAfterMs:  d.CheckPointAfterMilliseconds,
		ExtraStatistics:    d.ExtraStatistics,
		LiveBufferSize:     d.LiveBufferSize,
		MaxCheckPointCount: d.MaxCheckPointCount,
		MaxRetryCount:      d.MaxRetryCount,
		MessageTimeoutMs:   d.MessageTimeoutMilliseconds,
		MinCheckPointCount: d.MinCheckPointCount,
		ConsumerStrategy:   d.NamedConsumerStrategy,
		ReadBatchSize:      d.ReadBatchSize,
		ResolveLinkTos:     d.ResolveLinkTos,
		StartFrom:          start,
		MaxSubscriberCount: d.MaxSubscriberCount,
	}
}
