package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rileyhilliard/esdbtop/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...func(*Options)) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	o := Options{Endpoint: srv.URL, Timeout: 2 * time.Second}
	for _, fn := range opts {
		fn(&o)
	}
	c, err := NewHTTPClient(o)
	require.NoError(t, err)
	return c
}

func TestNewHTTPClient_InvalidEndpoint(t *testing.T) {
	_, err := NewHTTPClient(Options{Endpoint: "not a url"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestStats_Flattens(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"proc": {"cpu": 12.5, "diskIo": {"writtenBytes": 1024}},
			"sys": {"freeMem": 2048, "drive": {"/data": {"usage": "10%"}}},
			"es": {"queue": {"Index Committer": {"avgItemsPerSecond": 0, "inProgressMessage": "<none>"}}},
			"flags": [true, null]
		}`))
	})

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "12.5", stats["proc-cpu"])
	assert.Equal(t, "1024", stats["proc-diskIo-writtenBytes"])
	assert.Equal(t, "2048", stats["sys-freeMem"])
	assert.Equal(t, "10%", stats["sys-drive-/data-usage"])
	assert.Equal(t, "0", stats["es-queue-Index Committer-avgItemsPerSecond"])
	assert.Equal(t, "<none>", stats["es-queue-Index Committer-inProgressMessage"])
	assert.Equal(t, "true", stats["flags-0"])
	assert.Equal(t, "", stats["flags-1"])
}

func TestStats_Malformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := c.Stats(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsMalformed(err))
}

func TestGossip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gossip", r.URL.Path)
		_, _ = w.Write([]byte(`{"members": [
			{"instanceId": "a", "state": "Leader", "isAlive": true, "epochNumber": 3,
			 "writerCheckpoint": 100, "chaserCheckpoint": 100, "httpEndPointIp": "10.0.0.1", "httpEndPointPort": 2113},
			{"instanceId": "b", "state": "Follower", "isAlive": false, "epochNumber": 3, "writerCheckpoint": 90}
		]}`))
	})

	members, err := c.Gossip(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.Equal(t, Member{
		InstanceID: "a", Role: "Leader", Alive: true, Epoch: 3,
		WriterCheckpoint: 100, ChaserCheckpoint: 100, HTTPEndpoint: "10.0.0.1:2113",
	}, members[0])
	assert.True(t, members[0].IsLeader())
	assert.False(t, members[1].IsLeader())
	assert.False(t, members[1].Alive)
	assert.Empty(t, members[1].HTTPEndpoint)
}

func TestServerVersion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/info", r.URL.Path)
		_, _ = w.Write([]byte(`{"esVersion": "23.10.1.0", "state": "leader"}`))
	})

	v, err := c.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "23.10.1.0", v)
}

func TestReadStream_Backwards(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streams/orders/head/backward/20", r.URL.Path)
		assert.Equal(t, "body", r.URL.Query().Get("embed"))
		assert.Equal(t, atomJSON, r.Header.Get("Accept"))
		assert.Equal(t, "true", r.Header.Get("ES-ResolveLinkTos"))
		_, _ = w.Write([]byte(`{"entries": [
			{"eventId": "e2", "eventType": "OrderShipped", "eventNumber": 1, "streamId": "orders",
			 "isJson": true, "data": "{\"id\":1}", "updated": "2024-03-01T10:00:00.123456Z"},
			{"eventId": "e1", "eventType": "OrderPlaced", "eventNumber": 0, "streamId": "orders",
			 "isJson": true, "data": {"id": 1}}
		]}`))
	})

	opts := LatestOptions(20)
	opts.ResolveLinkTos = true
	events, err := c.ReadStream(context.Background(), "orders", opts)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "OrderShipped", events[0].EventType)
	assert.Equal(t, int64(1), events[0].EventNumber)
	assert.Equal(t, `{"id":1}`, string(events[0].Data))
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC), events[0].Created)
	assert.Equal(t, `{"id": 1}`, string(events[1].Data))
	assert.True(t, events[1].Created.IsZero())
}

func TestReadStream_ForwardReordersOldestFirst(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streams/orders/0/forward/2", r.URL.Path)
		_, _ = w.Write([]byte(`{"entries": [
			{"eventId": "e2", "eventNumber": 1, "streamId": "orders"},
			{"eventId": "e1", "eventNumber": 0, "streamId": "orders"}
		]}`))
	})

	events, err := c.ReadStream(context.Background(), "orders", ReadOptions{MaxCount: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].EventID)
	assert.Equal(t, "e2", events[1].EventID)
}

func TestReadStream_BackwardsFromEventNumber(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streams/orders/149/backward/100", r.URL.Path)
		_, _ = w.Write([]byte(`{"entries": []}`))
	})

	events, err := c.ReadStream(context.Background(), "orders", BackwardsFrom(149, 100))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestGet_RejectsOversizeBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"esVersion": "23.10.1.0"}`))
	}, func(o *Options) { o.MaxBodyBytes = 8 })

	_, err := c.ServerVersion(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsMalformed(err))
	assert.Contains(t, err.Error(), "too large")
}

func TestGet_AcceptsBodyAtLimit(t *testing.T) {
	body := `{"esVersion": "1"}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}, func(o *Options) { o.MaxBodyBytes = int64(len(body)) })

	v, err := c.ServerVersion(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestReadStream_UnresolvedLinkUsesPosition(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.Header.Get("ES-ResolveLinkTos"))
		_, _ = w.Write([]byte(`{"entries": [
			{"eventType": "$>", "eventNumber": 0, "streamId": "orders", "data": "0@orders",
			 "positionStreamId": "$streams", "positionEventNumber": 7}
		]}`))
	})

	events, err := c.ReadStream(context.Background(), "$streams", LatestOptions(20))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "$streams", events[0].StreamID)
	assert.Equal(t, int64(7), events[0].EventNumber)
	assert.Equal(t, "0@orders", string(events[0].Data))
}

func TestReadStream_EscapesName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streams/my%20stream%2Fv2/head/backward/5", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"entries": []}`))
	})

	events, err := c.ReadStream(context.Background(), "my stream/v2", LatestOptions(5))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestReadAll(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streams/$all/head/backward/20", r.URL.Path)
		_, _ = w.Write([]byte(`{"entries": [{"streamId": "orders"}, {"streamId": "users"}]}`))
	})

	events, err := c.ReadAll(context.Background(), LatestOptions(20))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "orders", events[0].StreamID)
}

func TestGet_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{name: "404 is not found", status: http.StatusNotFound, check: errors.IsNotFound},
		{name: "410 is not found", status: http.StatusGone, check: errors.IsNotFound},
		{name: "401 is transport", status: http.StatusUnauthorized, check: errors.IsTransport},
		{name: "500 is transport", status: http.StatusInternalServerError, check: errors.IsTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := c.ReadStream(context.Background(), "missing", LatestOptions(20))
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestGet_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(Options{Endpoint: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Gossip(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestGet_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, func(o *Options) { o.Timeout = 50 * time.Millisecond })

	_, err := c.Stats(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestBasicAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "changeit", pass)
		_, _ = w.Write([]byte(`{"esVersion": "1"}`))
	}, func(o *Options) {
		o.Username = "admin"
		o.Password = "changeit"
	})

	_, err := c.ServerVersion(context.Background())
	require.NoError(t, err)
}

func TestListProjections(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projections/any", r.URL.Path)
		_, _ = w.Write([]byte(`{"projections": [{
			"name": "$by_category", "status": "Running", "mode": "Continuous",
			"checkpointStatus": "", "position": "$ce-x: 1", "lastCheckpoint": "C:0/P:-1",
			"progress": 100.0, "eventsProcessedAfterRestart": 42, "bufferedEvents": 1,
			"partitionsCached": 2, "readsInProgress": 3, "writesInProgress": 4,
			"writePendingEventsBeforeCheckpoint": 5, "writePendingEventsAfterCheckpoint": 6
		}]}`))
	})

	ps, err := c.ListProjections(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, ProjectionSnapshot{
		Name: "$by_category", Status: "Running", Mode: "Continuous",
		Position: "$ce-x: 1", LastCheckpoint: "C:0/P:-1", Progress: 100,
		EventsProcessedAfterRestart: 42, BufferedEvents: 1, PartitionsCached: 2,
		ReadsInProgress: 3, WritesInProgress: 4,
		WritePendingEventsBeforeCheckpoint: 5, WritePendingEventsAfterCheckpoint: 6,
	}, ps[0])
}

func TestProjectionStateAndResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projection/counter/state":
			_, _ = w.Write([]byte(`{"count":3}`))
		case "/projection/counter/result":
			_, _ = w.Write([]byte(`{"total":3}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	state, err := c.ProjectionState(context.Background(), "counter")
	require.NoError(t, err)
	assert.Equal(t, `{"count":3}`, state)

	result, err := c.ProjectionResult(context.Background(), "counter")
	require.NoError(t, err)
	assert.Equal(t, `{"total":3}`, result)

	_, err = c.ProjectionState(context.Background(), "nope")
	assert.True(t, errors.IsNotFound(err))
}

func TestListPersistentSubscriptions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"eventStreamId": "orders", "groupName": "billing", "status": "Live",
			 "averageItemsPerSecond": 5, "totalItemsProcessed": 100, "connectionCount": 2,
			 "totalInFlightMessages": 1, "lastKnownEventNumber": 100, "lastProcessedEventNumber": 95},
			{"eventStreamId": "$all", "groupName": "audit", "status": "Live",
			 "lastKnownEventPosition": "C:200/P:200", "lastCheckpointedEventPosition": "C:100/P:100"},
			{"eventStreamId": "users", "groupName": "mail", "lastCheckpointedEventPosition": "12"},
			{"eventStreamId": "empty", "groupName": "g"}
		]`))
	})

	subs, err := c.ListPersistentSubscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 4)

	assert.Equal(t, "orders/billing", subs[0].Key())
	assert.Equal(t, Revision(100), subs[0].LastKnown)
	assert.Equal(t, Revision(95), subs[0].LastCheckpointed)
	assert.Equal(t, int64(1), subs[0].InFlightMessages)
	assert.Equal(t, 5.0, subs[0].AverageItemsPerSecond)

	assert.Equal(t, Position(200, 200), subs[1].LastKnown)
	assert.Equal(t, Position(100, 100), subs[1].LastCheckpointed)

	assert.Nil(t, subs[2].LastKnown)
	assert.Equal(t, Revision(12), subs[2].LastCheckpointed)

	assert.Nil(t, subs[3].LastKnown)
	assert.Nil(t, subs[3].LastCheckpointed)
}

func TestListPersistentSubscriptions_BadPosition(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"eventStreamId": "$all", "groupName": "g", "lastKnownEventPosition": "garbage"}]`))
	})

	_, err := c.ListPersistentSubscriptions(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsMalformed(err))
}

func TestSubscriptionSettings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions/orders/billing/info", r.URL.Path)
		_, _ = w.Write([]byte(`{"config": {
			"resolveLinktos": true, "startFrom": 0, "messageTimeoutMilliseconds": 10000,
			"extraStatistics": false, "maxRetryCount": 10, "liveBufferSize": 500,
			"bufferSize": 500, "readBatchSize": 20, "checkPointAfterMilliseconds": 2000,
			"minCheckPointCount": 10, "maxCheckPointCount": 1000, "maxSubscriberCount": 0,
			"namedConsumerStrategy": "RoundRobin"
		}}`))
	})

	s, err := c.SubscriptionSettings(context.Background(), "orders", "billing")
	require.NoError(t, err)
	assert.Equal(t, &SubscriptionSettings{
		BufferSize: 500, CheckPointAfterMs: 2000, LiveBufferSize: 500,
		MaxCheckPointCount: 1000, MaxRetryCount: 10, MessageTimeoutMs: 10000,
		MinCheckPointCount: 10, ConsumerStrategy: "RoundRobin", ReadBatchSize: 20,
		ResolveLinkTos: true, StartFrom: "0",
	}, s)
}

func TestSubscriptionSettings_MissingConfig(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.SubscriptionSettings(context.Background(), "orders", "billing")
	assert.True(t, errors.IsNotFound(err))
}

func TestParseCursor(t *testing.T) {
	tests := []struct {
		in      string
		global  bool
		want    *Cursor
		wantErr bool
	}{
		{in: "42", want: Revision(42)},
		{in: " 7 ", want: Revision(7)},
		{in: "C:10/P:9", global: true, want: Position(10, 9)},
		{in: "x", wantErr: true},
		{in: "C:10", global: true, wantErr: true},
		{in: "C:a/P:1", global: true, wantErr: true},
		{in: "C:1/P:b", global: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCursor(tt.in, tt.global)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCursor_StringAndEqual(t *testing.T) {
	var none *Cursor
	assert.Equal(t, "0", none.String())
	assert.Equal(t, "12", Revision(12).String())
	assert.Equal(t, "C:3/P:2", Position(3, 2).String())

	assert.True(t, none.Equal(nil))
	assert.False(t, none.Equal(Revision(0)))
	assert.True(t, Position(1, 1).Equal(Position(1, 1)))
	assert.False(t, Revision(1).Equal(Position(0, 0)))
}

func TestStreamNames(t *testing.T) {
	assert.Equal(t, "$persistentsubscription-orders::billing-parked", ParkedStream("orders", "billing"))
	assert.Equal(t, "$projections-counter", ProjectionStream("counter"))
}
