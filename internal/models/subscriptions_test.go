package models

import (
	"math"
	"testing"

	"github.com/rileyhilliard/esdbtop/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBehindBy_NamedStream(t *testing.T) {
	msgs, secs := BehindBy(client.SubscriptionSnapshot{
		StreamName:            "orders",
		GroupName:             "billing",
		AverageItemsPerSecond: 5,
		LastKnown:             client.Revision(100),
		LastCheckpointed:      client.Revision(95),
	})

	assert.Equal(t, int64(6), msgs)
	assert.Equal(t, 1.2, secs)
}

func TestBehindBy_RoundsToTwoDecimals(t *testing.T) {
	_, secs := BehindBy(client.SubscriptionSnapshot{
		StreamName:            "orders",
		AverageItemsPerSecond: 3,
		LastKnown:             client.Revision(9),
		LastCheckpointed:      client.Revision(0),
	})
	assert.Equal(t, 3.33, secs)
}

func TestBehindBy_ZeroRateNeverEscapesInfOrNaN(t *testing.T) {
	tests := []struct {
		name  string
		known *client.Cursor
		cp    *client.Cursor
	}{
		{name: "behind", known: client.Revision(10), cp: client.Revision(0)},
		{name: "caught up", known: client.Revision(10), cp: client.Revision(10)},
		{name: "missing revisions", known: nil, cp: nil},
		{name: "checkpoint ahead", known: client.Revision(0), cp: client.Revision(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, secs := BehindBy(client.SubscriptionSnapshot{
				StreamName: "orders", LastKnown: tt.known, LastCheckpointed: tt.cp,
			})
			assert.False(t, math.IsNaN(secs))
			assert.False(t, math.IsInf(secs, 0))
			assert.Equal(t, 0.0, secs)
		})
	}
}

func TestBehindBy_MissingRevisionsCountAsZero(t *testing.T) {
	msgs, _ := BehindBy(client.SubscriptionSnapshot{StreamName: "orders", LastKnown: client.Revision(4)})
	assert.Equal(t, int64(5), msgs)
}

func TestBehindBy_All(t *testing.T) {
	tests := []struct {
		name     string
		known    *client.Cursor
		cp       *client.Cursor
		avg      float64
		wantMsgs int64
	}{
		{name: "caught up", known: client.Position(10, 10), cp: client.Position(10, 10), avg: 5, wantMsgs: 0},
		{name: "behind", known: client.Position(20, 20), cp: client.Position(10, 10), avg: 5, wantMsgs: -1},
		{name: "no checkpoint yet", known: client.Position(20, 20), cp: nil, avg: 0, wantMsgs: -1},
		{name: "nothing known", known: nil, cp: nil, avg: 100, wantMsgs: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, secs := BehindBy(client.SubscriptionSnapshot{
				StreamName: client.AllStream, AverageItemsPerSecond: tt.avg,
				LastKnown: tt.known, LastCheckpointed: tt.cp,
			})
			assert.Equal(t, tt.wantMsgs, msgs)
			assert.Equal(t, -1.0, secs)
		})
	}
}

func TestPersistentSubscriptions_Update(t *testing.T) {
	p := NewPersistentSubscriptions()

	p.Update([]client.SubscriptionSnapshot{
		{StreamName: "orders", GroupName: "billing", Status: "Live", AverageItemsPerSecond: 5,
			TotalItemsProcessed: 100, ConnectionCount: 2, InFlightMessages: 3,
			LastKnown: client.Revision(100), LastCheckpointed: client.Revision(95)},
		{StreamName: "$all", GroupName: "audit", LastKnown: client.Position(1, 1)},
	})
	p.SetSettings("orders/billing", &client.SubscriptionSettings{BufferSize: 500})

	require.Equal(t, 2, p.Count())
	list := p.List()
	assert.Equal(t, "$all/audit", list[0].Key())
	assert.Equal(t, "orders/billing", list[1].Key())

	orders, ok := p.Get("orders/billing")
	require.True(t, ok)
	assert.Equal(t, int64(6), orders.BehindByMessages)
	assert.Equal(t, 1.2, orders.BehindByTime)
	assert.Equal(t, int64(2), orders.ConnectionCount)
	assert.Equal(t, int64(3), orders.InFlightMessages)

	p.Update([]client.SubscriptionSnapshot{
		{StreamName: "orders", GroupName: "billing", Status: "Paused", AverageItemsPerSecond: 0,
			LastKnown: client.Revision(100), LastCheckpointed: client.Revision(100)},
	})

	assert.Equal(t, 1, p.Count())
	orders, _ = p.Get("orders/billing")
	assert.Equal(t, "Paused", orders.Status)
	assert.Equal(t, int64(1), orders.BehindByMessages)
	assert.Equal(t, 0.0, orders.BehindByTime)
	require.NotNil(t, orders.Settings, "settings survive a listing update")
	assert.Equal(t, int64(500), orders.Settings.BufferSize)
}
