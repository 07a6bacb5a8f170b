package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/esdbtop/internal/client"
	clienttesting "github.com/rileyhilliard/esdbtop/internal/client/testing"
	"github.com/rileyhilliard/esdbtop/internal/errors"
	"github.com/rileyhilliard/esdbtop/internal/logger"
	"github.com/rileyhilliard/esdbtop/internal/models"
)

type clusterRecorder struct {
	changes []models.Changes
}

func (r *clusterRecorder) ObserveCluster(m *models.Monitoring, c models.Changes) {
	r.changes = append(r.changes, c)
}

func monitoringSource(epoch int64) *clienttesting.FakeSource {
	return clienttesting.NewFakeSource().
		SetStats(map[string]string{
			"proc-cpu":                       "12.5",
			"sys-freeMem":                    "2147483648",
			"proc-diskIo-writtenBytes":       "1000",
			"sys-loadavg-1m":                 "0.5",
			"sys-drive-/data-totalBytes":     "10737418240",
			"sys-drive-/data-availableBytes": "5368709120",
			"sys-drive-/data-usedBytes":      "5368709120",
			"sys-drive-/data-usage":          "50%",
		}).
		SetGossip(
			client.Member{InstanceID: "node-a", Role: "Leader", Alive: true, Epoch: epoch, WriterCheckpoint: 500},
			client.Member{InstanceID: "node-b", Role: "Follower", Alive: true, WriterCheckpoint: 500},
			client.Member{InstanceID: "node-c", Role: "Follower", Alive: false, WriterCheckpoint: 400},
		).
		SetVersion("23.10.0")
}

func TestMonitoringView_Load(t *testing.T) {
	src := monitoringSource(2)
	v := NewMonitoringView(nil, nil)

	run(t, v.Load(), src)

	m := v.model
	assert.Equal(t, "23.10.0", m.Version)
	assert.Equal(t, int64(2), m.Increment)
	assert.Equal(t, 1, m.Unresponsive)
	require.NotNil(t, m.Leader)
	assert.Equal(t, "node-a", m.Leader.InstanceID)
	assert.Equal(t, 1, src.CallCount("ServerVersion"))

	out := v.Draw(160, 40)
	assert.Contains(t, out, "Key metrics")
	assert.Contains(t, out, "v23.10.0")
	assert.Contains(t, out, "2.00 GB")
	assert.Contains(t, out, "/data")
	assert.Contains(t, out, "5.00 GB (50%)")
}

func TestMonitoringView_RefreshSkipsVersion(t *testing.T) {
	src := monitoringSource(2)
	v := NewMonitoringView(nil, nil)
	run(t, v.Load(), src)

	run(t, v.Refresh(), src)

	assert.Equal(t, 1, src.CallCount("ServerVersion"))
	assert.Equal(t, 2, src.CallCount("Gossip"))
	assert.Equal(t, "23.10.0", v.model.Version)
}

func TestMonitoringView_ElectionIsLoggedAndObserved(t *testing.T) {
	log := logger.NewBufferLogger()
	rec := &clusterRecorder{}
	v := NewMonitoringView(log, rec)

	run(t, v.Load(), monitoringSource(2))
	run(t, v.Refresh(), monitoringSource(3))

	assert.Equal(t, 1, v.model.Elections)
	assert.True(t, log.HasLevel("warn"))
	require.Len(t, rec.changes, 2)
	assert.False(t, rec.changes[0].Election)
	assert.True(t, rec.changes[0].LeaderChange)
	assert.True(t, rec.changes[1].Election)
}

func TestMonitoringView_NoLeader(t *testing.T) {
	src := clienttesting.NewFakeSource().SetGossip(client.Member{InstanceID: "x", Role: "Follower", Alive: true})
	v := NewMonitoringView(nil, nil)

	run(t, v.Load(), src)

	assert.Equal(t, 1, v.model.NoLeader)
	out := v.Draw(160, 40)
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "No drive stats reported")
}

func TestMonitoringView_MalformedStats(t *testing.T) {
	src := monitoringSource(1).SetStats(map[string]string{"proc-cpu": "lots"})
	v := NewMonitoringView(nil, nil)

	_, err := v.Load()(context.Background(), src)

	assert.True(t, errors.IsMalformed(err))
	assert.Equal(t, int64(0), v.model.Increment)
}

func TestMonitoringView_UnloadKeepsHistory(t *testing.T) {
	v := NewMonitoringView(nil, nil)
	run(t, v.Load(), monitoringSource(1))

	v.Unload()

	assert.Equal(t, int64(2), v.model.Increment)
	assert.Equal(t, 1, v.model.CPU.Len())
}

func TestPaddedBounds(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		lo, hi float64
	}{
		{"empty", nil, 0, 0},
		{"near zero", []float64{0, 5}, 0, 5},
		{"padded", []float64{100, 150}, 50, 200},
		{"flat", []float64{1000, 1000}, 995, 1005},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := paddedBounds(tt.values)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}
