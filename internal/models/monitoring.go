package models

import "github.com/rileyhilliard/esdbtop/internal/client"

const (
	// timeStep is how far the logical clock advances per poll.
	timeStep = 2
	// timeSpan is the width of the visible chart window in logical time units.
	timeSpan = 20
)

// Leader is the member that held the leader role at the latest poll.
type Leader struct {
	InstanceID       string
	Epoch            int64
	WriterCheckpoint int64
}

// Changes reports what a single Monitoring.Update detected.
type Changes struct {
	Election     bool
	OutOfSync    bool
	Truncation   bool
	NoLeader     bool
	LeaderChange bool
}

// Monitoring accumulates cluster health across polls for the lifetime of a session.
type Monitoring struct {
	Increment int64

	CPU               *Window
	FreeMemory        *Window
	BytesWritten      *Window
	WriterCheckpoints *Window

	Elections   int
	OutOfSyncs  int
	Truncations int
	NoLeader    int

	Leader       *Leader
	FreeMem      int64
	Unresponsive int
	Drives       []Drive
	LoadAvg      [3]float64
	Version      string

	lastEpoch            int64
	lastWriterCheckpoint int64
	hasLast              bool

	lastBytesWritten int64
	hasBytesWritten  bool
}

// NewMonitoring creates an empty model with WindowSize windows.
func NewMonitoring() *Monitoring {
	return &Monitoring{
		CPU:               NewWindow(WindowSize),
		FreeMemory:        NewWindow(WindowSize),
		BytesWritten:      NewWindow(WindowSize),
		WriterCheckpoints: NewWindow(WindowSize),
	}
}

// Update folds one poll of stats and gossip into the model.
func (m *Monitoring) Update(stats Stats, members []client.Member) Changes {
	var changes Changes
	x := float64(m.Increment)

	m.CPU.Push(x, stats.CPU)
	m.FreeMemory.Push(x, float64(stats.FreeMem))
	m.FreeMem = stats.FreeMem
	m.Drives = stats.Drives
	m.LoadAvg = [3]float64{stats.LoadAvg1m, stats.LoadAvg5m, stats.LoadAvg15m}

	var delta int64
	if m.hasBytesWritten {
		delta = stats.BytesWritten - m.lastBytesWritten
		// Counter reset after a node restart.
		if delta < 0 {
			delta = 0
		}
	}
	m.BytesWritten.Push(x, float64(delta))
	m.lastBytesWritten = stats.BytesWritten
	m.hasBytesWritten = true

	m.Unresponsive = 0
	var leader *client.Member
	for i := range members {
		if !members[i].Alive {
			m.Unresponsive++
		}
		if leader == nil && members[i].IsLeader() {
			leader = &members[i]
		}
	}

	if leader == nil {
		m.NoLeader++
		changes.NoLeader = true
	} else {
		if m.hasLast {
			if leader.Epoch != m.lastEpoch {
				m.Elections++
				changes.Election = true
			}

			behind := 0
			for _, mem := range members {
				if mem.Role == "Follower" && mem.WriterCheckpoint < m.lastWriterCheckpoint {
					behind++
				}
			}
			if behind > 1 {
				m.OutOfSyncs++
				changes.OutOfSync = true
			}

			if m.lastWriterCheckpoint > leader.WriterCheckpoint {
				m.Truncations++
				changes.Truncation = true
			}
		}

		if m.Leader == nil || m.Leader.InstanceID != leader.InstanceID {
			changes.LeaderChange = true
		}
		m.Leader = &Leader{
			InstanceID:       leader.InstanceID,
			Epoch:            leader.Epoch,
			WriterCheckpoint: leader.WriterCheckpoint,
		}
		m.WriterCheckpoints.Push(x, float64(leader.WriterCheckpoint))

		m.lastEpoch = leader.Epoch
		m.lastWriterCheckpoint = leader.WriterCheckpoint
		m.hasLast = true
	}

	m.Increment += timeStep
	return changes
}

// TimeBounds returns the visible chart window in logical time units. It never
// starts below zero and is always timeSpan wide.
func (m *Monitoring) TimeBounds() (lo, hi float64) {
	if m.Increment <= timeSpan {
		return 0, timeSpan
	}
	return float64(m.Increment - timeSpan), float64(m.Increment)
}

// Epoch returns the last recorded leader epoch, or -1 before any leader was seen.
func (m *Monitoring) Epoch() int64 {
	if !m.hasLast {
		return -1
	}
	return m.lastEpoch
}

// WriterCheckpoint returns the last recorded leader writer checkpoint, or -1.
func (m *Monitoring) WriterCheckpoint() int64 {
	if !m.hasLast {
		return -1
	}
	return m.lastWriterCheckpoint
}
