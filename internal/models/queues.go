// Package models turns raw node snapshots into the entities the dashboard
// renders: work queues, projection and subscription catalogs, and the
// cluster-health time series.
//
// None of the types here are safe for concurrent use. Each is owned by one
// view and mutated only on the UI goroutine.
package models

import (
	"sort"
	"strings"

	"github.com/rileyhilliard/esdbtop/internal/logger"
)

// ResourceQueue is one internal work queue of a node. Values are kept as the
// node formats them.
type ResourceQueue struct {
	Name                 string
	QueueName            string
	GroupName            string
	AvgItemsPerSecond    string
	Length               string
	LengthCurrentTryPeak string
	LengthLifetimePeak   string
	CurrentIdleTime      string
	IdleTimePercent      string
	InProgressMessage    string
	LastProcessedMessage string
	TotalItemsProcessed  string
}

// queueFields maps stat suffixes onto ResourceQueue fields.
var queueFields = map[string]func(*ResourceQueue, string){
	"queueName":            func(q *ResourceQueue, v string) { q.QueueName = v },
	"groupName":            func(q *ResourceQueue, v string) { q.GroupName = v },
	"avgItemsPerSecond":    func(q *ResourceQueue, v string) { q.AvgItemsPerSecond = v },
	"length":               func(q *ResourceQueue, v string) { q.Length = v },
	"lengthCurrentTryPeak": func(q *ResourceQueue, v string) { q.LengthCurrentTryPeak = v },
	"lengthLifetimePeak":   func(q *ResourceQueue, v string) { q.LengthLifetimePeak = v },
	"currentIdleTime":      func(q *ResourceQueue, v string) { q.CurrentIdleTime = v },
	"idleTimePercent":      func(q *ResourceQueue, v string) { q.IdleTimePercent = v },
	"inProgressMessage":    func(q *ResourceQueue, v string) { q.InProgressMessage = v },
	"lastProcessedMessage": func(q *ResourceQueue, v string) { q.LastProcessedMessage = v },
	"totalItemsProcessed":  func(q *ResourceQueue, v string) { q.TotalItemsProcessed = v },
}

// ParseQueues builds the queue set from a flattened stats blob. Only keys of
// the form <namespace>-queue-<name>-<field> are considered; the name may itself
// contain dashes. Unknown fields create nothing. An empty blob is logged, not an error.
func ParseQueues(stats map[string]string, log logger.Logger) map[string]*ResourceQueue {
	if log == nil {
		log = logger.Noop()
	}
	if len(stats) == 0 {
		log.Warn("Stats from the server are empty")
	}

	queues := make(map[string]*ResourceQueue)
	for key, value := range stats {
		parts := strings.Split(key, "-")
		if len(parts) < 4 || parts[1] != "queue" {
			continue
		}

		name := strings.Join(parts[2:len(parts)-1], "-")
		if name == "" {
			continue
		}

		set, known := queueFields[parts[len(parts)-1]]
		if !known {
			continue
		}

		q, ok := queues[name]
		if !ok {
			q = &ResourceQueue{Name: name}
			queues[name] = q
		}
		set(q, value)
	}
	return queues
}

// SortedQueues returns the queues ordered by name.
func SortedQueues(queues map[string]*ResourceQueue) []ResourceQueue {
	out := make([]ResourceQueue, 0, len(queues))
	for _, q := range queues {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
