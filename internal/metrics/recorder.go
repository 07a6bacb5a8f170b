// Package metrics exports what the dashboard observes as Prometheus metrics,
// so a long-running esdbtop session can double as a lightweight health monitor.
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rileyhilliard/esdbtop/internal/errors"
	"github.com/rileyhilliard/esdbtop/internal/logger"
	"github.com/rileyhilliard/esdbtop/internal/models"
)

const namespace = "esdbtop"

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeTransport = "transport"
	OutcomeMalformed = "malformed"
	OutcomeCanceled  = "canceled"
	OutcomeError     = "error"
)

// Recorder implements the session's fetch observer and the monitoring view's
// cluster observer on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec

	elections    prometheus.Gauge
	outOfSyncs   prometheus.Gauge
	truncations  prometheus.Gauge
	noLeader     prometheus.Gauge
	unresponsive prometheus.Gauge
	epoch        prometheus.Gauge
	checkpoint   prometheus.Gauge
	cpu          prometheus.Gauge
	freeMemory   prometheus.Gauge
	leader       *prometheus.GaugeVec
}

// NewRecorder creates a recorder with every metric registered.
func NewRecorder() *Recorder {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      name,
			Help:      help,
		})
	}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Completed view fetches by view and outcome.",
		}, []string{"view", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of view fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"view"}),
		elections:    gauge("elections", "Elections observed this session."),
		outOfSyncs:   gauge("out_of_syncs", "Polls where more than one follower trailed the previous writer checkpoint."),
		truncations:  gauge("truncations", "Polls where the leader writer checkpoint moved backwards."),
		noLeader:     gauge("no_leader_polls", "Polls without a leader in gossip."),
		unresponsive: gauge("unresponsive_nodes", "Members reported dead by the latest gossip."),
		epoch:        gauge("epoch", "Last leader epoch, -1 before any leader was seen."),
		checkpoint:   gauge("writer_checkpoint", "Last leader writer checkpoint, -1 before any leader was seen."),
		cpu:          gauge("cpu_percent", "Process CPU of the polled node."),
		freeMemory:   gauge("free_memory_bytes", "Free memory of the polled node."),
		leader: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "leader",
			Help:      "1 for the current leader instance.",
		}, []string{"instance_id"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		r.fetches,
		r.fetchDuration,
		r.elections,
		r.outOfSyncs,
		r.truncations,
		r.noLeader,
		r.unresponsive,
		r.epoch,
		r.checkpoint,
		r.cpu,
		r.freeMemory,
		r.leader,
	)
	return r
}

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch counts a completed fetch. It is called from fetch goroutines.
func (r *Recorder) ObserveFetch(view string, took time.Duration, err error) {
	r.fetches.WithLabelValues(view, Outcome(err)).Inc()
	r.fetchDuration.WithLabelValues(view).Observe(took.Seconds())
}

// ObserveCluster mirrors the monitoring model after each poll.
func (r *Recorder) ObserveCluster(m *models.Monitoring, changes models.Changes) {
	r.elections.Set(float64(m.Elections))
	r.outOfSyncs.Set(float64(m.OutOfSyncs))
	r.truncations.Set(float64(m.Truncations))
	r.noLeader.Set(float64(m.NoLeader))
	r.unresponsive.Set(float64(m.Unresponsive))
	r.epoch.Set(float64(m.Epoch()))
	r.checkpoint.Set(float64(m.WriterCheckpoint()))
	r.freeMemory.Set(float64(m.FreeMem))
	if p, ok := m.CPU.Last(); ok {
		r.cpu.Set(p.Y)
	}

	if changes.LeaderChange || changes.NoLeader {
		r.leader.Reset()
		if m.Leader != nil && !changes.NoLeader {
			r.leader.WithLabelValues(m.Leader.InstanceID).Set(1)
		}
	}
}

// Outcome classifies a fetch error for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.IsNotFound(err):
		return OutcomeNotFound
	case errors.IsTransport(err):
		return OutcomeTransport
	case errors.IsMalformed(err):
		return OutcomeMalformed
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string, log logger.Logger) error {
	if log == nil {
		log = logger.Noop()
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot listen on metrics address "+addr,
			"Pick a free port with --metrics-addr, e.g. 127.0.0.1:9464")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Serving metrics on http://%s/metrics", lis.Addr())
	go func() {
		if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.Error("Metrics server stopped: %v", err)
		}
	}()
	return nil
}
