// Package metrics exposes Prometheus instrumentation for the scheduler and
// node runner, generalized from jinterlante1206-AleutianLocal's use of
// prometheus/client_golang: counters per node lifecycle transition and a
// duration histogram, registered once against the default registerer.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowdag/flowdag/internal/noderunner"
	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

// Collector holds the metric instruments for one process. Runs share a
// single Collector (registered once) since Prometheus counters accumulate
// across runs by design. Labels are node kind and status only (no node
// name, no run id), which keeps cardinality bounded.
type Collector struct {
	dispatched *prometheus.CounterVec
	settled    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewCollector builds and registers a Collector against reg. Pass
// prometheus.DefaultRegisterer for process-wide metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowdag_nodes_dispatched_total",
			Help: "Nodes transitioned to running, by kind.",
		}, []string{"kind"}),
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowdag_nodes_settled_total",
			Help: "Nodes that reached a terminal status, by kind and status.",
		}, []string{"kind", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowdag_node_duration_seconds",
			Help:    "Wall-clock time from dispatch to settlement, by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	reg.MustRegister(c.dispatched, c.settled, c.duration)
	return c
}

// Hooks adapts the Collector into noderunner.Hooks.
func (c *Collector) Hooks() noderunner.Hooks {
	return noderunner.Hooks{
		OnDispatch: func(node string, kind topology.Kind) {
			c.dispatched.WithLabelValues(kind.String()).Inc()
		},
		OnSettle: func(node string, kind topology.Kind, status snapshot.NodeStatus, dur time.Duration) {
			c.settled.WithLabelValues(kind.String(), string(status)).Inc()
			c.duration.WithLabelValues(kind.String()).Observe(dur.Seconds())
		},
	}
}

var (
	defaultOnce      sync.Once
	defaultCollector *Collector
)

// Default returns a process-wide Collector registered against
// prometheus.DefaultRegisterer, built at most once.
func Default() *Collector {
	defaultOnce.Do(func() {
		defaultCollector = NewCollector(prometheus.DefaultRegisterer)
	})
	return defaultCollector
}
