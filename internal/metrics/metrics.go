// Package metrics exposes Prometheus collectors for the telemetry pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "commandcenter"

// Metrics holds every collector on a private registry
type Metrics struct {
	registry *prometheus.Registry

	LinesIngested  *prometheus.CounterVec
	EventsApplied  *prometheus.CounterVec
	Nodes          prometheus.Gauge
	Edges          prometheus.Gauge
	TickDuration   prometheus.Histogram
	Commands       *prometheus.CounterVec
	Launches       *prometheus.CounterVec
	ArchiveDropped prometheus.Counter
	HubClients     prometheus.Gauge
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LinesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_lines_total",
			Help:      "Kernel output lines drained from the sink, by stream.",
		}, []string{"stream"}),
		EventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_events_total",
			Help:      "Graph events applied, by kind.",
		}, []string{"kind"}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the live graph.",
		}),
		Edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges in the live graph.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one coordinator tick.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kernel_commands_total",
			Help:      "Commands written to the kernel, by result.",
		}, []string{"result"}),
		Launches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kernel_launches_total",
			Help:      "Kernel launch attempts, by result.",
		}, []string{"result"}),
		ArchiveDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_dropped_lines_total",
			Help:      "Lines not archived because the archive queue was full.",
		}),
		HubClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_clients",
			Help:      "Connected SSE and WebSocket clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.LinesIngested,
		m.EventsApplied,
		m.Nodes,
		m.Edges,
		m.TickDuration,
		m.Commands,
		m.Launches,
		m.ArchiveDropped,
		m.HubClients,
	)
	return m
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Result labels a fallible operation
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
