// Package metrics holds the Prometheus collectors exported by the viewer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the viewer's private registry, served at /metrics
var Registry = prometheus.NewRegistry()

var (
	DatasetSwitchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabricview_dataset_switches_total",
			Help: "Dataset switch requests by outcome (installed, failed, stale).",
		},
		[]string{"outcome"},
	)

	LoadErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabricview_load_errors_total",
			Help: "Topology load failures by stage (fetch, decode, validate).",
		},
		[]string{"op"},
	)

	LoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fabricview_load_duration_seconds",
			Help:    "Time taken to fetch, decode and validate a topology.",
			Buckets: prometheus.DefBuckets,
		},
	)

	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fabricview_layout_ticks_total",
			Help: "Layout simulation ticks executed.",
		},
	)

	DisplayedNodes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fabricview_displayed_nodes",
			Help: "Node drawables in the current scene.",
		},
	)

	DeviceLookupMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fabricview_device_lookup_misses_total",
			Help: "Vendor/device lookups that fell back to an Unknown result.",
		},
	)

	ConnectedClients = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fabricview_connected_clients",
			Help: "Connected viewer clients by transport (ws, sse).",
		},
		[]string{"transport"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		DatasetSwitchesTotal,
		LoadErrorsTotal,
		LoadDuration,
		TicksTotal,
		DisplayedNodes,
		DeviceLookupMissesTotal,
		ConnectedClients,
	)
}

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
