// Package metrics exposes Prometheus counters for settlement runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HostsSettled   prometheus.Counter
	HostsSkipped   prometheus.Counter
	HostsFailed    prometheus.Counter
	TipsFlagged    prometheus.Counter
	ExportFailures prometheus.Counter
	RunDuration    prometheus.Histogram

	registry *prometheus.Registry
}

// New builds the metric set on a private registry, served by Handler.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		HostsSettled: factory.NewCounter(prometheus.CounterOpts{
			Name: "settler_hosts_settled_total",
			Help: "Hosts that received a settlement.",
		}),
		HostsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "settler_hosts_skipped_total",
			Help: "Hosts skipped for lack of qualifying activity.",
		}),
		HostsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "settler_hosts_failed_total",
			Help: "Hosts whose settlement failed and was rolled back.",
		}),
		TipsFlagged: factory.NewCounter(prometheus.CounterOpts{
			Name: "settler_tips_flagged_total",
			Help: "Cross-currency tips excluded pending a recorded rate.",
		}),
		ExportFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "settler_export_failures_total",
			Help: "Audit CSV exports that failed and were left pending.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "settler_run_duration_seconds",
			Help:    "Wall time of settlement runs.",
			Buckets: prometheus.DefBuckets,
		}),
		registry: reg,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
