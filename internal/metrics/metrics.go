package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple clients never collide
// on the default one. All methods are nil-safe.
type Metrics struct {
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	syncOutcomes    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "focusflow_api_request_duration_seconds",
				Help:    "API request latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"method", "route", "status"},
		),
		syncOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "focusflow_sync_total",
				Help: "Optimistic writes by entity and outcome",
			},
			[]string{"entity", "outcome"},
		),
	}
	m.Registry.MustRegister(m.requestDuration, m.syncOutcomes)
	return m
}

// RecordRequest records one API round trip. status is 0 for transport errors.
func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// RecordSync counts a settled optimistic write; outcome is "synced" or "reverted".
func (m *Metrics) RecordSync(entity, outcome string) {
	if m == nil {
		return
	}
	m.syncOutcomes.WithLabelValues(entity, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
