package request

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var endpointLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dhruva_http_request_duration_seconds",
	Help:    "Latency of HTTP endpoints by route pattern and status class",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// Metrics records HTTP latency. A nil *Metrics records nothing.
type Metrics struct {
	latency *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{latency: endpointLatency}
}

func (m *Metrics) observe(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(method, route, status).Observe(seconds)
}
