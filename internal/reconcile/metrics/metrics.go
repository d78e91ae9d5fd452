package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	drift = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhruva_reconcile_drift_checks_total",
		Help: "Issuer authorization drift checks by observed status",
	}, []string{"status"})
	syncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhruva_reconcile_sync_total",
		Help: "Issuer authorization sync attempts by result",
	}, []string{"result"})
	repairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhruva_reconcile_account_repairs_total",
		Help: "Account repairs by whether a write was needed",
	}, []string{"repaired"})
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dhruva_reconcile_sweep_duration_seconds",
		Help:    "Duration of a full reconcile sweep",
		Buckets: prometheus.DefBuckets,
	})
)

// Metrics is nil-safe.
type Metrics struct{}

func New() *Metrics { return &Metrics{} }

func (m *Metrics) IncDrift(status string) {
	if m == nil {
		return
	}
	drift.WithLabelValues(status).Inc()
}

func (m *Metrics) IncSync(result string) {
	if m == nil {
		return
	}
	syncs.WithLabelValues(result).Inc()
}

func (m *Metrics) IncRepair(repaired bool) {
	if m == nil {
		return
	}
	label := "false"
	if repaired {
		label = "true"
	}
	repairs.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveSweep(start time.Time) {
	if m == nil {
		return
	}
	sweepDuration.Observe(time.Since(start).Seconds())
}
