package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are registered once per process; every Metrics value shares them.
var (
	submitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhruva_vetting_requests_submitted_total",
		Help: "Vetting submissions, labeled by whether a new request was created",
	}, []string{"created"})
	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhruva_vetting_decisions_total",
		Help: "Vetting decisions by outcome",
	}, []string{"decision"})
	ledgerSync = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhruva_vetting_ledger_sync_total",
		Help: "Issuer authorization outcomes after approval",
	}, []string{"status"})
	accountUpdateFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dhruva_vetting_account_update_failures_total",
		Help: "Approvals whose account update failed after the request committed",
	})
	corruptFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dhruva_vetting_corrupt_records_total",
		Help: "Corrupt vetting requests found while listing",
	})
)

// Metrics is nil-safe so services can run without it.
type Metrics struct{}

func New() *Metrics { return &Metrics{} }

func (m *Metrics) IncSubmitted(created bool) {
	if m == nil {
		return
	}
	label := "false"
	if created {
		label = "true"
	}
	submitted.WithLabelValues(label).Inc()
}

func (m *Metrics) IncDecision(decision string) {
	if m == nil {
		return
	}
	decisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncLedgerSync(status string) {
	if m == nil {
		return
	}
	ledgerSync.WithLabelValues(status).Inc()
}

func (m *Metrics) IncAccountUpdateFailure() {
	if m == nil {
		return
	}
	accountUpdateFailures.Inc()
}

func (m *Metrics) AddCorrupt(n int) {
	if m == nil || n == 0 {
		return
	}
	corruptFound.Add(float64(n))
}
