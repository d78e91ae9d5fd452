package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhruva_approval_submissions_total",
		Help: "Approval submissions by result (created, duplicate)",
	}, []string{"result"})
	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhruva_approval_decisions_total",
		Help: "Approval decisions by outcome",
	}, []string{"decision"})
	cancellations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dhruva_approval_cancellations_total",
		Help: "Pending approval requests cancelled by their requester",
	})
	markVerifiedFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dhruva_approval_mark_verified_failures_total",
		Help: "Decisions whose credential could not be marked verified",
	})
	issueLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dhruva_approval_issue_duration_seconds",
		Help:    "Latency of the ledger issuance step of issue-and-approve",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"outcome"})
)

// Metrics is nil-safe so services can run without it.
type Metrics struct{}

func New() *Metrics { return &Metrics{} }

func (m *Metrics) IncSubmission(result string) {
	if m == nil {
		return
	}
	submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) IncDecision(decision string) {
	if m == nil {
		return
	}
	decisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncCancellation() {
	if m == nil {
		return
	}
	cancellations.Inc()
}

func (m *Metrics) IncMarkVerifiedFailure() {
	if m == nil {
		return
	}
	markVerifiedFailures.Inc()
}

func (m *Metrics) ObserveIssue(start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	issueLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
