package ledger

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dhruva/internal/platform/tracer"
)

var (
	callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhruva_ledger_calls_total",
		Help: "Ledger gateway calls by operation and outcome (ok or failure kind)",
	}, []string{"op", "outcome"})
	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dhruva_ledger_call_duration_seconds",
		Help:    "Ledger gateway call latency by operation",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"op"})
)

// Instrument wraps g so every call is traced and counted. A nil tracer
// falls back to tracer.Noop.
func Instrument(g Gateway, t tracer.Tracer) Gateway {
	if t == nil {
		t = tracer.Noop{}
	}
	return &instrumented{next: g, tracer: t}
}

type instrumented struct {
	next   Gateway
	tracer tracer.Tracer
}

func (i *instrumented) observe(ctx context.Context, op string, attrs []tracer.Attribute, fn func(context.Context) error) {
	start := time.Now()
	ctx, span := i.tracer.Start(ctx, "ledger."+op, attrs...)
	err := fn(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if kind, ok := KindOf(err); ok {
			outcome = string(kind)
		}
		span.SetAttributes(tracer.String("ledger.reason", ReasonOf(err)))
	}
	span.End(err)
	callsTotal.WithLabelValues(op, outcome).Inc()
	callDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (i *instrumented) IsAuthorizedIssuer(ctx context.Context, address string) (authorized bool, err error) {
	i.observe(ctx, "is_authorized_issuer", []tracer.Attribute{tracer.String("ledger.address", address)}, func(ctx context.Context) error {
		authorized, err = i.next.IsAuthorizedIssuer(ctx, address)
		return err
	})
	return authorized, err
}

func (i *instrumented) Owner(ctx context.Context) (owner string, err error) {
	i.observe(ctx, "owner", nil, func(ctx context.Context) error {
		owner, err = i.next.Owner(ctx)
		return err
	})
	return owner, err
}

func (i *instrumented) AuthorizeIssuer(ctx context.Context, address, caller string) (r *Receipt, err error) {
	attrs := []tracer.Attribute{tracer.String("ledger.address", address), tracer.String("ledger.caller", caller)}
	i.observe(ctx, "authorize_issuer", attrs, func(ctx context.Context) error {
		r, err = i.next.AuthorizeIssuer(ctx, address, caller)
		return err
	})
	return r, err
}

func (i *instrumented) RevokeIssuer(ctx context.Context, address, caller string) (r *Receipt, err error) {
	attrs := []tracer.Attribute{tracer.String("ledger.address", address), tracer.String("ledger.caller", caller)}
	i.observe(ctx, "revoke_issuer", attrs, func(ctx context.Context) error {
		r, err = i.next.RevokeIssuer(ctx, address, caller)
		return err
	})
	return r, err
}

func (i *instrumented) IssueCredential(ctx context.Context, params IssueParams, caller string) (r *Receipt, err error) {
	attrs := []tracer.Attribute{tracer.String("ledger.hash", params.Hash), tracer.String("ledger.caller", caller)}
	i.observe(ctx, "issue_credential", attrs, func(ctx context.Context) error {
		r, err = i.next.IssueCredential(ctx, params, caller)
		return err
	})
	return r, err
}

func (i *instrumented) VerifyCredential(ctx context.Context, hash string) (s *CredentialStatus, err error) {
	i.observe(ctx, "verify_credential", []tracer.Attribute{tracer.String("ledger.hash", hash)}, func(ctx context.Context) error {
		s, err = i.next.VerifyCredential(ctx, hash)
		return err
	})
	return s, err
}

func (i *instrumented) RevokeCredential(ctx context.Context, hash, caller string) (r *Receipt, err error) {
	attrs := []tracer.Attribute{tracer.String("ledger.hash", hash), tracer.String("ledger.caller", caller)}
	i.observe(ctx, "revoke_credential", attrs, func(ctx context.Context) error {
		r, err = i.next.RevokeCredential(ctx, hash, caller)
		return err
	})
	return r, err
}
