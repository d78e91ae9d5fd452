package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Sweeper is the service surface the worker drives.
type Sweeper interface {
	Sweep(ctx context.Context, caller string) (*SweepReport, error)
}

// Worker runs Sweep on an interval. A zero interval disables it.
type Worker struct {
	sweeper  Sweeper
	caller   string
	interval time.Duration
	logger   *slog.Logger
}

type WorkerOption func(*Worker)

func WithInterval(d time.Duration) WorkerOption {
	return func(w *Worker) { w.interval = d }
}

// WithCaller sets the ledger identity drift is checked against.
func WithCaller(address string) WorkerOption {
	return func(w *Worker) { w.caller = address }
}

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWorker(sweeper Sweeper, opts ...WorkerOption) (*Worker, error) {
	if sweeper == nil {
		return nil, errors.New("reconcile sweeper is required")
	}
	w := &Worker{sweeper: sweeper, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

func (w *Worker) Enabled() bool { return w.interval > 0 }

// Start sweeps periodically until ctx is cancelled. It returns nil at once
// when the worker is disabled.
func (w *Worker) Start(ctx context.Context) error {
	if !w.Enabled() {
		w.logger.InfoContext(ctx, "reconcile worker disabled")
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "reconcile sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep and logs what it found.
func (w *Worker) RunOnce(ctx context.Context) (*SweepReport, error) {
	report, err := w.sweeper.Sweep(ctx, w.caller)
	if err != nil {
		return report, err
	}
	for _, f := range report.Failures {
		w.logger.WarnContext(ctx, "reconcile failed for vetting request",
			"vetting_id", f.RequestID.String(),
			"error", f.Err,
		)
	}
	for _, d := range report.OutOfSync() {
		w.logger.WarnContext(ctx, "issuer authorization drift",
			"vetting_id", d.RequestID.String(),
			"wallet", d.Wallet,
			"status", string(d.Status),
		)
	}
	w.logger.InfoContext(ctx, "reconcile sweep complete",
		"checked", report.Checked,
		"repaired", report.Repaired,
		"out_of_sync", len(report.OutOfSync()),
		"failures", len(report.Failures),
	)
	return report, nil
}
