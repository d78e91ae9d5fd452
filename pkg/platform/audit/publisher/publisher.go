// Package publisher persists audit events, optionally through a bounded
// in-process buffer drained by a single goroutine.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "dhruva/pkg/domain-errors"
	audit "dhruva/pkg/platform/audit"
)

var (
	eventsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dhruva_audit_events_persisted_total",
		Help: "Audit events written to the audit store",
	})
	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhruva_audit_events_dropped_total",
		Help: "Audit events that never reached the store, by cause",
	}, []string{"cause"})
)

// Publisher is append-only. Emit assigns the event ID and timestamp.
type Publisher struct {
	store  audit.Store
	events chan audit.Event
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool
	once   sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer queues events in a buffer of size and persists them in
// the background. A full buffer drops the event.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan audit.Event, size)
			p.async = true
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.events {
		p.persist(context.Background(), event)
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		eventsDropped.WithLabelValues("store_error").Inc()
		if p.logger != nil {
			p.logger.Error("failed to persist audit event",
				"error", err,
				"action", event.Action,
				"subject", event.Subject,
			)
		}
		return err
	}
	eventsPersisted.Inc()
	return nil
}

// Close stops accepting events and waits for the buffer to drain.
func (p *Publisher) Close() {
	if !p.async {
		return
	}
	p.once.Do(func() {
		close(p.events)
		p.wg.Wait()
	})
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ID == "" {
		event.ID = audit.NewEventID(event.Timestamp)
	}
	if !p.async {
		return p.persist(ctx, event)
	}

	select {
	case p.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		eventsDropped.WithLabelValues("buffer_full").Inc()
		if p.logger != nil {
			p.logger.Warn("audit buffer full, event dropped",
				"action", event.Action,
				"subject", event.Subject,
			)
		}
		return dErrors.New(dErrors.CodeInternal, "audit buffer full")
	}
}

func (p *Publisher) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	return p.store.ListBySubject(ctx, subject)
}
