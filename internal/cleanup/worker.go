package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	enqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhruva_cleanup_enqueued_total",
		Help: "Cleanup tasks enqueued by kind and result",
	}, []string{"kind", "result"})
	processed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dhruva_cleanup_processed_total",
		Help: "Cleanup tasks processed by kind and result",
	}, []string{"kind", "result"})
)

// Deleter removes one record. It should re-check the record and skip it
// when it is no longer corrupt.
type Deleter interface {
	Purge(ctx context.Context, id string) error
}

type DeleterFunc func(ctx context.Context, id string) error

func (f DeleterFunc) Purge(ctx context.Context, id string) error { return f(ctx, id) }

// Scheduler is the producer side handed to readers. Schedule hands the
// task to a small buffer and returns; a background goroutine pushes it to
// the Queue with a bounded timeout. Failures are logged and swallowed.
type Scheduler struct {
	queue   Queue
	logger  *slog.Logger
	timeout time.Duration

	pending chan Task
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

type SchedulerOption func(*Scheduler)

// WithEnqueueTimeout bounds each push to the backing queue.
func WithEnqueueTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPendingBuffer sets how many tasks may wait for the backing queue.
func WithPendingBuffer(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.pending = make(chan Task, n)
		}
	}
}

func NewScheduler(queue Queue, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		queue:   queue,
		logger:  logger,
		timeout: 2 * time.Second,
		pending: make(chan Task, 64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if queue == nil {
		close(s.done)
		return s
	}
	go s.forward()
	return s
}

// Schedule never blocks. A task that finds the buffer full is dropped; the
// record will be found again by the next reader.
func (s *Scheduler) Schedule(ctx context.Context, kind Kind, id string) {
	if s == nil || s.queue == nil {
		return
	}
	task := Task{Kind: kind, ID: id, EnqueuedAt: time.Now()}
	select {
	case <-s.stop:
		enqueued.WithLabelValues(string(kind), "closed").Inc()
		return
	default:
	}
	select {
	case s.pending <- task:
	default:
		enqueued.WithLabelValues(string(kind), "dropped").Inc()
		s.logger.WarnContext(ctx, "cleanup buffer full, task dropped",
			"kind", string(kind),
			"id", id,
		)
	}
}

// Close stops the forwarder after pushing what is already buffered.
func (s *Scheduler) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Scheduler) forward() {
	defer close(s.done)
	for {
		select {
		case task := <-s.pending:
			s.push(task)
		case <-s.stop:
			for {
				select {
				case task := <-s.pending:
					s.push(task)
				default:
					return
				}
			}
		}
	}
}

func (s *Scheduler) push(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.queue.Enqueue(ctx, task); err != nil {
		enqueued.WithLabelValues(string(task.Kind), "error").Inc()
		s.logger.Warn("failed to enqueue cleanup task",
			"error", err,
			"kind", string(task.Kind),
			"id", task.ID,
		)
		return
	}
	enqueued.WithLabelValues(string(task.Kind), "ok").Inc()
}

// Worker drains a Queue.
type Worker struct {
	queue    Queue
	deleters map[Kind]Deleter
	wait     time.Duration
	logger   *slog.Logger
}

type Option func(*Worker)

// WithPollWait bounds how long Start blocks on an empty queue before
// re-checking ctx.
func WithPollWait(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.wait = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWorker(queue Queue, opts ...Option) (*Worker, error) {
	if queue == nil {
		return nil, errors.New("cleanup queue is required")
	}
	w := &Worker{
		queue:    queue,
		deleters: make(map[Kind]Deleter),
		wait:     2 * time.Second,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Handle registers the deleter for kind. Call before Start.
func (w *Worker) Handle(kind Kind, d Deleter) {
	w.deleters[kind] = d
}

// Start processes tasks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		task, ok, err := w.queue.Dequeue(ctx, w.wait)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.ErrorContext(ctx, "cleanup dequeue failed", "error", err)
			// Back off so a broken backend does not spin.
			select {
			case <-time.After(w.wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		if ok {
			w.process(ctx, task)
		}
	}
}

// RunOnce drains every task currently queued and returns how many were
// processed.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	n := 0
	for {
		task, ok, err := w.queue.Dequeue(ctx, 0)
		if err != nil {
			return n, fmt.Errorf("dequeue cleanup task: %w", err)
		}
		if !ok {
			return n, nil
		}
		w.process(ctx, task)
		n++
	}
}

func (w *Worker) process(ctx context.Context, task Task) {
	d, ok := w.deleters[task.Kind]
	if !ok {
		processed.WithLabelValues(string(task.Kind), "unknown_kind").Inc()
		w.logger.WarnContext(ctx, "no deleter for cleanup task", "kind", string(task.Kind), "id", task.ID)
		return
	}
	if err := d.Purge(ctx, task.ID); err != nil {
		processed.WithLabelValues(string(task.Kind), "error").Inc()
		w.logger.WarnContext(ctx, "cleanup delete failed",
			"error", err,
			"kind", string(task.Kind),
			"id", task.ID,
		)
		return
	}
	processed.WithLabelValues(string(task.Kind), "ok").Inc()
}
