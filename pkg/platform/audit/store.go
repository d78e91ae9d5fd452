package audit

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Store is the append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// InMemoryStore keeps events in process. Used by tests and when no
// database is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subject string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	s.mu.RUnlock()

	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(events []Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].ID > events[j].ID })
}

// Tee appends to a primary store and mirrors to secondary sinks. Reads go
// to the primary only. A secondary failure is joined into the returned
// error after the primary write succeeded.
type Tee struct {
	primary     Store
	secondaries []Sink
}

// Sink is a write-only destination such as a Kafka topic.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

func NewTee(primary Store, secondaries ...Sink) *Tee {
	return &Tee{primary: primary, secondaries: secondaries}
}

func (t *Tee) Append(ctx context.Context, event Event) error {
	if err := t.primary.Append(ctx, event); err != nil {
		return err
	}
	var errs []error
	for _, s := range t.secondaries {
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Tee) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	return t.primary.ListBySubject(ctx, subject)
}

func (t *Tee) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return t.primary.ListRecent(ctx, limit)
}
