package store

import (
	"context"
	"sort"
	"sync"

	"dhruva/internal/vetting/models"
	"dhruva/pkg/domain"
	"dhruva/pkg/platform/sentinel"
)

// InMemory keeps vetting requests in process. The pending-per-account
// invariant is checked under the write lock.
type InMemory struct {
	mu       sync.RWMutex
	requests map[domain.VettingID]*models.Request
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[domain.VettingID]*models.Request)}
}

// CreatePending stores req unless the account already has a pending
// request, in which case that one is returned with created=false.
func (s *InMemory) CreatePending(_ context.Context, req *models.Request) (*models.Request, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.AccountID == req.AccountID && existing.IsPending() {
			return existing.Clone(), false, nil
		}
	}
	if _, exists := s.requests[req.ID]; exists {
		return nil, false, sentinel.ErrConflict
	}
	s.requests[req.ID] = req.Clone()
	return req.Clone(), true, nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.VettingID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.Request, error) {
	return s.list(func(*models.Request) bool { return true }), nil
}

func (s *InMemory) ListByStatus(_ context.Context, status domain.ReviewStatus) ([]*models.Request, error) {
	return s.list(func(r *models.Request) bool { return r.Status == status }), nil
}

func (s *InMemory) list(keep func(*models.Request) bool) []*models.Request {
	s.mu.RLock()
	out := make([]*models.Request, 0, len(s.requests))
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Execute atomically validates and mutates a request under lock.
func (s *InMemory) Execute(_ context.Context, id domain.VettingID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := r.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.requests[id] = working
	return working.Clone(), nil
}

func (s *InMemory) Delete(_ context.Context, id domain.VettingID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.requests, id)
	return nil
}
