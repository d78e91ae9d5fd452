package store

import (
	"context"
	"sort"
	"sync"

	"dhruva/internal/approval/models"
	"dhruva/pkg/domain"
	"dhruva/pkg/platform/sentinel"
)

// InMemory keeps approval requests in process, with a pending index on the
// (requester, organization, documentHash) triple.
type InMemory struct {
	mu       sync.RWMutex
	requests map[domain.ApprovalID]*models.Request
	pending  map[string]domain.ApprovalID
}

func NewInMemory() *InMemory {
	return &InMemory{
		requests: make(map[domain.ApprovalID]*models.Request),
		pending:  make(map[string]domain.ApprovalID),
	}
}

// CreatePending stores req or returns sentinel.ErrConflict when its triple
// already has a pending request.
func (s *InMemory) CreatePending(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pending[req.Key()]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = req.Clone()
	s.pending[req.Key()] = req.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ApprovalID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// ListByOrganization returns the organization's requests newest first. An
// empty status means all.
func (s *InMemory) ListByOrganization(_ context.Context, organization string, status domain.ReviewStatus) ([]*models.Request, error) {
	return s.list(func(r *models.Request) bool {
		return r.Organization == organization && (status == "" || r.Status == status)
	}), nil
}

func (s *InMemory) ListByRequester(_ context.Context, requester string) ([]*models.Request, error) {
	return s.list(func(r *models.Request) bool { return r.Requester == requester }), nil
}

func (s *InMemory) list(keep func(*models.Request) bool) []*models.Request {
	s.mu.RLock()
	out := make([]*models.Request, 0)
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out
}

// Execute atomically validates and mutates a request under lock.
func (s *InMemory) Execute(_ context.Context, id domain.ApprovalID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error) {
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
	if !working.IsPending() {
		delete(s.pending, working.Key())
	}
	return working.Clone(), nil
}

// DeletePending removes a request only while it is still pending, so a
// concurrent decision always wins over a cancel.
func (s *InMemory) DeletePending(_ context.Context, id domain.ApprovalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !r.IsPending() {
		return sentinel.ErrInvalidState
	}
	delete(s.pending, r.Key())
	delete(s.requests, id)
	return nil
}
