package store

import (
	"context"
	"sort"
	"sync"

	"dhruva/internal/credential/models"
	"dhruva/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	mirrors map[string]*models.Mirror
}

func NewInMemory() *InMemory {
	return &InMemory{mirrors: make(map[string]*models.Mirror)}
}

func (s *InMemory) Create(_ context.Context, m *models.Mirror) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.HashKey(m.Hash)
	if _, exists := s.mirrors[key]; exists {
		return sentinel.ErrConflict
	}
	c := m.Clone()
	c.Hash = key
	s.mirrors[key] = c
	return nil
}

func (s *InMemory) FindByHash(_ context.Context, hash string) (*models.Mirror, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mirrors[models.HashKey(hash)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return m.Clone(), nil
}

func (s *InMemory) ListByHolder(_ context.Context, holder string) ([]*models.Mirror, error) {
	s.mu.RLock()
	out := make([]*models.Mirror, 0)
	for _, m := range s.mirrors {
		if m.Holder == holder {
			out = append(out, m.Clone())
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

// Update applies mutate to the stored mirror under lock.
func (s *InMemory) Update(_ context.Context, hash string, mutate func(*models.Mirror)) (*models.Mirror, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mirrors[models.HashKey(hash)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := m.Clone()
	mutate(working)
	s.mirrors[working.Hash] = working
	return working.Clone(), nil
}
