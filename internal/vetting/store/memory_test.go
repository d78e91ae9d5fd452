package store

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dhruva/internal/vetting/models"
	"dhruva/pkg/domain"
	"dhruva/pkg/platform/sentinel"
	"dhruva/pkg/testutil"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) TestCreatePendingIsIdempotentPerAccount() {
	account := domain.NewAccountID()
	first := models.NewRequest(account, "0xbbb", "Acme", "", "", time.Now())

	got, created, err := s.store.CreatePending(s.ctx, first)
	s.Require().NoError(err)
	s.True(created)
	s.Equal(first.ID, got.ID)

	second := models.NewRequest(account, "0xbbb", "Acme", "", "", time.Now())
	got, created, err = s.store.CreatePending(s.ctx, second)
	s.Require().NoError(err)
	s.False(created)
	s.Equal(first.ID, got.ID)
}

func (s *InMemoryStoreSuite) TestConcurrentCreateLeavesOnePending() {
	account := domain.NewAccountID()
	var created atomic.Int32
	result := testutil.RunConcurrent(20, func(int) error {
		_, ok, err := s.store.CreatePending(s.ctx, models.NewRequest(account, "0xbbb", "Acme", "", "", time.Now()))
		if ok {
			created.Add(1)
		}
		return err
	})
	s.Equal(int32(20), result.Successes)
	s.Equal(int32(1), created.Load())

	pending, err := s.store.ListByStatus(s.ctx, domain.StatusPending)
	s.Require().NoError(err)
	s.Len(pending, 1)
}

func (s *InMemoryStoreSuite) TestExecuteIsCompareAndSwap() {
	req := models.NewRequest(domain.NewAccountID(), "0xbbb", "Acme", "", "", time.Now())
	_, _, err := s.store.CreatePending(s.ctx, req)
	s.Require().NoError(err)

	decide := func(int) error {
		_, err := s.store.Execute(s.ctx, req.ID,
			func(r *models.Request) error {
				if !r.IsPending() {
					return sentinel.ErrInvalidState
				}
				return nil
			},
			func(r *models.Request) { r.Approve("admin", time.Now()) },
		)
		return err
	}
	result := testutil.RunConcurrent(10, decide)
	s.Equal(int32(1), result.Successes)
	s.Equal(int32(9), result.InvalidStates)

	_, err = s.store.Execute(s.ctx, domain.NewVettingID(), func(*models.Request) error { return nil }, func(*models.Request) {})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListNewestFirstAndDelete() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	older := models.NewRequest(domain.NewAccountID(), "0x1", "Old", "", "", base)
	newer := models.NewRequest(domain.NewAccountID(), "0x2", "New", "", "", base.Add(time.Hour))
	for _, r := range []*models.Request{older, newer} {
		_, _, err := s.store.CreatePending(s.ctx, r)
		s.Require().NoError(err)
	}

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(newer.ID, all[0].ID)

	s.Require().NoError(s.store.Delete(s.ctx, older.ID))
	s.ErrorIs(s.store.Delete(s.ctx, older.ID), sentinel.ErrNotFound)
	_, err = s.store.FindByID(s.ctx, older.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
