package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dhruva/internal/identity/models"
	"dhruva/pkg/domain"
	"dhruva/pkg/platform/sentinel"
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

func (s *InMemoryStoreSuite) newAccount(username, wallet string, role models.Role) *models.Account {
	a, err := models.NewAccount(domain.NewAccountID(), username, role, wallet, models.OrganizationProfile{}, time.Now())
	s.Require().NoError(err)
	return a
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	a := s.newAccount("Acme", "0xBBB", models.RoleOrganization)
	s.Require().NoError(s.store.Create(s.ctx, a))

	byID, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("0xbbb", byID.WalletAddress)
	s.False(byID.IsApproved)
	s.Equal(models.DefaultOrganizationName, byID.Organization.Name)

	byWallet, err := s.store.FindByWallet(s.ctx, " 0xbBb ")
	s.Require().NoError(err)
	s.Equal(a.ID, byWallet.ID)

	byName, err := s.store.FindByUsername(s.ctx, "acme")
	s.Require().NoError(err)
	s.Equal(a.ID, byName.ID)

	_, err = s.store.FindByID(s.ctx, domain.NewAccountID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestCreateConflicts() {
	s.Require().NoError(s.store.Create(s.ctx, s.newAccount("alice", "0xaaa", models.RoleHolder)))

	s.Run("username is case-insensitive", func() {
		err := s.store.Create(s.ctx, s.newAccount("ALICE", "", models.RoleHolder))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("wallet maps to one account", func() {
		err := s.store.Create(s.ctx, s.newAccount("bob", "0xAAA", models.RoleHolder))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *InMemoryStoreSuite) TestSaveMaintainsWalletIndex() {
	a := s.newAccount("alice", "0xaaa", models.RoleHolder)
	b := s.newAccount("bob", "", models.RoleHolder)
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	s.Run("cannot steal a wallet", func() {
		b.WalletAddress = "0xaaa"
		s.ErrorIs(s.store.Save(s.ctx, b), sentinel.ErrConflict)
	})

	s.Run("unlink frees the wallet", func() {
		a.WalletAddress = ""
		s.Require().NoError(s.store.Save(s.ctx, a))
		_, err := s.store.FindByWallet(s.ctx, "0xaaa")
		s.ErrorIs(err, sentinel.ErrNotFound)

		b.WalletAddress = "0xaaa"
		s.Require().NoError(s.store.Save(s.ctx, b))
		got, err := s.store.FindByWallet(s.ctx, "0xaaa")
		s.Require().NoError(err)
		s.Equal(b.ID, got.ID)
	})

	s.Run("missing account", func() {
		s.ErrorIs(s.store.Save(s.ctx, s.newAccount("carol", "", models.RoleHolder)), sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestReturnsCopies() {
	a := s.newAccount("alice", "", models.RoleOrganization)
	s.Require().NoError(s.store.Create(s.ctx, a))

	got, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	got.IsApproved = true

	again, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.False(again.IsApproved)
}
