package reconcile

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks VettingStore,AccountStore,Ledger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	identity "dhruva/internal/identity/models"
	idstore "dhruva/internal/identity/store"
	"dhruva/internal/ledger"
	"dhruva/internal/ledger/memory"
	"dhruva/internal/reconcile/mocks"
	vetting "dhruva/internal/vetting/models"
	vstore "dhruva/internal/vetting/store"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/requestcontext"
	"dhruva/pkg/testutil"
)

const (
	owner   = "0xowner"
	orgAddr = "0xbbb"
)

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	accounts *idstore.InMemory
	requests *vstore.InMemory
	ledger   *memory.Ledger
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.accounts = idstore.NewInMemory()
	s.requests = vstore.NewInMemory()
	s.ledger = memory.New(owner)
	s.service = s.newService(s.ledger)
}

func (s *ServiceSuite) newService(l Ledger, opts ...Option) *Service {
	svc, err := New(s.requests, s.accounts, l, opts...)
	s.Require().NoError(err)
	return svc
}

// org stores an organization account. approved simulates an approval whose
// account half landed.
func (s *ServiceSuite) org(username, wallet string, approved bool) *identity.Account {
	a, err := identity.NewAccount(domain.NewAccountID(), username, identity.RoleOrganization, wallet, identity.OrganizationProfile{Name: "Acme"}, s.now)
	s.Require().NoError(err)
	if approved {
		a.Approve("root", wallet, s.now)
	}
	s.Require().NoError(s.accounts.Create(s.ctx, a))
	return a
}

func (s *ServiceSuite) request(accountID domain.AccountID, wallet string, approve bool) *vetting.Request {
	req, created, err := s.requests.CreatePending(s.ctx, vetting.NewRequest(accountID, wallet, "Acme", "", "", s.now))
	s.Require().NoError(err)
	s.Require().True(created)
	if !approve {
		return req
	}
	reviewedAt := s.now.Add(-time.Hour)
	req, err = s.requests.Execute(s.ctx, req.ID, func(*vetting.Request) error { return nil }, func(r *vetting.Request) {
		r.Approve("root", reviewedAt)
	})
	s.Require().NoError(err)
	return req
}

func (s *ServiceSuite) TestCheckDrift() {
	s.Run("in sync", func() {
		s.SetupTest()
		s.ledger = memory.New(owner, memory.WithAuthorizedIssuers(orgAddr))
		s.service = s.newService(s.ledger)
		req := s.request(s.org("acme", orgAddr, true).ID, orgAddr, true)

		d, err := s.service.CheckDrift(s.ctx, req.ID, owner)
		s.Require().NoError(err)
		s.Equal(DriftInSync, d.Status)
	})

	s.Run("missing on chain is stable and read only", func() {
		s.SetupTest()
		req := s.request(s.org("acme", orgAddr, true).ID, orgAddr, true)

		first, err := s.service.CheckDrift(s.ctx, req.ID, owner)
		s.Require().NoError(err)
		second, err := s.service.CheckDrift(s.ctx, req.ID, owner)
		s.Require().NoError(err)

		s.Equal(DriftMissingOnChain, first.Status)
		s.Equal(first, second)
		s.Zero(s.ledger.Writes())
	})

	s.Run("authorized issuer counts as privileged", func() {
		s.SetupTest()
		s.ledger = memory.New(owner, memory.WithAuthorizedIssuers("0xissuer"))
		s.service = s.newService(s.ledger)
		req := s.request(s.org("acme", orgAddr, true).ID, orgAddr, true)

		d, err := s.service.CheckDrift(s.ctx, req.ID, "0xIssuer")
		s.Require().NoError(err)
		s.Equal(DriftMissingOnChain, d.Status)
	})

	s.Run("unprivileged caller", func() {
		s.SetupTest()
		req := s.request(s.org("acme", orgAddr, true).ID, orgAddr, true)

		d, err := s.service.CheckDrift(s.ctx, req.ID, "0xnobody")
		s.Require().NoError(err)
		s.Equal(DriftUnauthorizedCaller, d.Status)

		d, err = s.service.CheckDrift(s.ctx, req.ID, "")
		s.Require().NoError(err)
		s.Equal(DriftUnauthorizedCaller, d.Status)
	})

	s.Run("operator is the default caller", func() {
		s.SetupTest()
		s.service = s.newService(s.ledger, WithOperator(owner))
		req := s.request(s.org("acme", orgAddr, true).ID, orgAddr, true)

		d, err := s.service.CheckDrift(s.ctx, req.ID, "")
		s.Require().NoError(err)
		s.Equal(DriftMissingOnChain, d.Status)
		s.Equal(owner, d.Caller)
	})

	s.Run("request without wallet", func() {
		s.SetupTest()
		req := s.request(s.org("acme", "", false).ID, "", false)

		_, err := s.service.CheckDrift(s.ctx, req.ID, owner)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown request", func() {
		s.SetupTest()
		_, err := s.service.CheckDrift(s.ctx, domain.NewVettingID(), owner)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("ledger unavailable", func() {
		s.SetupTest()
		req := s.request(s.org("acme", orgAddr, true).ID, orgAddr, true)
		s.ledger.SetUnavailable(true)

		_, err := s.service.CheckDrift(s.ctx, req.ID, owner)
		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
	})
}

func (s *ServiceSuite) TestSyncAuthorization() {
	s.Run("authorizes once then reports already authorized", func() {
		s.SetupTest()
		req := s.request(s.org("acme", orgAddr, true).ID, orgAddr, true)

		out, err := s.service.SyncAuthorization(s.ctx, req.ID, owner)
		s.Require().NoError(err)
		s.Equal(SyncAuthorized, out.Status)
		s.NotEmpty(out.TxHash)

		out, err = s.service.SyncAuthorization(s.ctx, req.ID, owner)
		s.Require().NoError(err)
		s.Equal(SyncAlreadyAuthorized, out.Status)
		s.Empty(out.TxHash)
		s.Equal(1, s.ledger.Writes())

		d, err := s.service.CheckDrift(s.ctx, req.ID, owner)
		s.Require().NoError(err)
		s.Equal(DriftInSync, d.Status)
	})

	s.Run("unprivileged caller is refused before writing", func() {
		s.SetupTest()
		req := s.request(s.org("acme", orgAddr, true).ID, orgAddr, true)

		_, err := s.service.SyncAuthorization(s.ctx, req.ID, "0xnobody")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(ledger.ReasonCallerNotPrivileged, dErrors.ReasonOf(err))
		s.Zero(s.ledger.Writes())
	})

	s.Run("pending request cannot be synced", func() {
		s.SetupTest()
		req := s.request(s.org("acme", orgAddr, false).ID, orgAddr, false)

		_, err := s.service.SyncAuthorization(s.ctx, req.ID, owner)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Zero(s.ledger.Writes())
	})

	s.Run("ledger outage surfaces as upstream failure", func() {
		s.SetupTest()
		req := s.request(s.org("acme", orgAddr, true).ID, orgAddr, true)
		s.ledger.SetUnavailable(true)

		_, err := s.service.SyncAuthorization(s.ctx, req.ID, owner)
		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
		s.Equal(ledger.ReasonUnavailable, dErrors.ReasonOf(err))
	})
}

func (s *ServiceSuite) TestSyncAuthorizationLedgerRejection() {
	ctrl := gomock.NewController(s.T())
	l := mocks.NewMockLedger(ctrl)
	svc := s.newService(l)
	req := s.request(s.org("acme", orgAddr, true).ID, orgAddr, true)

	l.EXPECT().IsAuthorizedIssuer(gomock.Any(), orgAddr).Return(false, nil).Times(2)
	l.EXPECT().Owner(gomock.Any()).Return(owner, nil).Times(2)

	s.Run("privilege failure", func() {
		l.EXPECT().AuthorizeIssuer(gomock.Any(), orgAddr, owner).
			Return(nil, ledger.NewError("authorize_issuer", ledger.KindUnauthorized, ledger.ReasonCallerNotSigner, nil))

		_, err := svc.SyncAuthorization(s.ctx, req.ID, owner)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(ledger.ReasonCallerNotSigner, dErrors.ReasonOf(err))
	})

	s.Run("revert", func() {
		l.EXPECT().AuthorizeIssuer(gomock.Any(), orgAddr, owner).
			Return(nil, ledger.NewError("authorize_issuer", ledger.KindReverted, ledger.ReasonInvalidAddress, nil))

		_, err := svc.SyncAuthorization(s.ctx, req.ID, owner)
		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
		s.Equal(ledger.ReasonInvalidAddress, dErrors.ReasonOf(err))
	})
}

func (s *ServiceSuite) TestRepairAccount() {
	s.Run("applies the account half once", func() {
		s.SetupTest()
		account := s.org("acme", "", false)
		req := s.request(account.ID, orgAddr, true)

		out, err := s.service.RepairAccount(s.ctx, req.ID)
		s.Require().NoError(err)
		s.True(out.Repaired)

		repaired, err := s.accounts.FindByID(s.ctx, account.ID)
		s.Require().NoError(err)
		s.True(repaired.IsApproved)
		s.Equal("root", repaired.ApprovedBy)
		s.Equal(orgAddr, repaired.WalletAddress)
		s.Equal(*req.ReviewedAt, *repaired.ApprovedAt)

		out, err = s.service.RepairAccount(s.ctx, req.ID)
		s.Require().NoError(err)
		s.False(out.Repaired)
		s.Zero(s.ledger.Writes())
	})

	s.Run("wallet conflict", func() {
		s.SetupTest()
		account := s.org("acme", "0xccc", false)
		req := s.request(account.ID, orgAddr, true)

		_, err := s.service.RepairAccount(s.ctx, req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("wallet held by another account", func() {
		s.SetupTest()
		s.org("alice", orgAddr, false)
		account := s.org("acme", "", false)
		req := s.request(account.ID, orgAddr, true)

		_, err := s.service.RepairAccount(s.ctx, req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal("wallet_conflict", dErrors.ReasonOf(err))

		unchanged, err := s.accounts.FindByID(s.ctx, account.ID)
		s.Require().NoError(err)
		s.False(unchanged.IsApproved)
	})

	s.Run("pending request", func() {
		s.SetupTest()
		req := s.request(s.org("acme", orgAddr, false).ID, orgAddr, false)

		_, err := s.service.RepairAccount(s.ctx, req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("missing account", func() {
		s.SetupTest()
		req := s.request(domain.NewAccountID(), orgAddr, true)

		_, err := s.service.RepairAccount(s.ctx, req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("save failure", func() {
		s.SetupTest()
		ctrl := gomock.NewController(s.T())
		accounts := mocks.NewMockAccountStore(ctrl)
		svc, err := New(s.requests, accounts, s.ledger)
		s.Require().NoError(err)

		account := s.org("acme", orgAddr, false)
		req := s.request(account.ID, orgAddr, true)
		accounts.EXPECT().FindByID(gomock.Any(), account.ID).Return(account, nil)
		accounts.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

		_, err = svc.RepairAccount(s.ctx, req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestConcurrentRepairsWriteOnce() {
	account := s.org("acme", "", false)
	req := s.request(account.ID, orgAddr, true)

	var repaired atomic.Int32
	result := testutil.RunConcurrent(10, func(int) error {
		out, err := s.service.RepairAccount(s.ctx, req.ID)
		if err == nil && out.Repaired {
			repaired.Add(1)
		}
		return err
	})
	s.Equal(int32(10), result.Successes)
	s.Equal(int32(1), repaired.Load())
}

func (s *ServiceSuite) TestSweep() {
	s.ledger = memory.New(owner, memory.WithAuthorizedIssuers("0xsynced"))
	s.service = s.newService(s.ledger, WithOperator(owner))

	s.request(s.org("synced", "0xsynced", true).ID, "0xsynced", true)
	lagging := s.request(s.org("lagging", "", false).ID, orgAddr, true)
	s.request(s.org("waiting", "0xddd", false).ID, "0xddd", false)
	orphan := s.request(domain.NewAccountID(), "0xeee", true)

	report, err := s.service.Sweep(s.ctx, "")
	s.Require().NoError(err)

	s.Equal(3, report.Checked)
	s.Equal(1, report.Repaired)
	s.Require().Len(report.Failures, 1)
	s.Equal(orphan.ID, report.Failures[0].RequestID)
	s.True(dErrors.HasCode(report.Failures[0].Err, dErrors.CodeNotFound))

	s.Len(report.Drift, 2)
	outOfSync := report.OutOfSync()
	s.Require().Len(outOfSync, 1)
	s.Equal(lagging.ID, outOfSync[0].RequestID)
	s.Equal(DriftMissingOnChain, outOfSync[0].Status)
	s.Zero(s.ledger.Writes())

	again, err := s.service.Sweep(s.ctx, "")
	s.Require().NoError(err)
	s.Zero(again.Repaired)
	s.ElementsMatch(report.Drift, again.Drift)
}

func (s *ServiceSuite) TestSweepListFailure() {
	ctrl := gomock.NewController(s.T())
	requests := mocks.NewMockVettingStore(ctrl)
	svc, err := New(requests, s.accounts, s.ledger)
	s.Require().NoError(err)

	requests.EXPECT().ListByStatus(gomock.Any(), domain.StatusApproved).Return(nil, errors.New("db down"))

	_, err = svc.Sweep(s.ctx, owner)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
