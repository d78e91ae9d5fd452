package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AccountStore,IssuerAuthorizer,CleanupScheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dhruva/internal/cleanup"
	identity "dhruva/internal/identity/models"
	idstore "dhruva/internal/identity/store"
	"dhruva/internal/ledger"
	"dhruva/internal/ledger/memory"
	"dhruva/internal/vetting/models"
	"dhruva/internal/vetting/service/mocks"
	vstore "dhruva/internal/vetting/store"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/platform/audit"
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
	s.service = s.newService(WithLedger(s.ledger, owner))
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	svc, err := New(s.requests, s.accounts, opts...)
	s.Require().NoError(err)
	return svc
}

func (s *ServiceSuite) org(username, wallet string) *identity.Account {
	a, err := identity.NewAccount(domain.NewAccountID(), username, identity.RoleOrganization, wallet, identity.OrganizationProfile{Name: "Acme"}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.accounts.Create(s.ctx, a))
	return a
}

func (s *ServiceSuite) submitted(account *identity.Account) *models.Request {
	req, created, err := s.service.Submit(s.ctx, account.ID, SubmitCommand{})
	s.Require().NoError(err)
	s.Require().True(created)
	return req
}

func (s *ServiceSuite) approve(id domain.VettingID) (*models.Decision, error) {
	return s.service.Decide(s.ctx, id, DecideCommand{Decision: "approve", Reviewer: "root"})
}

func (s *ServiceSuite) reload(id domain.AccountID) *identity.Account {
	a, err := s.accounts.FindByID(s.ctx, id)
	s.Require().NoError(err)
	return a
}

func (s *ServiceSuite) TestSubmit() {
	s.Run("idempotent while pending", func() {
		s.SetupTest()
		account := s.org("acme", orgAddr)
		first := s.submitted(account)
		s.Equal(domain.StatusPending, first.Status)
		s.Equal("Acme", first.OrganizationName)

		again, created, err := s.service.Submit(s.ctx, account.ID, SubmitCommand{})
		s.Require().NoError(err)
		s.False(created)
		s.Equal(first.ID, again.ID)
	})

	s.Run("requires organization role", func() {
		s.SetupTest()
		holder, _ := identity.NewAccount(domain.NewAccountID(), "alice", identity.RoleHolder, "0xaaa", identity.OrganizationProfile{}, s.now)
		s.Require().NoError(s.accounts.Create(s.ctx, holder))

		_, _, err := s.service.Submit(s.ctx, holder.ID, SubmitCommand{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("requires a wallet", func() {
		s.SetupTest()
		account := s.org("acme", "")
		_, _, err := s.service.Submit(s.ctx, account.ID, SubmitCommand{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("missing_wallet", dErrors.ReasonOf(err))
	})

	s.Run("explicit wallet overrides account", func() {
		s.SetupTest()
		account := s.org("acme", "")
		req, _, err := s.service.Submit(s.ctx, account.ID, SubmitCommand{WalletAddress: " 0xCCC "})
		s.Require().NoError(err)
		s.Equal("0xccc", req.WalletAddress)
	})

	s.Run("unknown account", func() {
		s.SetupTest()
		_, _, err := s.service.Submit(s.ctx, domain.NewAccountID(), SubmitCommand{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestReject() {
	account := s.org("acme", orgAddr)
	req := s.submitted(account)

	decision, err := s.service.Decide(s.ctx, req.ID, DecideCommand{Decision: "reject", Reviewer: "root"})
	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, decision.Request.Status)
	s.Equal(models.DefaultRejectionReason, decision.Request.RejectionReason)
	s.Equal("root", decision.Request.ReviewedBy)
	s.Nil(decision.LedgerSync)
	s.False(s.reload(account.ID).IsApproved)
	s.Equal(0, s.ledger.Writes())

	_, err = s.approve(req.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ServiceSuite) TestApprove() {
	s.Run("approves account and authorizes issuer", func() {
		s.SetupTest()
		account := s.org("acme", orgAddr)
		req := s.submitted(account)

		decision, err := s.approve(req.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusApproved, decision.Request.Status)
		s.Empty(decision.Warnings)
		s.Equal(models.LedgerAuthorized, decision.LedgerSync.Status)
		s.NotEmpty(decision.LedgerSync.TxHash)

		updated := s.reload(account.ID)
		s.True(updated.IsApproved)
		s.Equal("root", updated.ApprovedBy)
		s.Require().NotNil(updated.ApprovedAt)

		authorized, err := s.ledger.IsAuthorizedIssuer(s.ctx, orgAddr)
		s.Require().NoError(err)
		s.True(authorized)
	})

	s.Run("terminal after approval", func() {
		s.SetupTest()
		req := s.submitted(s.org("acme", orgAddr))
		_, err := s.approve(req.ID)
		s.Require().NoError(err)

		_, err = s.approve(req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		_, err = s.service.Decide(s.ctx, req.ID, DecideCommand{Decision: "reject", Reviewer: "root"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("adopts request wallet when account has none", func() {
		s.SetupTest()
		account := s.org("acme", "")
		req, _, err := s.service.Submit(s.ctx, account.ID, SubmitCommand{WalletAddress: orgAddr})
		s.Require().NoError(err)

		_, err = s.approve(req.ID)
		s.Require().NoError(err)
		s.Equal(orgAddr, s.reload(account.ID).WalletAddress)
	})

	s.Run("already authorized on ledger", func() {
		s.SetupTest()
		s.ledger = memory.New(owner, memory.WithAuthorizedIssuers(orgAddr))
		s.service = s.newService(WithLedger(s.ledger, owner))
		req := s.submitted(s.org("acme", orgAddr))

		decision, err := s.approve(req.ID)
		s.Require().NoError(err)
		s.Equal(models.LedgerAlreadyAuthorized, decision.LedgerSync.Status)
		s.Equal(0, s.ledger.Writes())
	})

	s.Run("skipped without operator", func() {
		s.SetupTest()
		s.service = s.newService()
		req := s.submitted(s.org("acme", orgAddr))

		decision, err := s.approve(req.ID)
		s.Require().NoError(err)
		s.Equal(models.LedgerSkipped, decision.LedgerSync.Status)
	})

	s.Run("ledger failure keeps partial approval", func() {
		s.SetupTest()
		s.service = s.newService(WithLedger(s.ledger, "0xnotowner"))
		account := s.org("acme", orgAddr)
		req := s.submitted(account)

		decision, err := s.approve(req.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusApproved, decision.Request.Status)
		s.Equal(models.LedgerFailed, decision.LedgerSync.Status)
		s.Equal(string(ledger.KindUnauthorized), decision.LedgerSync.Kind)
		s.True(s.reload(account.ID).IsApproved)
	})
}

func (s *ServiceSuite) TestApproveRequiringLedgerAuth() {
	s.Run("ledger failure leaves everything pending", func() {
		s.SetupTest()
		s.ledger.SetUnavailable(true)
		s.service = s.newService(WithLedger(s.ledger, owner), WithRequireLedgerAuth(true))
		account := s.org("acme", orgAddr)
		req := s.submitted(account)

		_, err := s.approve(req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))

		stored, err := s.service.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusPending, stored.Status)
		s.False(s.reload(account.ID).IsApproved)
	})

	s.Run("unprivileged operator is forbidden", func() {
		s.SetupTest()
		s.service = s.newService(WithLedger(s.ledger, "0xnotowner"), WithRequireLedgerAuth(true))
		req := s.submitted(s.org("acme", orgAddr))

		_, err := s.approve(req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("success authorizes before committing", func() {
		s.SetupTest()
		s.service = s.newService(WithLedger(s.ledger, owner), WithRequireLedgerAuth(true))
		req := s.submitted(s.org("acme", orgAddr))

		decision, err := s.approve(req.ID)
		s.Require().NoError(err)
		s.Equal(models.LedgerAuthorized, decision.LedgerSync.Status)
		s.Equal(1, s.ledger.Writes())
	})
}

func (s *ServiceSuite) TestApproveRequiringLedgerAuthWithoutOperator() {
	s.Run("require mode without operator leaves request pending", func() {
		s.SetupTest()
		s.service = s.newService(WithLedger(memory.New(owner), ""), WithRequireLedgerAuth(true))
		account := s.org("acme", orgAddr)
		req := s.submitted(account)

		_, err := s.approve(req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
		s.Equal("ledger_not_configured", dErrors.ReasonOf(err))

		stored, err := s.service.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusPending, stored.Status)
		s.False(s.reload(account.ID).IsApproved)
	})

	s.Run("require mode without ledger", func() {
		s.SetupTest()
		s.service = s.newService(WithRequireLedgerAuth(true))
		req := s.submitted(s.org("acme", orgAddr))

		_, err := s.approve(req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
	})
}

type capturedEvents struct{ events []audit.Event }

func (c *capturedEvents) Emit(_ context.Context, e audit.Event) error {
	c.events = append(c.events, e)
	return nil
}

func (c *capturedEvents) actions() []string {
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Action)
	}
	return out
}

func (s *ServiceSuite) TestAuthorizationWithoutCommittedApprovalIsAudited() {
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockStore(ctrl)
	account := s.org("acme", orgAddr)
	req := models.NewRequest(account.ID, orgAddr, "Acme", "", "", s.now)

	store.EXPECT().FindByID(gomock.Any(), req.ID).Return(req, nil)
	// A concurrent reject won the compare-and-set.
	store.EXPECT().Execute(gomock.Any(), req.ID, gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInvalidState, "vetting request is already rejected"))

	events := &capturedEvents{}
	svc, err := New(store, s.accounts,
		WithLedger(s.ledger, owner),
		WithRequireLedgerAuth(true),
		WithAuditor(audit.NewLogger(slog.New(slog.DiscardHandler), events)),
	)
	s.Require().NoError(err)

	_, err = svc.Decide(s.ctx, req.ID, DecideCommand{Decision: "approve", Reviewer: "root"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	s.Contains(events.actions(), audit.ActionIssuerAuthOrphaned)
	s.False(s.reload(account.ID).IsApproved)

	authorized, err := s.ledger.IsAuthorizedIssuer(s.ctx, orgAddr)
	s.Require().NoError(err)
	s.True(authorized)
}

func (s *ServiceSuite) TestApproveValidatesBeforeWriting() {
	s.Run("wallet mismatch is a conflict and changes nothing", func() {
		s.SetupTest()
		account := s.org("acme", orgAddr)
		req, _, err := s.service.Submit(s.ctx, account.ID, SubmitCommand{WalletAddress: "0xccc"})
		s.Require().NoError(err)

		_, err = s.approve(req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		stored, err := s.service.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusPending, stored.Status)
		s.False(s.reload(account.ID).IsApproved)
		s.Equal(0, s.ledger.Writes())
	})

	s.Run("empty wallet fails before any account mutation", func() {
		s.SetupTest()
		account := s.org("acme", "")
		req := models.NewRequest(account.ID, "", "Acme", "", "", s.now)
		_, _, err := s.requests.CreatePending(s.ctx, req)
		s.Require().NoError(err)

		_, err = s.approve(req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.False(s.reload(account.ID).IsApproved)
	})

	s.Run("wallet owned by another account", func() {
		s.SetupTest()
		holder, _ := identity.NewAccount(domain.NewAccountID(), "alice", identity.RoleHolder, orgAddr, identity.OrganizationProfile{}, s.now)
		s.Require().NoError(s.accounts.Create(s.ctx, holder))
		account := s.org("acme", "")
		req, _, err := s.service.Submit(s.ctx, account.ID, SubmitCommand{WalletAddress: orgAddr})
		s.Require().NoError(err)

		_, err = s.approve(req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("missing account", func() {
		s.SetupTest()
		req := models.NewRequest(domain.NewAccountID(), orgAddr, "Ghost", "", "", s.now)
		_, _, err := s.requests.CreatePending(s.ctx, req)
		s.Require().NoError(err)

		_, err = s.approve(req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("blank reviewer and bad decision", func() {
		s.SetupTest()
		req := s.submitted(s.org("acme", orgAddr))
		_, err := s.service.Decide(s.ctx, req.ID, DecideCommand{Decision: "approve"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.Decide(s.ctx, req.ID, DecideCommand{Decision: "maybe", Reviewer: "root"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestAccountUpdateFailureIsAWarning() {
	ctrl := gomock.NewController(s.T())
	accounts := mocks.NewMockAccountStore(ctrl)
	account, _ := identity.NewAccount(domain.NewAccountID(), "acme", identity.RoleOrganization, orgAddr, identity.OrganizationProfile{}, s.now)
	req := models.NewRequest(account.ID, orgAddr, "Acme", "", "", s.now)
	_, _, err := s.requests.CreatePending(s.ctx, req)
	s.Require().NoError(err)

	accounts.EXPECT().FindByID(gomock.Any(), account.ID).Return(account, nil)
	accounts.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	svc, err := New(s.requests, accounts, WithLedger(s.ledger, owner))
	s.Require().NoError(err)

	decision, err := svc.Decide(s.ctx, req.ID, DecideCommand{Decision: "approve", Reviewer: "root"})
	s.Require().NoError(err)
	s.Equal(domain.StatusApproved, decision.Request.Status)
	s.Equal([]string{models.WarningAccountUpdateFailed}, decision.Warnings)
	s.Equal(models.LedgerAuthorized, decision.LedgerSync.Status)
}

func (s *ServiceSuite) TestConcurrentDecisionsHaveOneWinner() {
	req := s.submitted(s.org("acme", orgAddr))

	result := testutil.RunConcurrent(10, func(i int) error {
		decision := "approve"
		if i%2 == 1 {
			decision = "reject"
		}
		_, err := s.service.Decide(s.ctx, req.ID, DecideCommand{Decision: decision, Reviewer: "root"})
		return err
	})
	s.Equal(int32(1), result.Successes)
	s.Equal(int32(9), result.InvalidStates)
}

func (s *ServiceSuite) TestListSkipsAndSchedulesCorruptRecords() {
	ctrl := gomock.NewController(s.T())
	scheduler := mocks.NewMockCleanupScheduler(ctrl)
	s.service = s.newService(WithCleanup(scheduler))

	good := s.submitted(s.org("acme", orgAddr))
	orphan := models.NewRequest(domain.NewAccountID(), "0xddd", "Gone", "", "", s.now.Add(time.Minute))
	blank := models.NewRequest(s.org("blank", "").ID, "", "Blank", "", "", s.now.Add(2*time.Minute))
	for _, r := range []*models.Request{orphan, blank} {
		_, _, err := s.requests.CreatePending(s.ctx, r)
		s.Require().NoError(err)
	}

	scheduler.EXPECT().Schedule(gomock.Any(), cleanup.KindVettingRequest, orphan.ID.String())
	scheduler.EXPECT().Schedule(gomock.Any(), cleanup.KindVettingRequest, blank.ID.String())

	listings, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(listings, 1)
	s.Equal(good.ID, listings[0].Request.ID)
	s.Equal("acme", listings[0].Account.Username)
	s.False(listings[0].Account.IsApproved)
}

func (s *ServiceSuite) TestPurge() {
	good := s.submitted(s.org("acme", orgAddr))
	orphan := models.NewRequest(domain.NewAccountID(), "0xddd", "Gone", "", "", s.now)
	_, _, err := s.requests.CreatePending(s.ctx, orphan)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Purge(s.ctx, orphan.ID.String()))
	_, err = s.service.Get(s.ctx, orphan.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	// Healthy and already-gone records are left alone.
	s.Require().NoError(s.service.Purge(s.ctx, good.ID.String()))
	_, err = s.service.Get(s.ctx, good.ID)
	s.NoError(err)
	s.NoError(s.service.Purge(s.ctx, orphan.ID.String()))
}
