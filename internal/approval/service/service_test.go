package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Credentials,Issuer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dhruva/internal/approval/models"
	"dhruva/internal/approval/service/mocks"
	"dhruva/internal/approval/store"
	credservice "dhruva/internal/credential/service"
	credstore "dhruva/internal/credential/store"
	"dhruva/internal/ledger"
	"dhruva/internal/ledger/memory"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/platform/sentinel"
	"dhruva/pkg/requestcontext"
	"dhruva/pkg/testutil"
)

const (
	requester = "0xaaa"
	org       = "0xbbb"
	docHash   = "0x123"
)

type ServiceSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	store       *store.InMemory
	mirrors     *credstore.InMemory
	ledger      *memory.Ledger
	credentials *credservice.Service
	service     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = store.NewInMemory()
	s.mirrors = credstore.NewInMemory()
	s.ledger = memory.New("0xowner", memory.WithAuthorizedIssuers(org), memory.WithClock(func() time.Time { return s.now }))

	creds, err := credservice.New(s.mirrors, s.ledger)
	s.Require().NoError(err)
	s.credentials = creds

	svc, err := New(s.store, WithCredentials(creds), WithIssuer(s.ledger))
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) submit() *models.Request {
	req, err := s.service.Submit(s.ctx, SubmitCommand{
		Requester:    "0xAAA",
		Organization: "0xBBB",
		DocumentHash: docHash,
		DocumentName: "Degree",
		Metadata:     map[string]any{"course": "CS", "year": float64(2024)},
	})
	s.Require().NoError(err)
	return req
}

func (s *ServiceSuite) TestSubmit() {
	s.Run("canonicalizes and stores pending", func() {
		s.SetupTest()
		req := s.submit()
		s.Equal(requester, req.Requester)
		s.Equal(org, req.Organization)
		s.Equal(domain.StatusPending, req.Status)
		s.Equal(s.now, req.RequestedAt)

		stored, err := s.service.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(map[string]any{"course": "CS", "year": float64(2024)}, stored.Metadata)
	})

	s.Run("duplicate pending triple conflicts until resolved", func() {
		s.SetupTest()
		first := s.submit()

		_, err := s.service.Submit(s.ctx, SubmitCommand{Requester: requester, Organization: org, DocumentHash: docHash, DocumentName: "Degree"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal("duplicate_pending", dErrors.ReasonOf(err))

		_, err = s.service.Decide(s.ctx, first.ID, DecideCommand{Decision: "rejected"})
		s.Require().NoError(err)

		again := s.submit()
		s.NotEqual(first.ID, again.ID)
	})

	s.Run("required fields", func() {
		s.SetupTest()
		_, err := s.service.Submit(s.ctx, SubmitCommand{Requester: requester, Organization: org, DocumentHash: docHash})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("concurrent duplicates have one winner", func() {
		s.SetupTest()
		result := testutil.RunConcurrent(10, func(int) error {
			_, err := s.service.Submit(s.ctx, SubmitCommand{Requester: requester, Organization: org, DocumentHash: docHash, DocumentName: "Degree"})
			return err
		})
		s.Equal(int32(1), result.Successes)
		s.Equal(int32(9), result.Conflicts)
	})
}

func (s *ServiceSuite) TestDecide() {
	s.Run("approve with credential reference", func() {
		s.SetupTest()
		req := s.submit()

		outcome, err := s.service.Decide(s.ctx, req.ID, DecideCommand{
			Decision:        "approved",
			Responder:       "0xBBB",
			ResponseMessage: "Approved",
			CredentialRef:   "0xCAFE",
		})
		s.Require().NoError(err)
		s.Equal(domain.StatusApproved, outcome.Request.Status)
		s.Equal("0xCAFE", outcome.Request.IssuedCredentialHash)
		s.Equal("Approved", outcome.Request.ResponseMessage)
		s.Require().NotNil(outcome.Request.RespondedAt)
		// No mirror exists for 0xCAFE, which is reported but not fatal.
		s.Equal([]string{models.WarningMarkVerifiedFailed}, outcome.Warnings)
		s.Equal(0, s.ledger.Writes())
	})

	s.Run("reject keeps message", func() {
		s.SetupTest()
		req := s.submit()
		outcome, err := s.service.Decide(s.ctx, req.ID, DecideCommand{Decision: "rejected", ResponseMessage: "blurry scan"})
		s.Require().NoError(err)
		s.Equal(domain.StatusRejected, outcome.Request.Status)
		s.Equal("blurry scan", outcome.Request.ResponseMessage)
		s.Empty(outcome.Request.IssuedCredentialHash)
	})

	s.Run("terminal states reject every transition", func() {
		s.SetupTest()
		req := s.submit()
		_, err := s.service.Decide(s.ctx, req.ID, DecideCommand{Decision: "approved"})
		s.Require().NoError(err)

		for _, d := range []string{"approved", "rejected"} {
			_, err = s.service.Decide(s.ctx, req.ID, DecideCommand{Decision: d})
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidState), d)
		}
		err = s.service.Cancel(s.ctx, req.ID, requester)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("other organization is forbidden", func() {
		s.SetupTest()
		req := s.submit()
		_, err := s.service.Decide(s.ctx, req.ID, DecideCommand{Decision: "approved", Responder: "0xccc"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		stored, err := s.service.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.True(stored.IsPending())
	})

	s.Run("invalid decision and missing request", func() {
		s.SetupTest()
		req := s.submit()
		_, err := s.service.Decide(s.ctx, req.ID, DecideCommand{Decision: "pending"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = s.service.Decide(s.ctx, domain.NewApprovalID(), DecideCommand{Decision: "approved"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("concurrent decisions have one winner", func() {
		s.SetupTest()
		req := s.submit()
		result := testutil.RunConcurrent(10, func(i int) error {
			d := "approved"
			if i%2 == 0 {
				d = "rejected"
			}
			_, err := s.service.Decide(s.ctx, req.ID, DecideCommand{Decision: d})
			return err
		})
		s.Equal(int32(1), result.Successes)
		s.Equal(int32(9), result.InvalidStates)
	})
}

func (s *ServiceSuite) TestCancel() {
	s.Run("requester cancels", func() {
		s.SetupTest()
		req := s.submit()
		s.Require().NoError(s.service.Cancel(s.ctx, req.ID, "0xAAA"))
		_, err := s.service.Get(s.ctx, req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("someone else is forbidden and record stays", func() {
		s.SetupTest()
		req := s.submit()
		err := s.service.Cancel(s.ctx, req.ID, "0xddd")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		stored, err := s.service.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.True(stored.IsPending())
	})

	s.Run("anonymous cancel is allowed", func() {
		s.SetupTest()
		req := s.submit()
		s.NoError(s.service.Cancel(s.ctx, req.ID, ""))
	})

	s.Run("decision racing the cancel wins", func() {
		s.SetupTest()
		ctrl := gomock.NewController(s.T())
		st := mocks.NewMockStore(ctrl)
		svc, err := New(st)
		s.Require().NoError(err)

		req := models.NewRequest(models.NewRequestParams{Requester: requester, Organization: org, DocumentHash: docHash, DocumentName: "Degree"}, s.now)
		st.EXPECT().FindByID(gomock.Any(), req.ID).Return(req, nil)
		st.EXPECT().DeletePending(gomock.Any(), req.ID).Return(sentinel.ErrInvalidState)

		err = svc.Cancel(s.ctx, req.ID, requester)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestListing() {
	first := s.submit()
	_, err := s.service.Submit(s.ctx, SubmitCommand{Requester: "0xccc", Organization: org, DocumentHash: "0x456", DocumentName: "Transcript"})
	s.Require().NoError(err)
	_, err = s.service.Decide(s.ctx, first.ID, DecideCommand{Decision: "approved"})
	s.Require().NoError(err)

	all, err := s.service.ListByOrganization(s.ctx, "0xBBB", "")
	s.Require().NoError(err)
	s.Len(all, 2)

	pending, err := s.service.ListByOrganization(s.ctx, org, "pending")
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal("Transcript", pending[0].DocumentName)

	_, err = s.service.ListByOrganization(s.ctx, org, "archived")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	mine, err := s.service.ListByRequester(s.ctx, "0xAAA")
	s.Require().NoError(err)
	s.Len(mine, 1)
}

func (s *ServiceSuite) TestIssueAndApprove() {
	s.Run("anchors, mirrors and approves", func() {
		s.SetupTest()
		req := s.submit()

		result, err := s.service.IssueAndApprove(s.ctx, req.ID, IssueCommand{Caller: org, ResponseMessage: "Approved"})
		s.Require().NoError(err)
		s.Empty(result.Warnings)
		s.Equal(ledger.CredentialHash(requester, org, docHash), result.CredentialHash)
		s.NotEmpty(result.TxHash)
		s.Equal(domain.StatusApproved, result.Request.Status)
		s.Equal(result.CredentialHash, result.Request.IssuedCredentialHash)

		v, err := s.credentials.Verify(s.ctx, result.CredentialHash)
		s.Require().NoError(err)
		s.True(v.Valid())
		s.Require().NotNil(v.Mirror)
		s.True(v.Mirror.Verified)
		s.Equal(org, v.Mirror.VerifiedBy)
	})

	s.Run("ledger refusal leaves request pending", func() {
		s.SetupTest()
		s.ledger = memory.New("0xowner")
		svc, err := New(s.store, WithCredentials(s.credentials), WithIssuer(s.ledger))
		s.Require().NoError(err)
		req := s.submit()

		_, err = svc.IssueAndApprove(s.ctx, req.ID, IssueCommand{Caller: org})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(ledger.ReasonNotIssuer, dErrors.ReasonOf(err))

		stored, err := s.service.Get(s.ctx, req.ID)
		s.Require().NoError(err)
		s.True(stored.IsPending())
	})

	s.Run("ledger outage is upstream failure", func() {
		s.SetupTest()
		req := s.submit()
		s.ledger.SetUnavailable(true)

		_, err := s.service.IssueAndApprove(s.ctx, req.ID, IssueCommand{Caller: org})
		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
	})

	s.Run("caller must be the addressed organization", func() {
		s.SetupTest()
		req := s.submit()
		_, err := s.service.IssueAndApprove(s.ctx, req.ID, IssueCommand{Caller: "0xccc"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(0, s.ledger.Writes())
	})

	s.Run("mirror failure is a warning", func() {
		s.SetupTest()
		ctrl := gomock.NewController(s.T())
		creds := mocks.NewMockCredentials(ctrl)
		svc, err := New(s.store, WithCredentials(creds), WithIssuer(s.ledger))
		s.Require().NoError(err)
		req := s.submit()

		creds.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
		creds.EXPECT().MarkVerified(gomock.Any(), gomock.Any(), org).Return(errors.New("db down"))

		result, err := svc.IssueAndApprove(s.ctx, req.ID, IssueCommand{Caller: org})
		s.Require().NoError(err)
		s.Equal([]string{models.WarningMirrorRecordFailed, models.WarningMarkVerifiedFailed}, result.Warnings)
		s.Equal(domain.StatusApproved, result.Request.Status)
	})

	s.Run("not configured", func() {
		s.SetupTest()
		svc, err := New(s.store)
		s.Require().NoError(err)
		_, err = svc.IssueAndApprove(s.ctx, domain.NewApprovalID(), IssueCommand{Caller: org})
		s.Error(err)
	})
}
