package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dhruva/internal/reconcile"
	"dhruva/internal/reconcile/handler/mocks"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) TestDrift() {
	s.Run("caller from query", func() {
		s.SetupTest()
		id := domain.NewVettingID()
		s.service.EXPECT().CheckDrift(gomock.Any(), id, "0xowner").
			Return(&reconcile.Drift{RequestID: id, Wallet: "0xbbb", Caller: "0xowner", Status: reconcile.DriftMissingOnChain}, nil)

		w := s.do(httptest.NewRequest(http.MethodGet, "/admin/org-requests/"+id.String()+"/drift?caller=0xowner", nil))
		s.Require().Equal(http.StatusOK, w.Code)

		var resp DriftResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("missing_on_chain", resp.Status)
		s.Equal("0xbbb", resp.Wallet)
	})

	s.Run("bad id", func() {
		s.SetupTest()
		w := s.do(httptest.NewRequest(http.MethodGet, "/admin/org-requests/x/drift", nil))
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestSync() {
	s.Run("authorized", func() {
		s.SetupTest()
		id := domain.NewVettingID()
		s.service.EXPECT().SyncAuthorization(gomock.Any(), id, "0xowner").
			Return(&reconcile.SyncOutcome{RequestID: id, Wallet: "0xbbb", Status: reconcile.SyncAuthorized, TxHash: "0xtx"}, nil)

		w := s.do(httptest.NewRequest(http.MethodPost, "/admin/org-requests/"+id.String()+"/sync", strings.NewReader(`{"caller":"0xOWNER"}`)))
		s.Require().Equal(http.StatusOK, w.Code)

		var resp SyncResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("authorized", resp.Status)
		s.Equal("0xtx", resp.TxHash)
	})

	s.Run("empty body uses operator", func() {
		s.SetupTest()
		id := domain.NewVettingID()
		s.service.EXPECT().SyncAuthorization(gomock.Any(), id, "").
			Return(&reconcile.SyncOutcome{RequestID: id, Status: reconcile.SyncAlreadyAuthorized}, nil)

		w := s.do(httptest.NewRequest(http.MethodPost, "/admin/org-requests/"+id.String()+"/sync", nil))
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("caller not privileged", func() {
		s.SetupTest()
		id := domain.NewVettingID()
		s.service.EXPECT().SyncAuthorization(gomock.Any(), id, gomock.Any()).
			Return(nil, dErrors.NewWithReason(dErrors.CodeForbidden, "caller_not_privileged", "owner must act", nil))

		w := s.do(httptest.NewRequest(http.MethodPost, "/admin/org-requests/"+id.String()+"/sync", strings.NewReader(`{"caller":"0xnobody"}`)))
		s.Require().Equal(http.StatusForbidden, w.Code)
		s.Contains(w.Body.String(), "caller_not_privileged")
	})
}

func (s *HandlerSuite) TestRepair() {
	id := domain.NewVettingID()
	accountID := domain.NewAccountID()
	s.service.EXPECT().RepairAccount(gomock.Any(), id).
		Return(&reconcile.Repair{RequestID: id, AccountID: accountID, Repaired: true}, nil)

	w := s.do(httptest.NewRequest(http.MethodPost, "/admin/org-requests/"+id.String()+"/repair", nil))
	s.Require().Equal(http.StatusOK, w.Code)

	var resp RepairResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Repaired)
	s.Equal(accountID.String(), resp.AccountID)
}

func (s *HandlerSuite) TestSweep() {
	ok := domain.NewVettingID()
	failed := domain.NewVettingID()
	s.service.EXPECT().Sweep(gomock.Any(), "").Return(&reconcile.SweepReport{
		Checked:  2,
		Drift:    []reconcile.Drift{{RequestID: ok, Status: reconcile.DriftInSync}},
		Failures: []reconcile.SweepFailure{{RequestID: failed, Err: errors.New("account missing")}},
	}, nil)

	w := s.do(httptest.NewRequest(http.MethodPost, "/admin/reconcile", nil))
	s.Require().Equal(http.StatusOK, w.Code)

	var resp SweepResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(2, resp.Checked)
	s.Require().Len(resp.Failures, 1)
	s.Equal(failed.String(), resp.Failures[0].RequestID)
	s.Equal("in_sync", resp.Drift[0].Status)
}
