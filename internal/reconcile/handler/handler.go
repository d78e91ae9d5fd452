package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"dhruva/internal/reconcile"
	"dhruva/pkg/domain"
	"dhruva/pkg/platform/httputil"
	"dhruva/pkg/requestcontext"
)

type Service interface {
	CheckDrift(ctx context.Context, id domain.VettingID, caller string) (*reconcile.Drift, error)
	SyncAuthorization(ctx context.Context, id domain.VettingID, caller string) (*reconcile.SyncOutcome, error)
	RepairAccount(ctx context.Context, id domain.VettingID) (*reconcile.Repair, error)
	Sweep(ctx context.Context, caller string) (*reconcile.SweepReport, error)
}

// Handler serves the admin reconcile routes. A blank caller falls back to
// the service's configured operator.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/org-requests/{id}/drift", h.HandleDrift)
	r.Post("/admin/org-requests/{id}/sync", h.HandleSync)
	r.Post("/admin/org-requests/{id}/repair", h.HandleRepair)
	r.Post("/admin/reconcile", h.HandleSweep)
}

type CallerRequest struct {
	Caller string `json:"caller"`
}

func (r *CallerRequest) Normalize() {
	r.Caller = domain.CanonicalAddress(r.Caller)
}

type DriftResponse struct {
	RequestID string `json:"requestId"`
	Wallet    string `json:"walletAddress"`
	Caller    string `json:"caller,omitempty"`
	Status    string `json:"status"`
}

type SyncResponse struct {
	RequestID string `json:"requestId"`
	Wallet    string `json:"walletAddress"`
	Status    string `json:"status"`
	TxHash    string `json:"txHash,omitempty"`
}

type RepairResponse struct {
	RequestID string `json:"requestId"`
	AccountID string `json:"accountId"`
	Repaired  bool   `json:"repaired"`
}

type FailureResponse struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error"`
}

type SweepResponse struct {
	Checked  int               `json:"checked"`
	Repaired int               `json:"repaired"`
	Drift    []DriftResponse   `json:"drift"`
	Failures []FailureResponse `json:"failures"`
}

func toDriftResponse(d reconcile.Drift) DriftResponse {
	return DriftResponse{
		RequestID: d.RequestID.String(),
		Wallet:    d.Wallet,
		Caller:    d.Caller,
		Status:    string(d.Status),
	}
}

func (h *Handler) HandleDrift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseVettingID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	caller := strings.TrimSpace(r.URL.Query().Get("caller"))

	d, err := h.service.CheckDrift(ctx, id, caller)
	if err != nil {
		h.fail(ctx, w, "failed to check issuer drift", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDriftResponse(*d))
}

func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseVettingID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := h.decodeCaller(w, r)
	if !ok {
		return
	}

	out, err := h.service.SyncAuthorization(ctx, id, req.Caller)
	if err != nil {
		h.fail(ctx, w, "failed to sync issuer authorization", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SyncResponse{
		RequestID: out.RequestID.String(),
		Wallet:    out.Wallet,
		Status:    string(out.Status),
		TxHash:    out.TxHash,
	})
}

func (h *Handler) HandleRepair(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseVettingID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out, err := h.service.RepairAccount(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to repair account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RepairResponse{
		RequestID: out.RequestID.String(),
		AccountID: out.AccountID.String(),
		Repaired:  out.Repaired,
	})
}

func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := h.decodeCaller(w, r)
	if !ok {
		return
	}

	report, err := h.service.Sweep(ctx, req.Caller)
	if err != nil {
		h.fail(ctx, w, "reconcile sweep failed", err)
		return
	}
	resp := SweepResponse{
		Checked:  report.Checked,
		Repaired: report.Repaired,
		Drift:    make([]DriftResponse, 0, len(report.Drift)),
		Failures: make([]FailureResponse, 0, len(report.Failures)),
	}
	for _, d := range report.Drift {
		resp.Drift = append(resp.Drift, toDriftResponse(d))
	}
	for _, f := range report.Failures {
		resp.Failures = append(resp.Failures, FailureResponse{RequestID: f.RequestID.String(), Error: f.Err.Error()})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) decodeCaller(w http.ResponseWriter, r *http.Request) (*CallerRequest, bool) {
	ctx := r.Context()
	req, ok := httputil.DecodeOptionalJSON[CallerRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return nil, false
	}
	if err := httputil.PrepareRequest(req); err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return req, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
