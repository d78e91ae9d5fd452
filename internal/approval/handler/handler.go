package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dhruva/internal/approval/models"
	"dhruva/internal/approval/service"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/platform/httputil"
	"dhruva/pkg/platform/middleware/auth"
	"dhruva/pkg/requestcontext"
)

// Service is the approval workflow surface the handler needs.
type Service interface {
	Submit(ctx context.Context, cmd service.SubmitCommand) (*models.Request, error)
	Get(ctx context.Context, id domain.ApprovalID) (*models.Request, error)
	ListByOrganization(ctx context.Context, organization, status string) ([]*models.Request, error)
	ListByRequester(ctx context.Context, requester string) ([]*models.Request, error)
	Decide(ctx context.Context, id domain.ApprovalID, cmd service.DecideCommand) (*models.Outcome, error)
	Cancel(ctx context.Context, id domain.ApprovalID, requester string) error
	IssueAndApprove(ctx context.Context, id domain.ApprovalID, cmd service.IssueCommand) (*models.IssueOutcome, error)
}

// Handler serves /approval-requests. Addresses a bearer token vouches for
// default the requester, responder and caller fields.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/approval-requests", func(r chi.Router) {
		r.Post("/", h.HandleSubmit)
		r.Get("/organization/{address}", h.HandleListByOrganization)
		r.Get("/requester/{address}", h.HandleListByRequester)
		r.Get("/{id}", h.HandleGet)
		r.Patch("/{id}", h.HandleDecide)
		r.Delete("/{id}", h.HandleCancel)
		r.Post("/{id}/issue", h.HandleIssue)
	})
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	requester, err := auth.ResolveWallet(ctx, req.Requester, "requester")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.Submit(ctx, service.SubmitCommand{
		Requester:    requester,
		Organization: req.Organization,
		DocumentHash: req.DocumentHash,
		DocumentName: req.DocumentName,
		DocumentType: req.DocumentType,
		Description:  req.Description,
		FileURL:      req.FileURL,
		ExpiryDate:   req.ExpiryDate,
		Metadata:     req.Metadata,
	})
	if err != nil {
		h.fail(ctx, w, "failed to submit approval request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, OutcomeResponse{Success: true, Request: toRequestResponse(created)})
}

func (h *Handler) HandleListByOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requests, err := h.service.ListByOrganization(ctx, chi.URLParam(r, "address"), r.URL.Query().Get("status"))
	if err != nil {
		h.fail(ctx, w, "failed to list organization requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequestResponses(requests))
}

func (h *Handler) HandleListByRequester(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requests, err := h.service.ListByRequester(ctx, chi.URLParam(r, "address"))
	if err != nil {
		h.fail(ctx, w, "failed to list requester requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequestResponses(requests))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseApprovalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get approval request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequestResponse(req))
}

func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseApprovalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[DecideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	responder, err := auth.ResolveWallet(ctx, req.Responder, "responder")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.service.Decide(ctx, id, service.DecideCommand{
		Decision:        req.Status,
		Responder:       responder,
		ResponseMessage: req.ResponseMessage,
		CredentialRef:   req.IssuedCredentialHash,
	})
	if err != nil {
		h.fail(ctx, w, "failed to decide approval request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OutcomeResponse{
		Success:  true,
		Request:  toRequestResponse(outcome.Request),
		Warnings: outcome.Warnings,
	})
}

// HandleCancel reads the requester from the query string.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseApprovalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	requester, err := auth.ResolveWallet(ctx, r.URL.Query().Get("requester"), "requester")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Cancel(ctx, id, requester); err != nil {
		h.fail(ctx, w, "failed to cancel approval request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CancelResponse{Success: true, Message: "Request cancelled"})
}

func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseApprovalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeOptionalJSON[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := httputil.PrepareRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	caller, err := auth.ResolveWallet(ctx, req.Caller, "caller")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.IssueAndApprove(ctx, id, service.IssueCommand{
		Responder:       req.Responder,
		Caller:          caller,
		CredentialHash:  req.CredentialHash,
		ExpiryDate:      req.ExpiryDate,
		ResponseMessage: req.ResponseMessage,
	})
	if err != nil {
		h.fail(ctx, w, "failed to issue credential", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, IssueResponse{
		OutcomeResponse: OutcomeResponse{
			Success:  true,
			Request:  toRequestResponse(result.Request),
			Warnings: result.Warnings,
		},
		CredentialHash: result.CredentialHash,
		TxHash:         result.TxHash,
	})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
