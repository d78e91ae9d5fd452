package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dhruva/internal/vetting/models"
	"dhruva/internal/vetting/service"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/platform/httputil"
	"dhruva/pkg/requestcontext"
)

// Service is the vetting surface the admin handler needs.
type Service interface {
	Submit(ctx context.Context, accountID domain.AccountID, cmd service.SubmitCommand) (*models.Request, bool, error)
	List(ctx context.Context) ([]models.Listing, error)
	Decide(ctx context.Context, id domain.VettingID, cmd service.DecideCommand) (*models.Decision, error)
}

// Handler serves the admin vetting routes. Callers mount it behind the
// admin token middleware.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/org-requests", h.HandleSubmit)
	r.Get("/admin/org-requests", h.HandleList)
	r.Post("/admin/org-requests/{id}/approve", h.decide("approve"))
	r.Post("/admin/org-requests/{id}/reject", h.decide("reject"))
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	accountID, err := domain.ParseAccountID(req.AccountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	vr, created, err := h.service.Submit(ctx, accountID, service.SubmitCommand{
		WalletAddress:    req.WalletAddress,
		OrganizationName: req.OrganizationName,
		Website:          req.Website,
		Description:      req.Description,
	})
	if err != nil {
		h.fail(ctx, w, "failed to submit vetting request", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, SubmitResponse{Request: toRequestResponse(vr), Created: created})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listings, err := h.service.List(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list vetting requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(listings))
}

func (h *Handler) decide(decision string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		id, err := domain.ParseVettingID(chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		req, ok := httputil.DecodeOptionalJSON[DecideRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		if err := httputil.PrepareRequest(req); err != nil {
			httputil.WriteError(w, err)
			return
		}
		reviewer := req.AdminUsername
		if reviewer == "" {
			reviewer = requestcontext.AdminActor(ctx)
		}

		result, err := h.service.Decide(ctx, id, service.DecideCommand{
			Decision: decision,
			Reviewer: reviewer,
			Reason:   req.Reason,
		})
		if err != nil {
			h.fail(ctx, w, "failed to decide vetting request", err)
			return
		}
		if result.LedgerSync != nil && result.LedgerSync.Status == models.LedgerFailed {
			h.logger.WarnContext(ctx, "vetting approved without ledger authorization",
				"vetting_id", id.String(),
				"reason", result.LedgerSync.Reason,
				"request_id", requestID,
			)
		}
		httputil.WriteJSON(w, http.StatusOK, toDecisionResponse(result))
	}
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
