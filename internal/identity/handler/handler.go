package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dhruva/internal/identity/models"
	"dhruva/internal/identity/service"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/platform/httputil"
	"dhruva/pkg/requestcontext"
)

// Service is the identity surface the handler needs.
type Service interface {
	Register(ctx context.Context, cmd service.RegisterCommand) (*models.Account, error)
	Get(ctx context.Context, id domain.AccountID) (*models.Account, error)
	GetByWallet(ctx context.Context, wallet string) (*models.Account, error)
	LinkWallet(ctx context.Context, id domain.AccountID, wallet string) (*models.Account, error)
	UnlinkWallet(ctx context.Context, id domain.AccountID, wallet string) (*models.UnlinkResult, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/accounts", h.HandleRegister)
	r.Get("/accounts/wallet/{address}", h.HandleGetByWallet)
	r.Get("/accounts/{id}", h.HandleGet)
	r.Post("/accounts/{id}/wallet", h.HandleLinkWallet)
	r.Delete("/accounts/{id}/wallet", h.HandleUnlinkWallet)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	account, err := h.service.Register(ctx, service.RegisterCommand{
		Username:      req.Username,
		Role:          req.Role,
		WalletAddress: req.WalletAddress,
		Organization: models.OrganizationProfile{
			Name:        req.OrganizationName,
			Website:     req.Website,
			Description: req.Description,
		},
	})
	if err != nil {
		h.fail(ctx, w, "failed to register account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	account, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) HandleGetByWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := h.service.GetByWallet(ctx, chi.URLParam(r, "address"))
	if err != nil {
		h.fail(ctx, w, "failed to get account by wallet", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) HandleLinkWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := h.ownAccountID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[WalletRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	account, err := h.service.LinkWallet(ctx, id, req.WalletAddress)
	if err != nil {
		h.fail(ctx, w, "failed to link wallet", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

// HandleUnlinkWallet reads the wallet from the body, falling back to the
// walletAddress query parameter for clients that cannot send DELETE bodies.
func (h *Handler) HandleUnlinkWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := h.ownAccountID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeOptionalJSON[WalletRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.WalletAddress == "" {
		req.WalletAddress = r.URL.Query().Get("walletAddress")
	}
	if err := httputil.PrepareRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.UnlinkWallet(ctx, id, req.WalletAddress)
	if err != nil {
		h.fail(ctx, w, "failed to unlink wallet", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, UnlinkResponse{
		Account:                  toAccountResponse(result.Account),
		OldWalletAddress:         result.OldWalletAddress,
		RequiresLedgerRevocation: result.RequiresLedgerRevocation,
	})
}

// ownAccountID parses the path ID and, for token callers, requires it to be
// their own account unless they are an admin.
func (h *Handler) ownAccountID(ctx context.Context, raw string) (domain.AccountID, error) {
	id, err := domain.ParseAccountID(raw)
	if err != nil {
		return id, err
	}
	if p, ok := requestcontext.GetPrincipal(ctx); ok && p.Role != string(models.RoleAdmin) && p.Subject != id.String() {
		return id, dErrors.New(dErrors.CodeForbidden, "token does not belong to this account")
	}
	return id, nil
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
