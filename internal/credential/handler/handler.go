package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dhruva/internal/credential/models"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/platform/httputil"
	"dhruva/pkg/platform/middleware/auth"
	"dhruva/pkg/platform/validation"
	"dhruva/pkg/requestcontext"
)

type Service interface {
	Verify(ctx context.Context, hash string) (*models.Verification, error)
	Revoke(ctx context.Context, hash, caller string) (*models.Revocation, error)
	ListByHolder(ctx context.Context, holder string) ([]*models.Mirror, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/credentials/holder/{address}", h.HandleListByHolder)
	r.Get("/credentials/{hash}/verify", h.HandleVerify)
	r.Post("/credentials/{hash}/revoke", h.HandleRevoke)
}

type RevokeRequest struct {
	Caller string `json:"caller" validate:"omitempty,address,max=128"`
}

func (r *RevokeRequest) Sanitize() { r.Caller = strings.TrimSpace(r.Caller) }

func (r *RevokeRequest) Validate() error { return validation.Validate(r) }

type MirrorResponse struct {
	Hash        string     `json:"hash"`
	Holder      string     `json:"holder"`
	Issuer      string     `json:"issuer"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ExpiryDate  int64      `json:"expiryDate,omitempty"`
	TxHash      string     `json:"txHash,omitempty"`
	IssuedAt    time.Time  `json:"issuedAt"`
	Verified    bool       `json:"verified"`
	VerifiedBy  string     `json:"verifiedBy,omitempty"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty"`
	Revoked     bool       `json:"revoked"`
	RevokedAt   *time.Time `json:"revokedAt,omitempty"`
}

type VerifyResponse struct {
	Hash    string          `json:"hash"`
	Valid   bool            `json:"valid"`
	Exists  bool            `json:"exists"`
	Revoked bool            `json:"revoked"`
	Expired bool            `json:"expired"`
	Issuer  string          `json:"issuer,omitempty"`
	Holder  string          `json:"holder,omitempty"`
	Name    string          `json:"name,omitempty"`
	Mirror  *MirrorResponse `json:"mirror,omitempty"`
}

type RevokeResponse struct {
	Hash     string   `json:"hash"`
	TxHash   string   `json:"txHash,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := h.service.Verify(ctx, chi.URLParam(r, "hash"))
	if err != nil {
		h.fail(ctx, w, "failed to verify credential", err)
		return
	}
	resp := VerifyResponse{
		Hash:    v.Status.Hash,
		Valid:   v.Valid(),
		Exists:  v.Status.Exists,
		Revoked: v.Status.Revoked,
		Expired: v.Status.Expired,
		Issuer:  v.Status.Issuer,
		Holder:  v.Status.Holder,
		Name:    v.Status.Name,
	}
	if v.Mirror != nil {
		m := toMirrorResponse(v.Mirror)
		resp.Mirror = &m
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleRevoke revokes as the body caller, defaulting to the token wallet.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeOptionalJSON[RevokeRequest](w, r, h.logger, ctx, requestID)
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

	result, err := h.service.Revoke(ctx, chi.URLParam(r, "hash"), caller)
	if err != nil {
		h.fail(ctx, w, "failed to revoke credential", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RevokeResponse{Hash: result.Hash, TxHash: result.TxHash, Warnings: result.Warnings})
}

func (h *Handler) HandleListByHolder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mirrors, err := h.service.ListByHolder(ctx, chi.URLParam(r, "address"))
	if err != nil {
		h.fail(ctx, w, "failed to list credentials", err)
		return
	}
	out := make([]MirrorResponse, 0, len(mirrors))
	for _, m := range mirrors {
		out = append(out, toMirrorResponse(m))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func toMirrorResponse(m *models.Mirror) MirrorResponse {
	return MirrorResponse{
		Hash:        m.Hash,
		Holder:      m.Holder,
		Issuer:      m.Issuer,
		Name:        m.Name,
		Description: m.Description,
		ExpiryDate:  m.ExpiryDate,
		TxHash:      m.TxHash,
		IssuedAt:    m.IssuedAt,
		Verified:    m.Verified,
		VerifiedBy:  m.VerifiedBy,
		VerifiedAt:  m.VerifiedAt,
		Revoked:     m.Revoked,
		RevokedAt:   m.RevokedAt,
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
