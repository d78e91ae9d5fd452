package service

import (
	"context"
	"errors"
	"log/slog"

	"dhruva/internal/credential/models"
	"dhruva/internal/ledger"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/platform/audit"
	"dhruva/pkg/platform/sentinel"
	"dhruva/pkg/requestcontext"
)

// Store persists credential mirrors. Find and Update return
// sentinel.ErrNotFound; Create returns sentinel.ErrConflict for a known hash.
type Store interface {
	Create(ctx context.Context, mirror *models.Mirror) error
	FindByHash(ctx context.Context, hash string) (*models.Mirror, error)
	ListByHolder(ctx context.Context, holder string) ([]*models.Mirror, error)
	Update(ctx context.Context, hash string, mutate func(*models.Mirror)) (*models.Mirror, error)
}

// Ledger is the slice of the gateway the mirror needs.
type Ledger interface {
	VerifyCredential(ctx context.Context, hash string) (*ledger.CredentialStatus, error)
	RevokeCredential(ctx context.Context, hash, caller string) (*ledger.Receipt, error)
}

type Service struct {
	store   Store
	ledger  Ledger
	auditor *audit.Logger
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(auditor *audit.Logger) Option {
	return func(s *Service) { s.auditor = auditor }
}

func New(store Store, l Ledger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}
	if l == nil {
		return nil, errors.New("ledger gateway is required")
	}
	s := &Service{store: store, ledger: l, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record stores the mirror of a credential just anchored on the ledger.
func (s *Service) Record(ctx context.Context, m *models.Mirror) error {
	m.Hash = models.HashKey(m.Hash)
	m.Holder = domain.CanonicalAddress(m.Holder)
	m.Issuer = domain.CanonicalAddress(m.Issuer)
	if m.IssuedAt.IsZero() {
		m.IssuedAt = requestcontext.Now(ctx)
	}
	if err := s.store.Create(ctx, m); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "credential already recorded")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record credential")
	}
	s.auditor.Record(ctx, audit.Event{
		Action:  audit.ActionCredentialIssued,
		Subject: m.Hash,
		ActorID: m.Issuer,
	})
	return nil
}

// MarkVerified flags the mirror as vouched for by verifiedBy. Repeating it
// keeps the first verifier. A missing mirror is NotFound; callers decide
// whether that matters.
func (s *Service) MarkVerified(ctx context.Context, hash, verifiedBy string) error {
	_, err := s.store.Update(ctx, hash, func(m *models.Mirror) {
		m.MarkVerified(domain.CanonicalAddress(verifiedBy), requestcontext.Now(ctx))
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark credential verified")
	}
	return nil
}

// Verify asks the ledger and attaches the mirror when there is one.
func (s *Service) Verify(ctx context.Context, hash string) (*models.Verification, error) {
	normalized, err := ledger.NormalizeHash(hash)
	if err != nil {
		return nil, err
	}
	status, err := s.ledger.VerifyCredential(ctx, normalized)
	if err != nil {
		return nil, ledger.ToDomain(err, "ledger verification failed")
	}

	mirror, err := s.store.FindByHash(ctx, normalized)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		// The ledger answer stands on its own.
		s.logger.WarnContext(ctx, "failed to load credential mirror",
			"error", err,
			"hash", normalized,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return &models.Verification{Status: status, Mirror: mirror}, nil
}

// Revoke revokes on the ledger first, then updates the mirror. A mirror
// failure after the ledger write is a warning.
func (s *Service) Revoke(ctx context.Context, hash, caller string) (*models.Revocation, error) {
	normalized, err := ledger.NormalizeHash(hash)
	if err != nil {
		return nil, err
	}
	caller = domain.CanonicalAddress(caller)
	if caller == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "caller address is required")
	}

	receipt, err := s.ledger.RevokeCredential(ctx, normalized, caller)
	if err != nil {
		return nil, ledger.ToDomain(err, "ledger revocation failed")
	}
	result := &models.Revocation{Hash: normalized}
	if receipt != nil {
		result.TxHash = receipt.TxHash
	}

	now := requestcontext.Now(ctx)
	_, err = s.store.Update(ctx, normalized, func(m *models.Mirror) { m.MarkRevoked(now) })
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.ErrorContext(ctx, "credential revoked on ledger but mirror update failed",
			"error", err,
			"hash", normalized,
			"request_id", requestcontext.RequestID(ctx),
		)
		result.Warnings = append(result.Warnings, models.WarningMirrorUpdateFailed)
	}

	s.auditor.Record(ctx, audit.Event{
		Action:  audit.ActionCredentialRevoked,
		Subject: normalized,
		ActorID: caller,
	})
	return result, nil
}

func (s *Service) ListByHolder(ctx context.Context, holder string) ([]*models.Mirror, error) {
	holder = domain.CanonicalAddress(holder)
	if holder == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "holder address is required")
	}
	mirrors, err := s.store.ListByHolder(ctx, holder)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return mirrors, nil
}
