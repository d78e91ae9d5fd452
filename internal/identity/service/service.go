package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"dhruva/internal/identity/models"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/platform/audit"
	"dhruva/pkg/platform/sentinel"
	"dhruva/pkg/requestcontext"
)

// Store persists accounts.
// Error contract: Find* return sentinel.ErrNotFound; Create and Save return
// sentinel.ErrConflict when the username or wallet is taken; Save returns
// sentinel.ErrNotFound for an unknown account.
type Store interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id domain.AccountID) (*models.Account, error)
	FindByWallet(ctx context.Context, wallet string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
}

// VettingSubmitter opens (or returns the existing) pending vetting request
// for an organization account.
type VettingSubmitter interface {
	SubmitFor(ctx context.Context, account *models.Account) error
}

type Service struct {
	store   Store
	vetting VettingSubmitter
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

// WithVetting lets the service open vetting requests when an organization
// registers or links a wallet. Without it those steps are skipped.
func WithVetting(v VettingSubmitter) Option {
	return func(s *Service) { s.vetting = v }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("account store is required")
	}
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type RegisterCommand struct {
	Username      string
	Role          string
	WalletAddress string
	Organization  models.OrganizationProfile
}

// Register creates an account. Organizations with a wallet get a pending
// vetting request straight away.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*models.Account, error) {
	role, err := models.ParseRole(cmd.Role)
	if err != nil {
		return nil, err
	}
	wallet := domain.CanonicalAddress(cmd.WalletAddress)

	if _, err := s.store.FindByUsername(ctx, cmd.Username); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "username already taken")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check username")
	}
	if wallet != "" {
		if err := s.ensureWalletFree(ctx, wallet, domain.AccountID{}); err != nil {
			return nil, err
		}
	}

	account, err := models.NewAccount(domain.NewAccountID(), cmd.Username, role, wallet, cmd.Organization, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "username or wallet already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:   audit.ActionAccountRegistered,
		Subject:  account.ID.String(),
		ActorID:  account.Username,
		Decision: string(account.Role),
	})
	if account.HasWallet() {
		s.openVetting(ctx, account)
	}
	return account, nil
}

func (s *Service) Get(ctx context.Context, id domain.AccountID) (*models.Account, error) {
	account, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateFind(err, "account not found")
	}
	return account, nil
}

func (s *Service) GetByWallet(ctx context.Context, wallet string) (*models.Account, error) {
	wallet = domain.CanonicalAddress(wallet)
	if wallet == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "wallet address is required")
	}
	account, err := s.store.FindByWallet(ctx, wallet)
	if err != nil {
		return nil, translateFind(err, "no account linked to wallet")
	}
	return account, nil
}

// LinkWallet attaches wallet to the account. Linking the wallet already on
// the account is a no-op apart from re-opening vetting for unapproved
// organizations.
func (s *Service) LinkWallet(ctx context.Context, id domain.AccountID, wallet string) (*models.Account, error) {
	wallet = domain.CanonicalAddress(wallet)
	if wallet == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "wallet address is required")
	}
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.WalletAddress != wallet {
		if account.HasWallet() {
			return nil, dErrors.New(dErrors.CodeConflict, "account is already linked to a different wallet")
		}
		if err := s.ensureWalletFree(ctx, wallet, account.ID); err != nil {
			return nil, err
		}
		account.WalletAddress = wallet
		account.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.Save(ctx, account); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return nil, dErrors.New(dErrors.CodeConflict, "wallet is linked to another account")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to link wallet")
		}
		s.auditor.Record(ctx, audit.Event{
			Action:  audit.ActionWalletLinked,
			Subject: account.ID.String(),
			ActorID: wallet,
		})
	}

	s.openVetting(ctx, account)
	return account, nil
}

// UnlinkWallet clears the wallet. Approved organizations stay authorized on
// the ledger until someone revokes them, which the result reports.
func (s *Service) UnlinkWallet(ctx context.Context, id domain.AccountID, wallet string) (*models.UnlinkResult, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !account.HasWallet() || !domain.SameAddress(account.WalletAddress, wallet) {
		return nil, dErrors.New(dErrors.CodeValidation, "wallet address does not match the linked wallet")
	}

	old := account.WalletAddress
	account.WalletAddress = ""
	account.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Save(ctx, account); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to unlink wallet")
	}

	result := &models.UnlinkResult{
		Account:                  account,
		OldWalletAddress:         old,
		RequiresLedgerRevocation: account.IsOrganization() && account.IsApproved,
	}
	reason := ""
	if result.RequiresLedgerRevocation {
		reason = "ledger_revocation_required"
	}
	s.auditor.Record(ctx, audit.Event{
		Action:  audit.ActionWalletUnlinked,
		Subject: account.ID.String(),
		ActorID: old,
		Reason:  reason,
	})
	return result, nil
}

func (s *Service) ensureWalletFree(ctx context.Context, wallet string, self domain.AccountID) error {
	other, err := s.store.FindByWallet(ctx, wallet)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check wallet")
	case other.ID != self:
		return dErrors.New(dErrors.CodeConflict, "wallet is linked to another account")
	}
	return nil
}

// openVetting is best effort: the account write already happened and an
// admin can resubmit the request explicitly.
func (s *Service) openVetting(ctx context.Context, account *models.Account) {
	if s.vetting == nil || !account.NeedsVetting() || !account.HasWallet() {
		return
	}
	if err := s.vetting.SubmitFor(ctx, account); err != nil {
		s.logger.WarnContext(ctx, "failed to open vetting request",
			"error", err,
			"account_id", account.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func translateFind(err error, notFoundMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, strings.TrimSuffix(notFoundMsg, " not found")+" lookup failed")
}
