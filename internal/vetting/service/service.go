package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"dhruva/internal/cleanup"
	identity "dhruva/internal/identity/models"
	"dhruva/internal/ledger"
	"dhruva/internal/vetting/metrics"
	"dhruva/internal/vetting/models"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/platform/audit"
	"dhruva/pkg/platform/sentinel"
	"dhruva/pkg/platform/validation"
	"dhruva/pkg/requestcontext"
)

// Store persists vetting requests.
// CreatePending returns the account's existing pending request with
// created=false instead of inserting a second one. Execute returns
// sentinel.ErrNotFound for unknown IDs and whatever validate returns.
type Store interface {
	CreatePending(ctx context.Context, req *models.Request) (*models.Request, bool, error)
	FindByID(ctx context.Context, id domain.VettingID) (*models.Request, error)
	ListAll(ctx context.Context) ([]*models.Request, error)
	Execute(ctx context.Context, id domain.VettingID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error)
	Delete(ctx context.Context, id domain.VettingID) error
}

// AccountStore is the slice of the identity store vetting needs.
type AccountStore interface {
	FindByID(ctx context.Context, id domain.AccountID) (*identity.Account, error)
	FindByWallet(ctx context.Context, wallet string) (*identity.Account, error)
	Save(ctx context.Context, account *identity.Account) error
}

// IssuerAuthorizer is the slice of ledger.Gateway used after approval.
type IssuerAuthorizer interface {
	IsAuthorizedIssuer(ctx context.Context, address string) (bool, error)
	AuthorizeIssuer(ctx context.Context, address, caller string) (*ledger.Receipt, error)
}

// CleanupScheduler queues corrupt records for deletion without blocking.
type CleanupScheduler interface {
	Schedule(ctx context.Context, kind cleanup.Kind, id string)
}

type Service struct {
	store    Store
	accounts AccountStore
	ledger   IssuerAuthorizer
	operator string
	cleanup  CleanupScheduler
	auditor  *audit.Logger
	metrics  *metrics.Metrics
	logger   *slog.Logger

	requireLedgerAuth bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(auditor *audit.Logger) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithCleanup(c CleanupScheduler) Option {
	return func(s *Service) { s.cleanup = c }
}

// WithLedger enables issuer authorization after approval. operator is the
// address the service signs as; an empty operator reports LedgerSkipped.
func WithLedger(l IssuerAuthorizer, operator string) Option {
	return func(s *Service) {
		s.ledger = l
		s.operator = domain.CanonicalAddress(operator)
	}
}

// WithRequireLedgerAuth makes approval all-or-nothing: the ledger write runs
// before any local write and a ledger failure leaves the request pending.
func WithRequireLedgerAuth(required bool) Option {
	return func(s *Service) { s.requireLedgerAuth = required }
}

func New(store Store, accounts AccountStore, opts ...Option) (*Service, error) {
	if store == nil || accounts == nil {
		return nil, errors.New("vetting store and account store are required")
	}
	s := &Service{store: store, accounts: accounts, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SubmitCommand overrides the account's wallet and profile when set.
type SubmitCommand struct {
	WalletAddress    string
	OrganizationName string
	Website          string
	Description      string
}

// Submit opens a vetting request for the account, or returns the pending
// one unchanged. created reports which happened.
func (s *Service) Submit(ctx context.Context, accountID domain.AccountID, cmd SubmitCommand) (*models.Request, bool, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return s.submit(ctx, account, cmd)
}

// SubmitFor satisfies the identity service's VettingSubmitter.
func (s *Service) SubmitFor(ctx context.Context, account *identity.Account) error {
	_, _, err := s.submit(ctx, account, SubmitCommand{})
	return err
}

func (s *Service) submit(ctx context.Context, account *identity.Account, cmd SubmitCommand) (*models.Request, bool, error) {
	if !account.IsOrganization() {
		return nil, false, dErrors.New(dErrors.CodeValidation, "only organization accounts can be vetted")
	}
	wallet := domain.CanonicalAddress(cmd.WalletAddress)
	if wallet == "" {
		wallet = account.WalletAddress
	}
	if wallet == "" {
		return nil, false, dErrors.NewWithReason(dErrors.CodeValidation, "missing_wallet", "wallet address is required", nil)
	}

	profile := account.Organization
	if v := strings.TrimSpace(cmd.OrganizationName); v != "" {
		profile.Name = v
	}
	if profile.Name == "" {
		profile.Name = identity.DefaultOrganizationName
	}
	if cmd.Website != "" {
		profile.Website = cmd.Website
	}
	if cmd.Description != "" {
		profile.Description = cmd.Description
	}

	req := models.NewRequest(account.ID, wallet, profile.Name, profile.Website, profile.Description, requestcontext.Now(ctx))
	stored, created, err := s.store.CreatePending(ctx, req)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, false, dErrors.New(dErrors.CodeConflict, "vetting request changed concurrently, retry")
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create vetting request")
	}
	s.metrics.IncSubmitted(created)
	if created {
		s.auditor.Record(ctx, audit.Event{
			Action:  audit.ActionVettingSubmitted,
			Subject: stored.ID.String(),
			ActorID: account.ID.String(),
		})
	}
	return stored, created, nil
}

func (s *Service) Get(ctx context.Context, id domain.VettingID) (*models.Request, error) {
	req, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "vetting request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vetting request")
	}
	return req, nil
}

// List returns every request newest first with its account snapshot.
// Corrupt requests are left out and queued for deletion once the result is
// built.
func (s *Service) List(ctx context.Context) ([]models.Listing, error) {
	requests, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list vetting requests")
	}

	listings := make([]models.Listing, 0, len(requests))
	var corrupt []domain.VettingID
	for _, req := range requests {
		account, bad, err := s.accountFor(ctx, req)
		if err != nil {
			return nil, err
		}
		if bad {
			corrupt = append(corrupt, req.ID)
			continue
		}
		listings = append(listings, models.Listing{
			Request: req,
			Account: models.AccountSnapshot{
				Username:      account.Username,
				WalletAddress: account.WalletAddress,
				IsApproved:    account.IsApproved,
			},
		})
	}

	s.metrics.AddCorrupt(len(corrupt))
	for _, id := range corrupt {
		s.logger.WarnContext(ctx, "skipping corrupt vetting request",
			"vetting_id", id.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		if s.cleanup != nil {
			s.cleanup.Schedule(ctx, cleanup.KindVettingRequest, id.String())
		}
	}
	return listings, nil
}

// accountFor loads the request's account. bad is true when the request is
// corrupt: blank wallet or missing account.
func (s *Service) accountFor(ctx context.Context, req *models.Request) (*identity.Account, bool, error) {
	if !req.HasWallet() {
		return nil, true, nil
	}
	account, err := s.accounts.FindByID(ctx, req.AccountID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account for vetting request")
	}
	return account, false, nil
}

// Purge deletes a vetting request if it is still corrupt. It is the
// cleanup worker's deleter for KindVettingRequest.
func (s *Service) Purge(ctx context.Context, rawID string) error {
	id, err := domain.ParseVettingID(rawID)
	if err != nil {
		return err
	}
	req, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, bad, err := s.accountFor(ctx, req)
	if err != nil || !bad {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	s.auditor.Record(ctx, audit.Event{
		Action:  audit.ActionCorruptRecordPurged,
		Subject: id.String(),
		Reason:  "corrupt_vetting_request",
	})
	return nil
}

type DecideCommand struct {
	Decision string
	Reviewer string
	Reason   string
}

// ParseDecision accepts the verb and past-tense forms.
func ParseDecision(raw string) (domain.ReviewStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approve", "approved":
		return domain.StatusApproved, nil
	case "reject", "rejected":
		return domain.StatusRejected, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "decision must be approve or reject")
}

// Decide applies an admin decision. Approval validates every precondition
// before the first write, commits the request with a compare-and-swap on
// pending, then updates the account and tries to authorize the wallet on
// the ledger.
func (s *Service) Decide(ctx context.Context, id domain.VettingID, cmd DecideCommand) (*models.Decision, error) {
	reviewer := strings.TrimSpace(cmd.Reviewer)
	if reviewer == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reviewer is required")
	}
	decision, err := ParseDecision(cmd.Decision)
	if err != nil {
		return nil, err
	}
	if err := validation.CheckStringLength("reason", cmd.Reason, validation.MaxReasonLength); err != nil {
		return nil, err
	}

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Transition(req.Status, decision); err != nil {
		return nil, err
	}

	if decision == domain.StatusRejected {
		return s.reject(ctx, id, reviewer, cmd.Reason)
	}
	return s.approve(ctx, req, reviewer)
}

func (s *Service) reject(ctx context.Context, id domain.VettingID, reviewer, reason string) (*models.Decision, error) {
	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, id, checkPending(domain.StatusRejected), func(r *models.Request) {
		r.Reject(reviewer, reason, now)
	})
	if err != nil {
		return nil, translateExecute(err)
	}
	s.metrics.IncDecision(string(domain.StatusRejected))
	s.auditor.Record(ctx, audit.Event{
		Action:   audit.ActionVettingDecided,
		Subject:  updated.ID.String(),
		ActorID:  reviewer,
		Decision: string(domain.StatusRejected),
		Reason:   updated.RejectionReason,
	})
	return &models.Decision{Request: updated}, nil
}

func (s *Service) approve(ctx context.Context, req *models.Request, reviewer string) (*models.Decision, error) {
	account, err := s.validateApproval(ctx, req)
	if err != nil {
		return nil, err
	}

	var sync *models.LedgerSync
	if s.requireLedgerAuth {
		sync, err = s.authorizeIssuer(ctx, req.WalletAddress)
		if err != nil {
			return nil, err
		}
		if sync.Status == models.LedgerSkipped {
			return nil, dErrors.NewWithReason(dErrors.CodeUpstream, "ledger_not_configured",
				"ledger authorization is required but no ledger operator is configured", nil)
		}
	}

	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, req.ID, checkPending(domain.StatusApproved), func(r *models.Request) {
		r.Approve(reviewer, now)
	})
	if err != nil {
		if sync != nil && sync.Status == models.LedgerAuthorized {
			s.reportOrphanedAuthorization(ctx, req, sync, err)
		}
		return nil, translateExecute(err)
	}
	result := &models.Decision{Request: updated}

	account.Approve(reviewer, updated.WalletAddress, now)
	if err := s.accounts.Save(ctx, account); err != nil {
		s.metrics.IncAccountUpdateFailure()
		s.logger.ErrorContext(ctx, "vetting approved but account update failed",
			"error", err,
			"vetting_id", updated.ID.String(),
			"account_id", account.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		result.Warnings = append(result.Warnings, models.WarningAccountUpdateFailed)
	}

	if sync == nil {
		// Partial approval: the local decision stands whatever the ledger says.
		sync, _ = s.authorizeIssuer(ctx, updated.WalletAddress)
	}
	result.LedgerSync = sync

	s.metrics.IncDecision(string(domain.StatusApproved))
	s.auditor.Record(ctx, audit.Event{
		Action:   audit.ActionVettingDecided,
		Subject:  updated.ID.String(),
		ActorID:  reviewer,
		Decision: string(domain.StatusApproved),
		Reason:   string(sync.Status),
	})
	return result, nil
}

// reportOrphanedAuthorization flags a wallet authorized on the ledger for a
// request whose approval then lost the race or failed to save.
func (s *Service) reportOrphanedAuthorization(ctx context.Context, req *models.Request, sync *models.LedgerSync, cause error) {
	s.logger.ErrorContext(ctx, "issuer authorized on ledger but vetting approval not committed",
		"error", cause,
		"vetting_id", req.ID.String(),
		"wallet", req.WalletAddress,
		"tx_hash", sync.TxHash,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.auditor.Record(ctx, audit.Event{
		Action:  audit.ActionIssuerAuthOrphaned,
		Subject: req.WalletAddress,
		ActorID: s.operator,
		Reason:  req.ID.String(),
	})
}

// validateApproval runs every approval precondition without writing.
func (s *Service) validateApproval(ctx context.Context, req *models.Request) (*identity.Account, error) {
	if !req.HasWallet() {
		return nil, dErrors.NewWithReason(dErrors.CodeValidation, "missing_wallet", "vetting request has no wallet address", nil)
	}
	account, err := s.accounts.FindByID(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account for vetting request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if account.HasWallet() {
		if !domain.SameAddress(account.WalletAddress, req.WalletAddress) {
			return nil, dErrors.NewWithReason(dErrors.CodeConflict, "wallet_conflict",
				"account wallet does not match the vetting request wallet", nil)
		}
		return account, nil
	}

	owner, err := s.accounts.FindByWallet(ctx, req.WalletAddress)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return account, nil
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check wallet ownership")
	case owner.ID != account.ID:
		return nil, dErrors.NewWithReason(dErrors.CodeConflict, "wallet_conflict",
			"vetting request wallet belongs to another account", nil)
	}
	return account, nil
}

// authorizeIssuer always returns an outcome. The error is set only when the
// outcome is LedgerFailed, translated for callers that must fail on it.
func (s *Service) authorizeIssuer(ctx context.Context, wallet string) (*models.LedgerSync, error) {
	if s.ledger == nil || s.operator == "" {
		s.metrics.IncLedgerSync(string(models.LedgerSkipped))
		return &models.LedgerSync{Status: models.LedgerSkipped}, nil
	}

	failed := func(err error) (*models.LedgerSync, error) {
		kind, _ := ledger.KindOf(err)
		sync := &models.LedgerSync{Status: models.LedgerFailed, Kind: string(kind), Reason: ledger.ReasonOf(err)}
		s.metrics.IncLedgerSync(string(sync.Status))
		s.logger.WarnContext(ctx, "issuer authorization failed",
			"error", err,
			"wallet", wallet,
			"reason", sync.Reason,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.auditor.Record(ctx, audit.Event{
			Action:  audit.ActionIssuerAuthFailed,
			Subject: wallet,
			ActorID: s.operator,
			Reason:  sync.Reason,
		})
		return sync, ledger.ToDomain(err, "ledger issuer authorization failed")
	}

	authorized, err := s.ledger.IsAuthorizedIssuer(ctx, wallet)
	if err != nil {
		return failed(err)
	}
	if authorized {
		s.metrics.IncLedgerSync(string(models.LedgerAlreadyAuthorized))
		return &models.LedgerSync{Status: models.LedgerAlreadyAuthorized}, nil
	}

	receipt, err := s.ledger.AuthorizeIssuer(ctx, wallet, s.operator)
	if err != nil {
		return failed(err)
	}
	sync := &models.LedgerSync{Status: models.LedgerAuthorized}
	if receipt != nil {
		sync.TxHash = receipt.TxHash
	}
	s.metrics.IncLedgerSync(string(sync.Status))
	s.auditor.Record(ctx, audit.Event{
		Action:  audit.ActionIssuerAuthorized,
		Subject: wallet,
		ActorID: s.operator,
	})
	return sync, nil
}

func checkPending(to domain.ReviewStatus) func(*models.Request) error {
	return func(r *models.Request) error {
		return domain.Transition(r.Status, to)
	}
}

func translateExecute(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "vetting request not found")
	case dErrors.HasCode(err, dErrors.CodeInvalidState):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vetting decision")
	}
}
