// Package reconcile closes the gaps a partial approval can leave between
// vetting requests, accounts and the ledger's issuer registry. Drift checks
// never write; sync and repair are idempotent.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	identity "dhruva/internal/identity/models"
	"dhruva/internal/ledger"
	"dhruva/internal/reconcile/metrics"
	vetting "dhruva/internal/vetting/models"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/platform/audit"
	"dhruva/pkg/platform/sentinel"
	psync "dhruva/pkg/platform/sync"
	"dhruva/pkg/requestcontext"
)

type VettingStore interface {
	FindByID(ctx context.Context, id domain.VettingID) (*vetting.Request, error)
	ListByStatus(ctx context.Context, status domain.ReviewStatus) ([]*vetting.Request, error)
}

type AccountStore interface {
	FindByID(ctx context.Context, id domain.AccountID) (*identity.Account, error)
	Save(ctx context.Context, account *identity.Account) error
}

// Ledger is the read side of the issuer registry plus the one write sync
// needs.
type Ledger interface {
	IsAuthorizedIssuer(ctx context.Context, address string) (bool, error)
	Owner(ctx context.Context) (string, error)
	AuthorizeIssuer(ctx context.Context, address, caller string) (*ledger.Receipt, error)
}

type Service struct {
	requests VettingStore
	accounts AccountStore
	ledger   Ledger
	operator string
	locks    *psync.ShardedMutex
	auditor  *audit.Logger
	metrics  *metrics.Metrics
	logger   *slog.Logger
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

// WithOperator sets the caller used when none is supplied.
func WithOperator(address string) Option {
	return func(s *Service) { s.operator = domain.CanonicalAddress(address) }
}

func New(requests VettingStore, accounts AccountStore, l Ledger, opts ...Option) (*Service, error) {
	if requests == nil || accounts == nil || l == nil {
		return nil, errors.New("vetting store, account store and ledger are required")
	}
	s := &Service{
		requests: requests,
		accounts: accounts,
		ledger:   l,
		locks:    psync.NewShardedMutex(0),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CheckDrift reports whether the request's wallet is an authorized issuer
// and, if not, whether caller could authorize it. It performs reads only.
func (s *Service) CheckDrift(ctx context.Context, id domain.VettingID, caller string) (*Drift, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.drift(ctx, req, s.callerOrOperator(caller))
}

func (s *Service) drift(ctx context.Context, req *vetting.Request, caller string) (*Drift, error) {
	if !req.HasWallet() {
		return nil, dErrors.NewWithReason(dErrors.CodeValidation, "missing_wallet", "vetting request has no wallet address", nil)
	}
	d := &Drift{RequestID: req.ID, Wallet: req.WalletAddress, Caller: caller}

	authorized, err := s.ledger.IsAuthorizedIssuer(ctx, req.WalletAddress)
	if err != nil {
		return nil, ledger.ToDomain(err, "failed to read issuer authorization")
	}
	switch {
	case authorized:
		d.Status = DriftInSync
	default:
		privileged, err := s.privileged(ctx, caller)
		if err != nil {
			return nil, err
		}
		d.Status = DriftUnauthorizedCaller
		if privileged {
			d.Status = DriftMissingOnChain
		}
	}
	s.metrics.IncDrift(string(d.Status))
	return d, nil
}

// SyncAuthorization authorizes the wallet of an approved request on the
// ledger. An already authorized wallet is reported without a write; a
// caller without ledger privilege is refused before any write is attempted.
func (s *Service) SyncAuthorization(ctx context.Context, id domain.VettingID, caller string) (*SyncOutcome, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.StatusApproved {
		return nil, dErrors.New(dErrors.CodeInvalidState, "only approved vetting requests can be synced")
	}
	caller = s.callerOrOperator(caller)

	d, err := s.drift(ctx, req, caller)
	if err != nil {
		s.metrics.IncSync("error")
		return nil, err
	}
	out := &SyncOutcome{RequestID: req.ID, Wallet: req.WalletAddress}
	switch d.Status {
	case DriftInSync:
		s.metrics.IncSync(string(SyncAlreadyAuthorized))
		out.Status = SyncAlreadyAuthorized
		return out, nil
	case DriftUnauthorizedCaller:
		s.metrics.IncSync(ledger.ReasonCallerNotPrivileged)
		return nil, dErrors.NewWithReason(dErrors.CodeForbidden, ledger.ReasonCallerNotPrivileged,
			"caller cannot authorize issuers; the ledger owner must act", nil)
	}

	receipt, err := s.ledger.AuthorizeIssuer(ctx, req.WalletAddress, caller)
	if err != nil {
		s.metrics.IncSync("error")
		s.auditor.Record(ctx, audit.Event{
			Action:  audit.ActionIssuerAuthFailed,
			Subject: req.WalletAddress,
			ActorID: caller,
			Reason:  ledger.ReasonOf(err),
		})
		return nil, ledger.ToDomain(err, "ledger issuer authorization failed")
	}
	out.Status = SyncAuthorized
	if receipt != nil {
		out.TxHash = receipt.TxHash
	}
	s.metrics.IncSync(string(SyncAuthorized))
	s.auditor.Record(ctx, audit.Event{
		Action:  audit.ActionIssuerAuthorized,
		Subject: req.WalletAddress,
		ActorID: caller,
		Reason:  "reconcile",
	})
	return out, nil
}

// RepairAccount applies the account half of an approval that did not land.
// Calling it on an already approved account changes nothing.
func (s *Service) RepairAccount(ctx context.Context, id domain.VettingID) (*Repair, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repair(ctx, req)
}

func (s *Service) repair(ctx context.Context, req *vetting.Request) (*Repair, error) {
	if req.Status != domain.StatusApproved {
		return nil, dErrors.New(dErrors.CodeInvalidState, "only approved vetting requests can be repaired")
	}
	out := &Repair{RequestID: req.ID, AccountID: req.AccountID}

	err := s.locks.With(req.AccountID.String(), func() error {
		account, err := s.accounts.FindByID(ctx, req.AccountID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "account for vetting request not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
		}
		if account.IsApproved {
			return nil
		}
		if account.HasWallet() && !domain.SameAddress(account.WalletAddress, req.WalletAddress) {
			return dErrors.NewWithReason(dErrors.CodeConflict, "wallet_conflict",
				"account wallet does not match the approved vetting request", nil)
		}
		at := requestcontext.Now(ctx)
		if req.ReviewedAt != nil {
			at = *req.ReviewedAt
		}
		account.Approve(req.ReviewedBy, req.WalletAddress, at)
		if err := s.accounts.Save(ctx, account); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.NewWithReason(dErrors.CodeConflict, "wallet_conflict",
					"approved wallet belongs to another account", err)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save repaired account")
		}
		out.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRepair(out.Repaired)
	if out.Repaired {
		s.logger.InfoContext(ctx, "repaired account approval",
			"vetting_id", req.ID.String(),
			"account_id", req.AccountID.String(),
		)
		s.auditor.Record(ctx, audit.Event{
			Action:  audit.ActionAccountRepaired,
			Subject: req.AccountID.String(),
			ActorID: req.ReviewedBy,
			Reason:  req.ID.String(),
		})
	}
	return out, nil
}

// Sweep repairs accounts and checks drift for every approved request. A
// failure on one request is recorded and the sweep moves on. Ledger
// authorization is left to SyncAuthorization.
func (s *Service) Sweep(ctx context.Context, caller string) (*SweepReport, error) {
	start := time.Now()
	defer s.metrics.ObserveSweep(start)

	approved, err := s.requests.ListByStatus(ctx, domain.StatusApproved)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list approved vetting requests")
	}
	caller = s.callerOrOperator(caller)

	report := &SweepReport{}
	for _, req := range approved {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		repaired, err := s.repair(ctx, req)
		if err != nil {
			report.Failures = append(report.Failures, SweepFailure{RequestID: req.ID, Err: fmt.Errorf("repair account: %w", err)})
			continue
		}
		if repaired.Repaired {
			report.Repaired++
		}

		d, err := s.drift(ctx, req, caller)
		if err != nil {
			report.Failures = append(report.Failures, SweepFailure{RequestID: req.ID, Err: fmt.Errorf("check drift: %w", err)})
			continue
		}
		report.Drift = append(report.Drift, *d)
	}
	return report, nil
}

func (s *Service) load(ctx context.Context, id domain.VettingID) (*vetting.Request, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "vetting request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vetting request")
	}
	return req, nil
}

// privileged reports whether caller may authorize issuers: the ledger
// owner or an already authorized issuer.
func (s *Service) privileged(ctx context.Context, caller string) (bool, error) {
	if caller == "" {
		return false, nil
	}
	owner, err := s.ledger.Owner(ctx)
	if err != nil {
		return false, ledger.ToDomain(err, "failed to read ledger owner")
	}
	if domain.SameAddress(owner, caller) {
		return true, nil
	}
	issuer, err := s.ledger.IsAuthorizedIssuer(ctx, caller)
	if err != nil {
		return false, ledger.ToDomain(err, "failed to read caller authorization")
	}
	return issuer, nil
}

func (s *Service) callerOrOperator(caller string) string {
	if c := domain.CanonicalAddress(caller); c != "" {
		return c
	}
	return s.operator
}
