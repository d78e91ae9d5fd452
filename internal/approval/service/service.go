package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"dhruva/internal/approval/metrics"
	"dhruva/internal/approval/models"
	credmodels "dhruva/internal/credential/models"
	"dhruva/internal/ledger"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/platform/audit"
	"dhruva/pkg/platform/sentinel"
	psync "dhruva/pkg/platform/sync"
	"dhruva/pkg/platform/validation"
	"dhruva/pkg/requestcontext"
)

// Store persists approval requests.
// Error contract: CreatePending returns sentinel.ErrConflict for a pending
// duplicate triple; FindByID, Execute and DeletePending return
// sentinel.ErrNotFound; DeletePending returns sentinel.ErrInvalidState once
// the request left pending.
type Store interface {
	CreatePending(ctx context.Context, req *models.Request) error
	FindByID(ctx context.Context, id domain.ApprovalID) (*models.Request, error)
	ListByOrganization(ctx context.Context, organization string, status domain.ReviewStatus) ([]*models.Request, error)
	ListByRequester(ctx context.Context, requester string) ([]*models.Request, error)
	Execute(ctx context.Context, id domain.ApprovalID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error)
	DeletePending(ctx context.Context, id domain.ApprovalID) error
}

// Credentials is the credential mirror as seen by the workflow.
type Credentials interface {
	Record(ctx context.Context, mirror *credmodels.Mirror) error
	MarkVerified(ctx context.Context, hash, verifiedBy string) error
}

// Issuer anchors credentials on the ledger.
type Issuer interface {
	IssueCredential(ctx context.Context, params ledger.IssueParams, caller string) (*ledger.Receipt, error)
}

type Service struct {
	store       Store
	credentials Credentials
	issuer      Issuer
	locks       *psync.ShardedMutex
	metrics     *metrics.Metrics
	auditor     *audit.Logger
	logger      *slog.Logger
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

// WithCredentials enables marking referenced credentials verified on
// approval and recording mirrors in IssueAndApprove.
func WithCredentials(c Credentials) Option {
	return func(s *Service) { s.credentials = c }
}

// WithIssuer enables IssueAndApprove.
func WithIssuer(i Issuer) Option {
	return func(s *Service) { s.issuer = i }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("approval store is required")
	}
	s := &Service{
		store:  store,
		locks:  psync.NewShardedMutex(0),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type SubmitCommand struct {
	Requester    string
	Organization string
	DocumentHash string
	DocumentName string
	DocumentType string
	Description  string
	FileURL      string
	ExpiryDate   int64
	Metadata     map[string]any
}

func (c SubmitCommand) validate() error {
	required := []struct{ field, value string }{
		{"requester", c.Requester},
		{"organization", c.Organization},
		{"document_hash", c.DocumentHash},
		{"document_name", c.DocumentName},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", "))
	}
	if c.ExpiryDate < 0 {
		return dErrors.New(dErrors.CodeValidation, "expiry_date must be unix seconds")
	}
	checks := []error{
		validation.CheckStringLength("requester", c.Requester, validation.MaxAddressLength),
		validation.CheckStringLength("organization", c.Organization, validation.MaxAddressLength),
		validation.CheckStringLength("document_hash", c.DocumentHash, validation.MaxDocumentHashLength),
		validation.CheckStringLength("document_name", c.DocumentName, validation.MaxNameLength),
		validation.CheckStringLength("document_type", c.DocumentType, validation.MaxNameLength),
		validation.CheckStringLength("description", c.Description, validation.MaxDescriptionLength),
		validation.CheckStringLength("file_url", c.FileURL, validation.MaxURLLength),
		validation.CheckMapSize("metadata", len(c.Metadata), validation.MaxMetadataKeys),
	}
	return errors.Join(checks...)
}

// Submit opens a pending request. Only one pending request may exist per
// (requester, organization, documentHash).
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*models.Request, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	req := models.NewRequest(models.NewRequestParams{
		Requester:    cmd.Requester,
		Organization: cmd.Organization,
		DocumentHash: cmd.DocumentHash,
		DocumentName: strings.TrimSpace(cmd.DocumentName),
		DocumentType: strings.TrimSpace(cmd.DocumentType),
		Description:  strings.TrimSpace(cmd.Description),
		FileURL:      strings.TrimSpace(cmd.FileURL),
		ExpiryDate:   cmd.ExpiryDate,
		Metadata:     cmd.Metadata,
	}, requestcontext.Now(ctx))

	err := s.locks.With(req.Key(), func() error {
		return s.store.CreatePending(ctx, req)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncSubmission("duplicate")
			return nil, dErrors.NewWithReason(dErrors.CodeConflict, "duplicate_pending",
				"approval request already pending for this document", nil)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create approval request")
	}

	s.metrics.IncSubmission("created")
	s.auditor.Record(ctx, audit.Event{
		Action:  audit.ActionApprovalSubmitted,
		Subject: req.ID.String(),
		ActorID: req.Requester,
	})
	return req, nil
}

func (s *Service) Get(ctx context.Context, id domain.ApprovalID) (*models.Request, error) {
	req, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load approval request")
	}
	return req, nil
}

// ListByOrganization lists newest first. An empty status lists everything.
func (s *Service) ListByOrganization(ctx context.Context, organization, status string) ([]*models.Request, error) {
	organization = domain.CanonicalAddress(organization)
	if organization == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "organization address is required")
	}
	filter := domain.ReviewStatus(strings.ToLower(strings.TrimSpace(status)))
	if filter != "" && !filter.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be pending, approved or rejected")
	}
	out, err := s.store.ListByOrganization(ctx, organization, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list approval requests")
	}
	return out, nil
}

func (s *Service) ListByRequester(ctx context.Context, requester string) ([]*models.Request, error) {
	requester = domain.CanonicalAddress(requester)
	if requester == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "requester address is required")
	}
	out, err := s.store.ListByRequester(ctx, requester)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list approval requests")
	}
	return out, nil
}

type DecideCommand struct {
	Decision        string
	Responder       string
	ResponseMessage string
	CredentialRef   string
}

// Decide approves or rejects a pending request. It never writes the
// ledger; an approval that references a credential marks its mirror
// verified on a best-effort basis.
func (s *Service) Decide(ctx context.Context, id domain.ApprovalID, cmd DecideCommand) (*models.Outcome, error) {
	decision, err := domain.ParseDecision(strings.ToLower(strings.TrimSpace(cmd.Decision)))
	if err != nil {
		return nil, err
	}
	if err := validation.CheckStringLength("response_message", cmd.ResponseMessage, validation.MaxReasonLength); err != nil {
		return nil, err
	}
	responder := domain.CanonicalAddress(cmd.Responder)
	ref := strings.TrimSpace(cmd.CredentialRef)

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	check := decideCheck(decision, responder)
	if err := check(req); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, id, check, func(r *models.Request) {
		if decision == domain.StatusApproved {
			r.Approve(ref, cmd.ResponseMessage, now)
			return
		}
		r.Reject(cmd.ResponseMessage, now)
	})
	if err != nil {
		return nil, translate(err, "failed to save approval decision")
	}
	outcome := &models.Outcome{Request: updated}

	if decision == domain.StatusApproved && ref != "" && s.credentials != nil {
		if err := s.credentials.MarkVerified(ctx, ref, updated.Organization); err != nil {
			s.metrics.IncMarkVerifiedFailure()
			s.logger.WarnContext(ctx, "approval stored but credential not marked verified",
				"error", err,
				"approval_id", updated.ID.String(),
				"credential_hash", ref,
				"request_id", requestcontext.RequestID(ctx),
			)
			outcome.Warnings = append(outcome.Warnings, models.WarningMarkVerifiedFailed)
		}
	}

	s.metrics.IncDecision(string(decision))
	s.auditor.Record(ctx, audit.Event{
		Action:   audit.ActionApprovalDecided,
		Subject:  updated.ID.String(),
		ActorID:  updated.Organization,
		Decision: string(decision),
		Reason:   updated.ResponseMessage,
	})
	return outcome, nil
}

func decideCheck(decision domain.ReviewStatus, responder string) func(*models.Request) error {
	return func(r *models.Request) error {
		if err := domain.Transition(r.Status, decision); err != nil {
			return err
		}
		if responder != "" && responder != r.Organization {
			return dErrors.New(dErrors.CodeForbidden, "only the addressed organization can respond")
		}
		return nil
	}
}

// Cancel deletes a pending request. A supplied requester must own it.
func (s *Service) Cancel(ctx context.Context, id domain.ApprovalID, requester string) error {
	req, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !req.IsPending() {
		return dErrors.New(dErrors.CodeInvalidState, "cannot cancel a processed request")
	}
	requester = domain.CanonicalAddress(requester)
	if requester != "" && requester != req.Requester {
		return dErrors.New(dErrors.CodeForbidden, "only the requester can cancel")
	}

	if err := s.store.DeletePending(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeInvalidState, "cannot cancel a processed request")
		}
		return translate(err, "failed to cancel approval request")
	}
	s.metrics.IncCancellation()
	s.auditor.Record(ctx, audit.Event{
		Action:  audit.ActionApprovalCancelled,
		Subject: id.String(),
		ActorID: req.Requester,
	})
	return nil
}

type IssueCommand struct {
	// Responder defaults to Caller.
	Responder       string
	Caller          string
	CredentialHash  string
	ExpiryDate      int64
	ResponseMessage string
}

// IssueAndApprove anchors the credential on the ledger as Caller, records
// the mirror and then approves. A ledger failure leaves the request
// pending; a decision failure after the ledger write is returned with the
// credential already anchored, for the reconciler or an operator to close.
func (s *Service) IssueAndApprove(ctx context.Context, id domain.ApprovalID, cmd IssueCommand) (*models.IssueOutcome, error) {
	if s.issuer == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "credential issuance is not configured")
	}
	caller := domain.CanonicalAddress(cmd.Caller)
	if caller == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "caller address is required")
	}
	responder := domain.CanonicalAddress(cmd.Responder)
	if responder == "" {
		responder = caller
	}

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := decideCheck(domain.StatusApproved, responder)(req); err != nil {
		return nil, err
	}

	hash := ledger.CredentialHash(req.Requester, req.Organization, req.DocumentHash)
	if strings.TrimSpace(cmd.CredentialHash) != "" {
		if hash, err = ledger.NormalizeHash(cmd.CredentialHash); err != nil {
			return nil, err
		}
	}
	expiry := cmd.ExpiryDate
	if expiry == 0 {
		expiry = req.ExpiryDate
	}

	start := time.Now()
	receipt, err := s.issuer.IssueCredential(ctx, ledger.IssueParams{
		Holder:      req.Requester,
		Hash:        hash,
		ExpiryDate:  expiry,
		Name:        req.DocumentName,
		Description: req.Description,
	}, caller)
	s.metrics.ObserveIssue(start, err)
	if err != nil {
		s.logger.WarnContext(ctx, "credential issuance failed",
			"error", err,
			"approval_id", id.String(),
			"reason", ledger.ReasonOf(err),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, ledger.ToDomain(err, "ledger credential issuance failed")
	}

	result := &models.IssueOutcome{CredentialHash: hash}
	if receipt != nil {
		result.TxHash = receipt.TxHash
	}
	if s.credentials != nil {
		err := s.credentials.Record(ctx, &credmodels.Mirror{
			Hash:        hash,
			Holder:      req.Requester,
			Issuer:      caller,
			Name:        req.DocumentName,
			Description: req.Description,
			ExpiryDate:  expiry,
			TxHash:      result.TxHash,
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "credential anchored but mirror not recorded",
				"error", err,
				"credential_hash", hash,
				"request_id", requestcontext.RequestID(ctx),
			)
			result.Warnings = append(result.Warnings, models.WarningMirrorRecordFailed)
		}
	}

	outcome, err := s.Decide(ctx, id, DecideCommand{
		Decision:        string(domain.StatusApproved),
		Responder:       responder,
		ResponseMessage: cmd.ResponseMessage,
		CredentialRef:   hash,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "credential anchored but approval not recorded",
			"error", err,
			"approval_id", id.String(),
			"credential_hash", hash,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}
	result.Request = outcome.Request
	result.Warnings = append(result.Warnings, outcome.Warnings...)
	return result, nil
}

func translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "approval request not found")
	case dErrors.HasCode(err, dErrors.CodeInvalidState), dErrors.HasCode(err, dErrors.CodeForbidden):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
