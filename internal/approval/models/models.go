package models

import (
	"maps"
	"strings"
	"time"

	"dhruva/pkg/domain"
)

// WarningMarkVerifiedFailed is reported when a decision stood but the
// referenced credential could not be flagged as verified.
const WarningMarkVerifiedFailed = "credential_mark_verified_failed"

// Request is a holder's ask that an organization vouch for a document.
// At most one pending request exists per (Requester, Organization,
// DocumentHash).
type Request struct {
	ID                   domain.ApprovalID
	Requester            string
	Organization         string
	DocumentHash         string
	DocumentName         string
	DocumentType         string
	Description          string
	FileURL              string
	Status               domain.ReviewStatus
	ResponseMessage      string
	IssuedCredentialHash string
	RequestedAt          time.Time
	RespondedAt          *time.Time
	// ExpiryDate is requester-chosen unix seconds; zero means none.
	ExpiryDate int64
	// Metadata is passed through untouched.
	Metadata map[string]any
}

type NewRequestParams struct {
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

func NewRequest(p NewRequestParams, now time.Time) *Request {
	metadata := p.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Request{
		ID:           domain.NewApprovalID(),
		Requester:    domain.CanonicalAddress(p.Requester),
		Organization: domain.CanonicalAddress(p.Organization),
		DocumentHash: strings.TrimSpace(p.DocumentHash),
		DocumentName: p.DocumentName,
		DocumentType: p.DocumentType,
		Description:  p.Description,
		FileURL:      p.FileURL,
		Status:       domain.StatusPending,
		RequestedAt:  now,
		ExpiryDate:   p.ExpiryDate,
		Metadata:     maps.Clone(metadata),
	}
}

func (r *Request) IsPending() bool { return r.Status == domain.StatusPending }

// Key identifies the pending-uniqueness triple.
func (r *Request) Key() string {
	return r.Requester + "|" + r.Organization + "|" + r.DocumentHash
}

func (r *Request) Approve(credentialHash, message string, at time.Time) {
	r.Status = domain.StatusApproved
	r.IssuedCredentialHash = credentialHash
	r.ResponseMessage = message
	t := at
	r.RespondedAt = &t
}

func (r *Request) Reject(message string, at time.Time) {
	r.Status = domain.StatusRejected
	r.ResponseMessage = message
	t := at
	r.RespondedAt = &t
}

func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	c.Metadata = maps.Clone(r.Metadata)
	if r.RespondedAt != nil {
		t := *r.RespondedAt
		c.RespondedAt = &t
	}
	return &c
}

// Outcome is the result of a decision.
type Outcome struct {
	Request  *Request
	Warnings []string
}

// IssueOutcome is the result of issuing a credential and approving in one
// call.
type IssueOutcome struct {
	Outcome
	CredentialHash string
	TxHash         string
}

// WarningMirrorRecordFailed is reported when a credential was anchored on
// the ledger but its local mirror could not be written.
const WarningMirrorRecordFailed = "credential_mirror_record_failed"
