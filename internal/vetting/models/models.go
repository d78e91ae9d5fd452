package models

import (
	"strings"
	"time"

	"dhruva/pkg/domain"
)

// DefaultRejectionReason is stored when a reviewer rejects without a reason.
const DefaultRejectionReason = "No reason provided"

// WarningAccountUpdateFailed is reported when the request was approved but
// the account half of the approval could not be written.
const WarningAccountUpdateFailed = "account_update_failed"

// Request is an organization's application to become a credential issuer.
// It leaves pending exactly once.
type Request struct {
	ID               domain.VettingID
	AccountID        domain.AccountID
	WalletAddress    string
	OrganizationName string
	Website          string
	Description      string
	Status           domain.ReviewStatus
	ReviewedBy       string
	ReviewedAt       *time.Time
	RejectionReason  string
	CreatedAt        time.Time
}

func NewRequest(accountID domain.AccountID, wallet, orgName, website, description string, now time.Time) *Request {
	return &Request{
		ID:               domain.NewVettingID(),
		AccountID:        accountID,
		WalletAddress:    domain.CanonicalAddress(wallet),
		OrganizationName: orgName,
		Website:          website,
		Description:      description,
		Status:           domain.StatusPending,
		CreatedAt:        now,
	}
}

func (r *Request) IsPending() bool { return r.Status == domain.StatusPending }

func (r *Request) HasWallet() bool { return strings.TrimSpace(r.WalletAddress) != "" }

// Approve and Reject assume the caller already checked the transition.

func (r *Request) Approve(reviewer string, at time.Time) {
	r.Status = domain.StatusApproved
	r.ReviewedBy = reviewer
	t := at
	r.ReviewedAt = &t
}

func (r *Request) Reject(reviewer, reason string, at time.Time) {
	if strings.TrimSpace(reason) == "" {
		reason = DefaultRejectionReason
	}
	r.Status = domain.StatusRejected
	r.ReviewedBy = reviewer
	r.RejectionReason = reason
	t := at
	r.ReviewedAt = &t
}

func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	if r.ReviewedAt != nil {
		t := *r.ReviewedAt
		c.ReviewedAt = &t
	}
	return &c
}

// AccountSnapshot is the account view joined onto listed requests.
type AccountSnapshot struct {
	Username      string
	WalletAddress string
	IsApproved    bool
}

type Listing struct {
	Request *Request
	Account AccountSnapshot
}

type LedgerSyncStatus string

const (
	LedgerAuthorized        LedgerSyncStatus = "authorized"
	LedgerAlreadyAuthorized LedgerSyncStatus = "already_authorized"
	LedgerFailed            LedgerSyncStatus = "failed"
	LedgerSkipped           LedgerSyncStatus = "skipped"
)

// LedgerSync reports what happened to the issuer authorization that follows
// an approval.
type LedgerSync struct {
	Status LedgerSyncStatus
	TxHash string
	Kind   string
	Reason string
}

// Decision is the result of an admin decision.
type Decision struct {
	Request    *Request
	LedgerSync *LedgerSync
	Warnings   []string
}
