package models

import (
	"strings"
	"time"

	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
)

type Role string

const (
	RoleHolder       Role = "holder"
	RoleOrganization Role = "organization"
	RoleVerifier     Role = "verifier"
	RoleAdmin        Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleHolder, RoleOrganization, RoleVerifier, RoleAdmin:
		return true
	}
	return false
}

// DefaultApproved is the approval state a new account starts in.
// Organizations must be vetted first.
func (r Role) DefaultApproved() bool {
	return r != RoleOrganization
}

func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "role must be one of holder, organization, verifier, admin")
	}
	return r, nil
}

const DefaultOrganizationName = "Unnamed Organization"

type OrganizationProfile struct {
	Name        string `json:"organizationName"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
}

// Account is never hard-deleted.
type Account struct {
	ID            domain.AccountID
	Username      string
	Role          Role
	WalletAddress string
	IsApproved    bool
	ApprovedBy    string
	ApprovedAt    *time.Time
	Organization  OrganizationProfile
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAccount builds an account with the role's default approval state. The
// wallet is canonicalized; the organization name falls back to
// DefaultOrganizationName for organizations.
func NewAccount(id domain.AccountID, username string, role Role, wallet string, profile OrganizationProfile, now time.Time) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid role")
	}
	if role == RoleOrganization && strings.TrimSpace(profile.Name) == "" {
		profile.Name = DefaultOrganizationName
	}
	return &Account{
		ID:            id,
		Username:      username,
		Role:          role,
		WalletAddress: domain.CanonicalAddress(wallet),
		IsApproved:    role.DefaultApproved(),
		Organization:  profile,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (a *Account) HasWallet() bool { return a.WalletAddress != "" }

func (a *Account) IsOrganization() bool { return a.Role == RoleOrganization }

// NeedsVetting is true for organizations that have not been approved yet.
func (a *Account) NeedsVetting() bool { return a.IsOrganization() && !a.IsApproved }

// Approve applies the account half of a vetting approval. An unset wallet
// adopts the vetted one; an existing wallet is left alone.
func (a *Account) Approve(by string, wallet string, at time.Time) {
	a.IsApproved = true
	a.ApprovedBy = by
	t := at
	a.ApprovedAt = &t
	if !a.HasWallet() {
		a.WalletAddress = domain.CanonicalAddress(wallet)
	}
	a.UpdatedAt = at
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.ApprovedAt != nil {
		t := *a.ApprovedAt
		c.ApprovedAt = &t
	}
	return &c
}

// UnlinkResult tells the caller whether the ledger still lists the old
// wallet as an authorized issuer.
type UnlinkResult struct {
	Account                  *Account
	OldWalletAddress         string
	RequiresLedgerRevocation bool
}
