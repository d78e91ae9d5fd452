package testutil

import (
	"time"

	"github.com/google/uuid"

	approval "dhruva/internal/approval/models"
	credential "dhruva/internal/credential/models"
	identity "dhruva/internal/identity/models"
	vetting "dhruva/internal/vetting/models"
	"dhruva/pkg/domain"
)

// TestIDs provides fixed IDs for deterministic test data.
var TestIDs = struct {
	AccountID1  domain.AccountID
	AccountID2  domain.AccountID
	VettingID1  domain.VettingID
	ApprovalID1 domain.ApprovalID
}{
	AccountID1:  domain.AccountID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	AccountID2:  domain.AccountID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	VettingID1:  domain.VettingID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")),
	ApprovalID1: domain.ApprovalID(uuid.MustParse("cccc0000-0000-0000-0000-000000000001")),
}

// Wallets used across tests. They are already canonical.
const (
	OwnerWallet  = "0x00000000000000000000000000000000000000aa"
	OrgWallet    = "0x00000000000000000000000000000000000000bb"
	HolderWallet = "0x00000000000000000000000000000000000000cc"
)

// FixedNow is the reference time fixtures are stamped with.
var FixedNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

// AccountBuilder builds accounts with organization defaults.
type AccountBuilder struct {
	account *identity.Account
}

func NewAccountBuilder() *AccountBuilder {
	return &AccountBuilder{
		account: &identity.Account{
			ID:           domain.NewAccountID(),
			Username:     "acme",
			Role:         identity.RoleOrganization,
			Organization: identity.OrganizationProfile{Name: "Acme University"},
			CreatedAt:    FixedNow,
			UpdatedAt:    FixedNow,
		},
	}
}

func (b *AccountBuilder) WithID(id domain.AccountID) *AccountBuilder {
	b.account.ID = id
	return b
}

func (b *AccountBuilder) WithUsername(username string) *AccountBuilder {
	b.account.Username = username
	return b
}

func (b *AccountBuilder) WithRole(role identity.Role) *AccountBuilder {
	b.account.Role = role
	b.account.IsApproved = role.DefaultApproved()
	return b
}

func (b *AccountBuilder) WithWallet(wallet string) *AccountBuilder {
	b.account.WalletAddress = domain.CanonicalAddress(wallet)
	return b
}

func (b *AccountBuilder) Approved(by string) *AccountBuilder {
	b.account.Approve(by, b.account.WalletAddress, FixedNow)
	return b
}

func (b *AccountBuilder) Build() *identity.Account {
	return b.account.Clone()
}

// NewVettingRequest returns a pending vetting request for the account.
func NewVettingRequest(accountID domain.AccountID, wallet string) *vetting.Request {
	return vetting.NewRequest(accountID, wallet, "Acme University", "https://acme.example", "", FixedNow)
}

// ApprovalBuilder builds approval requests.
type ApprovalBuilder struct {
	params approval.NewRequestParams
	mutate []func(*approval.Request)
}

func NewApprovalBuilder() *ApprovalBuilder {
	return &ApprovalBuilder{params: approval.NewRequestParams{
		Requester:    HolderWallet,
		Organization: OrgWallet,
		DocumentHash: "QmDegreeDocument",
		DocumentName: "Bachelor of Science",
		DocumentType: "degree",
	}}
}

func (b *ApprovalBuilder) WithRequester(wallet string) *ApprovalBuilder {
	b.params.Requester = wallet
	return b
}

func (b *ApprovalBuilder) WithOrganization(wallet string) *ApprovalBuilder {
	b.params.Organization = wallet
	return b
}

func (b *ApprovalBuilder) WithDocumentHash(hash string) *ApprovalBuilder {
	b.params.DocumentHash = hash
	return b
}

func (b *ApprovalBuilder) WithMetadata(metadata map[string]any) *ApprovalBuilder {
	b.params.Metadata = metadata
	return b
}

func (b *ApprovalBuilder) Approved(credentialHash string) *ApprovalBuilder {
	b.mutate = append(b.mutate, func(r *approval.Request) { r.Approve(credentialHash, "approved", FixedNow) })
	return b
}

func (b *ApprovalBuilder) Rejected(message string) *ApprovalBuilder {
	b.mutate = append(b.mutate, func(r *approval.Request) { r.Reject(message, FixedNow) })
	return b
}

func (b *ApprovalBuilder) Build() *approval.Request {
	r := approval.NewRequest(b.params, FixedNow)
	for _, m := range b.mutate {
		m(r)
	}
	return r
}

// NewMirror returns an unverified credential mirror.
func NewMirror(hash, holder, issuer string) *credential.Mirror {
	return &credential.Mirror{
		Hash:     credential.HashKey(hash),
		Holder:   domain.CanonicalAddress(holder),
		Issuer:   domain.CanonicalAddress(issuer),
		Name:     "Bachelor of Science",
		IssuedAt: FixedNow,
	}
}
