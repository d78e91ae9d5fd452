// Package ledger is the boundary to the external credential ledger. The
// workflow packages depend only on Gateway; adapters live in memory (a
// simulated ledger for development and tests) and ethereum (a deployed
// contract reached over JSON-RPC).
package ledger

import (
	"context"
	"time"
)

// Gateway is the contract surface the service relies on. Writes take the
// caller identity explicitly so privilege is checked against the ledger's
// own rules, never against local approval state.
//
// Implementations return *Error for every failure so callers can branch on
// Kind and surface Reason.
type Gateway interface {
	IsAuthorizedIssuer(ctx context.Context, address string) (bool, error)
	Owner(ctx context.Context) (string, error)
	AuthorizeIssuer(ctx context.Context, address, caller string) (*Receipt, error)
	RevokeIssuer(ctx context.Context, address, caller string) (*Receipt, error)
	IssueCredential(ctx context.Context, params IssueParams, caller string) (*Receipt, error)
	VerifyCredential(ctx context.Context, hash string) (*CredentialStatus, error)
	RevokeCredential(ctx context.Context, hash, caller string) (*Receipt, error)
}

// Receipt identifies a mined write.
type Receipt struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
}

// IssueParams describes a credential to anchor. Hash is a 0x-prefixed
// 32-byte hex string; ExpiryDate is unix seconds, zero meaning no expiry.
type IssueParams struct {
	Holder      string
	Hash        string
	ExpiryDate  int64
	Name        string
	Description string
}

// CredentialStatus is the ledger's view of a credential. Exists is false
// for unknown hashes; the remaining fields are then zero.
type CredentialStatus struct {
	Hash        string `json:"hash"`
	Exists      bool   `json:"exists"`
	Revoked     bool   `json:"revoked"`
	Expired     bool   `json:"expired"`
	Issuer      string `json:"issuer,omitempty"`
	Holder      string `json:"holder,omitempty"`
	IssuedAt    int64  `json:"issuedAt,omitempty"`
	ExpiryDate  int64  `json:"expiryDate,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Valid reports whether a verifier should accept the credential.
func (s *CredentialStatus) Valid() bool {
	return s != nil && s.Exists && !s.Revoked && !s.Expired
}

// IssuedTime converts IssuedAt for display.
func (s *CredentialStatus) IssuedTime() time.Time {
	if s == nil || s.IssuedAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.IssuedAt, 0).UTC()
}
