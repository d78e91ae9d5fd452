package models

import (
	"strings"
	"time"

	"dhruva/internal/ledger"
)

// Mirror is the off-ledger copy of a credential the service helped issue.
// The ledger stays authoritative for validity.
type Mirror struct {
	Hash        string
	Holder      string
	Issuer      string
	Name        string
	Description string
	ExpiryDate  int64
	TxHash      string
	IssuedAt    time.Time
	Verified    bool
	VerifiedBy  string
	VerifiedAt  *time.Time
	Revoked     bool
	RevokedAt   *time.Time
}

// HashKey is the lookup form of a credential hash.
func HashKey(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}

func (m *Mirror) MarkVerified(by string, at time.Time) {
	if m.Verified {
		return
	}
	m.Verified = true
	m.VerifiedBy = by
	t := at
	m.VerifiedAt = &t
}

func (m *Mirror) MarkRevoked(at time.Time) {
	if m.Revoked {
		return
	}
	m.Revoked = true
	t := at
	m.RevokedAt = &t
}

func (m *Mirror) Clone() *Mirror {
	if m == nil {
		return nil
	}
	c := *m
	if m.VerifiedAt != nil {
		t := *m.VerifiedAt
		c.VerifiedAt = &t
	}
	if m.RevokedAt != nil {
		t := *m.RevokedAt
		c.RevokedAt = &t
	}
	return &c
}

// Verification merges the ledger's answer with the local mirror, which is
// nil for credentials issued elsewhere.
type Verification struct {
	Status *ledger.CredentialStatus
	Mirror *Mirror
}

func (v *Verification) Valid() bool { return v.Status.Valid() }

// Revocation reports a ledger revocation. Warnings carry mirror update
// failures that did not undo the ledger write.
type Revocation struct {
	Hash     string
	TxHash   string
	Warnings []string
}

const WarningMirrorUpdateFailed = "mirror_update_failed"
