// Package memory simulates the credential ledger in process. It applies the
// same privilege rules as the deployed contract: the owner or an already
// authorized issuer may authorize issuers, only the owner may revoke them,
// only authorized issuers may issue, and only the issuing address may revoke
// a credential.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"dhruva/internal/ledger"
	"dhruva/pkg/domain"
)

type credential struct {
	issuer      string
	holder      string
	issuedAt    int64
	expiryDate  int64
	name        string
	description string
	revoked     bool
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu          sync.RWMutex
	owner       string
	issuers     map[string]bool
	credentials map[string]*credential
	block       uint64
	writes      int
	unavailable bool
	now         func() time.Time
}

type Option func(*Ledger)

// WithClock overrides the clock used for issuedAt and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithAuthorizedIssuers seeds the issuer set, as if the owner had already
// authorized them.
func WithAuthorizedIssuers(addresses ...string) Option {
	return func(l *Ledger) {
		for _, a := range addresses {
			if a = domain.CanonicalAddress(a); a != "" {
				l.issuers[a] = true
			}
		}
	}
}

func New(owner string, opts ...Option) *Ledger {
	l := &Ledger{
		owner:       domain.CanonicalAddress(owner),
		issuers:     make(map[string]bool),
		credentials: make(map[string]*credential),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetUnavailable makes every call fail as a transport error until reset.
func (l *Ledger) SetUnavailable(down bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unavailable = down
}

// Writes counts successful state-changing calls.
func (l *Ledger) Writes() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.writes
}

func (l *Ledger) IsAuthorizedIssuer(ctx context.Context, address string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.check(ctx, "is_authorized_issuer"); err != nil {
		return false, err
	}
	return l.issuers[domain.CanonicalAddress(address)], nil
}

func (l *Ledger) Owner(ctx context.Context) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.check(ctx, "owner"); err != nil {
		return "", err
	}
	return l.owner, nil
}

func (l *Ledger) AuthorizeIssuer(ctx context.Context, address, caller string) (*ledger.Receipt, error) {
	const op = "authorize_issuer"
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(ctx, op); err != nil {
		return nil, err
	}
	address = domain.CanonicalAddress(address)
	if address == "" {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidAddress, nil)
	}
	if !l.privileged(caller) {
		return nil, ledger.NewError(op, ledger.KindUnauthorized, ledger.ReasonCallerNotPrivileged, nil)
	}
	l.issuers[address] = true
	return l.commit(op), nil
}

func (l *Ledger) RevokeIssuer(ctx context.Context, address, caller string) (*ledger.Receipt, error) {
	const op = "revoke_issuer"
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(ctx, op); err != nil {
		return nil, err
	}
	if !domain.SameAddress(caller, l.owner) {
		return nil, ledger.NewError(op, ledger.KindUnauthorized, ledger.ReasonCallerNotPrivileged, nil)
	}
	delete(l.issuers, domain.CanonicalAddress(address))
	return l.commit(op), nil
}

func (l *Ledger) IssueCredential(ctx context.Context, params ledger.IssueParams, caller string) (*ledger.Receipt, error) {
	const op = "issue_credential"
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(ctx, op); err != nil {
		return nil, err
	}
	caller = domain.CanonicalAddress(caller)
	if !l.issuers[caller] {
		return nil, ledger.NewError(op, ledger.KindUnauthorized, ledger.ReasonNotIssuer, nil)
	}
	hash, err := ledger.NormalizeHash(params.Hash)
	if err != nil {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidHash, err)
	}
	holder := domain.CanonicalAddress(params.Holder)
	if holder == "" {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidAddress, nil)
	}
	now := l.now().Unix()
	if params.ExpiryDate != 0 && params.ExpiryDate <= now {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidExpiry, nil)
	}
	if _, exists := l.credentials[hash]; exists {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonAlreadyIssued, nil)
	}
	l.credentials[hash] = &credential{
		issuer:      caller,
		holder:      holder,
		issuedAt:    now,
		expiryDate:  params.ExpiryDate,
		name:        params.Name,
		description: params.Description,
	}
	return l.commit(op), nil
}

func (l *Ledger) VerifyCredential(ctx context.Context, hash string) (*ledger.CredentialStatus, error) {
	const op = "verify_credential"
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.check(ctx, op); err != nil {
		return nil, err
	}
	normalized, err := ledger.NormalizeHash(hash)
	if err != nil {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidHash, err)
	}
	c, ok := l.credentials[normalized]
	if !ok {
		return &ledger.CredentialStatus{Hash: normalized}, nil
	}
	return &ledger.CredentialStatus{
		Hash:        normalized,
		Exists:      true,
		Revoked:     c.revoked,
		Expired:     c.expiryDate != 0 && c.expiryDate <= l.now().Unix(),
		Issuer:      c.issuer,
		Holder:      c.holder,
		IssuedAt:    c.issuedAt,
		ExpiryDate:  c.expiryDate,
		Name:        c.name,
		Description: c.description,
	}, nil
}

// RevokeCredential is idempotent for the issuing address.
func (l *Ledger) RevokeCredential(ctx context.Context, hash, caller string) (*ledger.Receipt, error) {
	const op = "revoke_credential"
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(ctx, op); err != nil {
		return nil, err
	}
	normalized, err := ledger.NormalizeHash(hash)
	if err != nil {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidHash, err)
	}
	c, ok := l.credentials[normalized]
	if !ok {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonCredentialNotFound, nil)
	}
	if !domain.SameAddress(caller, c.issuer) {
		return nil, ledger.NewError(op, ledger.KindUnauthorized, ledger.ReasonNotCredentialIssuer, nil)
	}
	c.revoked = true
	return l.commit(op), nil
}

// check must be called with l.mu held.
func (l *Ledger) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return ledger.NewError(op, ledger.KindUnavailable, ledger.ReasonTimeout, err)
	}
	if l.unavailable {
		return ledger.NewError(op, ledger.KindUnavailable, ledger.ReasonUnavailable, nil)
	}
	return nil
}

func (l *Ledger) privileged(caller string) bool {
	caller = domain.CanonicalAddress(caller)
	return caller != "" && (caller == l.owner || l.issuers[caller])
}

// commit must be called with l.mu held for writing.
func (l *Ledger) commit(op string) *ledger.Receipt {
	l.block++
	l.writes++
	tx := crypto.Keccak256Hash([]byte(fmt.Sprintf("%s|%d", op, l.block)))
	return &ledger.Receipt{TxHash: tx.Hex(), BlockNumber: l.block}
}

var _ ledger.Gateway = (*Ledger)(nil)
