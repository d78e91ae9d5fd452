package ledger

import (
	"context"
	"errors"
	"fmt"

	dErrors "dhruva/pkg/domain-errors"
)

// Kind classifies ledger failures by what the caller can do about them.
type Kind string

const (
	// KindUnauthorized means the caller lacks ledger privilege; retrying
	// cannot help until someone with privilege acts.
	KindUnauthorized Kind = "unauthorized"
	// KindReverted means the ledger rejected the write for a business rule.
	KindReverted Kind = "reverted"
	// KindUnavailable covers transport failures, timeouts and an open breaker.
	KindUnavailable Kind = "unavailable"
)

var (
	ErrUnauthorized = errors.New("ledger: caller not authorized")
	ErrReverted     = errors.New("ledger: transaction reverted")
	ErrUnavailable  = errors.New("ledger: unavailable")
)

// Reasons carried on *Error and surfaced to HTTP clients as "reason".
const (
	ReasonCallerNotPrivileged = "caller_not_privileged"
	ReasonCallerNotSigner     = "caller_not_signer"
	ReasonNoSigner            = "no_signer"
	ReasonNotIssuer           = "not_issuer"
	ReasonNotCredentialIssuer = "not_credential_issuer"
	ReasonAlreadyIssued       = "already_issued"
	ReasonCredentialNotFound  = "credential_not_found"
	ReasonInvalidAddress      = "invalid_address"
	ReasonInvalidHash         = "invalid_hash"
	ReasonInvalidExpiry       = "invalid_expiry"
	ReasonReverted            = "reverted"
	ReasonUnavailable         = "unavailable"
	ReasonCircuitOpen         = "circuit_open"
	ReasonTimeout             = "timeout"
)

// Error is returned by every Gateway implementation.
type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Err    error
}

func NewError(op string, kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Op: op, Reason: reason, Err: err}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("ledger %s: %s", e.Op, e.Kind)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match on the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrReverted:
		return e.Kind == KindReverted
	case ErrUnavailable:
		return e.Kind == KindUnavailable
	}
	return false
}

// KindOf extracts the failure kind, if err came from a Gateway.
func KindOf(err error) (Kind, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return "", false
}

// ReasonOf returns the reason of a ledger error, falling back to its kind.
func ReasonOf(err error) string {
	var le *Error
	if !errors.As(err, &le) {
		return ""
	}
	if le.Reason != "" {
		return le.Reason
	}
	return string(le.Kind)
}

// ToDomain translates a gateway failure into a domain error. Privilege
// failures become Forbidden, timeouts become Timeout and everything else
// is an upstream failure. The ledger reason is preserved.
func ToDomain(err error, msg string) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		code := dErrors.CodeUpstream
		switch {
		case le.Kind == KindUnauthorized:
			code = dErrors.CodeForbidden
		case le.Kind == KindUnavailable && le.Reason == ReasonTimeout:
			code = dErrors.CodeTimeout
		}
		return dErrors.NewWithReason(code, ReasonOf(err), msg, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.NewWithReason(dErrors.CodeTimeout, ReasonTimeout, msg, err)
	}
	return dErrors.NewWithReason(dErrors.CodeUpstream, ReasonUnavailable, msg, err)
}
