// Package domain provides type-safe identifiers and the small set of value
// types shared by every workflow module.
package domain

import (
	"github.com/google/uuid"

	dErrors "dhruva/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an AccountID where a VettingID is expected.
type (
	AccountID  uuid.UUID
	VettingID  uuid.UUID
	ApprovalID uuid.UUID
)

func NewAccountID() AccountID   { return AccountID(uuid.New()) }
func NewVettingID() VettingID   { return VettingID(uuid.New()) }
func NewApprovalID() ApprovalID { return ApprovalID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, CLI flags).

func ParseAccountID(s string) (AccountID, error) {
	id, err := parseUUID(s, "account ID")
	return AccountID(id), err
}

func ParseVettingID(s string) (VettingID, error) {
	id, err := parseUUID(s, "vetting request ID")
	return VettingID(id), err
}

func ParseApprovalID(s string) (ApprovalID, error) {
	id, err := parseUUID(s, "approval request ID")
	return ApprovalID(id), err
}

func (id AccountID) String() string  { return uuid.UUID(id).String() }
func (id VettingID) String() string  { return uuid.UUID(id).String() }
func (id ApprovalID) String() string { return uuid.UUID(id).String() }

func (id AccountID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id VettingID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ApprovalID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" cannot be nil")
	}
	return id, nil
}
