package domain

import (
	"fmt"

	dErrors "dhruva/pkg/domain-errors"
)

// ReviewStatus is the lifecycle shared by approval and vetting requests.
// pending is initial; approved and rejected are terminal.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s ReviewStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s ReviewStatus) String() string { return string(s) }

// ParseDecision accepts only the two terminal states a reviewer may choose.
func ParseDecision(s string) (ReviewStatus, error) {
	switch ReviewStatus(s) {
	case StatusApproved, StatusRejected:
		return ReviewStatus(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "decision must be 'approved' or 'rejected'")
}

// Transition guards a status change. Any move away from a terminal state,
// and pending -> pending, is a hard failure rather than a no-op.
func Transition(from, to ReviewStatus) error {
	if from != StatusPending {
		return dErrors.New(dErrors.CodeInvalidState, fmt.Sprintf("request already %s", from))
	}
	if !to.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidState, fmt.Sprintf("cannot transition pending to %s", to))
	}
	return nil
}
