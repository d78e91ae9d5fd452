// Package sentinel holds the errors stores return so services can translate
// them into domain errors exactly once.
package sentinel

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)
