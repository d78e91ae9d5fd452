package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite covers the error primitives every service boundary relies on:
// wrapped domain errors keep their code and errors.Is matches by code.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorString() {
	s.Run("message wins over code", func() {
		err := &Error{Code: CodeNotFound, Message: "approval request not found"}
		s.Equal("approval request not found", err.Error())
	})

	s.Run("falls back to code", func() {
		err := &Error{Code: CodeInvalidState}
		s.Equal("invalid_state", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	s.Run("same code different message", func() {
		a := &Error{Code: CodeConflict, Message: "duplicate pending request"}
		b := &Error{Code: CodeConflict, Message: "wallet already linked"}
		s.True(a.Is(b))
	})

	s.Run("different codes", func() {
		s.False((&Error{Code: CodeForbidden}).Is(&Error{Code: CodeUnauthorized}))
	})

	s.Run("plain errors never match", func() {
		s.False((&Error{Code: CodeNotFound}).Is(errors.New("not found")))
	})

	s.Run("errors.Is walks the chain", func() {
		inner := &Error{Code: CodeUpstream, Message: "ledger unavailable"}
		outer := fmt.Errorf("issue credential: %w", inner)
		s.True(errors.Is(outer, &Error{Code: CodeUpstream}))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps original domain code and reason", func() {
		original := NewWithReason(CodeForbidden, "caller_not_privileged", "caller cannot authorize issuers", nil)
		wrapped := Wrap(original, CodeInternal, "sync authorization failed")

		var de *Error
		s.Require().True(errors.As(wrapped, &de))
		s.Equal(CodeForbidden, de.Code)
		s.Equal("sync authorization failed", de.Message)
		s.Equal("caller_not_privileged", de.Reason)
	})

	s.Run("uses provided code for foreign errors", func() {
		root := errors.New("connection reset")
		wrapped := Wrap(root, CodeInternal, "failed to save request")

		s.True(HasCode(wrapped, CodeInternal))
		s.True(errors.Is(wrapped, root))
	})
}

func (s *DomainErrorsSuite) TestHasCodeAndReason() {
	s.False(HasCode(nil, CodeNotFound))
	s.False(HasCode(errors.New("plain"), CodeNotFound))
	s.True(HasCode(New(CodeValidation, "wallet address is required"), CodeValidation))

	s.Empty(ReasonOf(errors.New("plain")))
	s.Equal("reverted", ReasonOf(NewWithReason(CodeUpstream, "reverted", "transaction reverted", nil)))
}
