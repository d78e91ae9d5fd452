package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "dhruva/pkg/domain-errors"
)

func TestParseIDs(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseApprovalID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseVettingID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAccountID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParseAccountID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, AccountID(raw), id)
		assert.Equal(t, raw.String(), id.String())
		assert.False(t, id.IsNil())
	})
}

func TestCanonicalAddress(t *testing.T) {
	assert.Equal(t, "0xaaa", CanonicalAddress("  0xAAA "))
	assert.Equal(t, "", CanonicalAddress("   "))
	assert.True(t, SameAddress("0xAbC", "0xabc"))
	assert.False(t, SameAddress("0xabc", "0xabd"))
}

func TestTransition(t *testing.T) {
	t.Run("pending to terminal is allowed", func(t *testing.T) {
		require.NoError(t, Transition(StatusPending, StatusApproved))
		require.NoError(t, Transition(StatusPending, StatusRejected))
	})

	t.Run("terminal states never move", func(t *testing.T) {
		for _, from := range []ReviewStatus{StatusApproved, StatusRejected} {
			for _, to := range []ReviewStatus{StatusPending, StatusApproved, StatusRejected} {
				err := Transition(from, to)
				require.Error(t, err, "%s -> %s", from, to)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
			}
		}
	})

	t.Run("pending to pending is rejected", func(t *testing.T) {
		assert.True(t, dErrors.HasCode(Transition(StatusPending, StatusPending), dErrors.CodeInvalidState))
	})
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, d)

	_, err = ParseDecision("pending")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
