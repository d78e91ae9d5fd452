package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestScopedValues(t *testing.T) {
	ctx := context.Background()

	t.Run("empty when unset", func(t *testing.T) {
		assert.Empty(t, RequestID(ctx))
		assert.Empty(t, AdminActor(ctx))
		_, ok := GetPrincipal(ctx)
		assert.False(t, ok)
	})

	t.Run("round trips", func(t *testing.T) {
		pinned := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		c := WithRequestID(ctx, "req-1")
		c = WithTime(c, pinned)
		c = WithAdminActor(c, "ops@dhruva")
		c = WithPrincipal(c, Principal{Subject: "acct", Wallet: "0xaaa", Role: "holder"})

		assert.Equal(t, "req-1", RequestID(c))
		assert.Equal(t, pinned, Now(c))
		assert.Equal(t, "ops@dhruva", AdminActor(c))
		p, ok := GetPrincipal(c)
		assert.True(t, ok)
		assert.Equal(t, "0xaaa", p.Wallet)
	})

	t.Run("now falls back to wall clock", func(t *testing.T) {
		before := time.Now()
		got := Now(ctx)
		assert.False(t, got.Before(before))
	})
}
