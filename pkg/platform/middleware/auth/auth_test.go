package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/requestcontext"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (v stubValidator) ValidateToken(string) (*Claims, error) { return v.claims, v.err }

func TestOptionalAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	run := func(v TokenValidator, header string) (int, requestcontext.Principal, bool) {
		var p requestcontext.Principal
		var found bool
		h := OptionalAuth(v, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, found = requestcontext.GetPrincipal(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/approval-requests/requester/0xaaa", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code, p, found
	}

	t.Run("anonymous requests pass without principal", func(t *testing.T) {
		code, _, found := run(stubValidator{}, "")
		assert.Equal(t, http.StatusOK, code)
		assert.False(t, found)
	})

	t.Run("valid token sets canonical wallet", func(t *testing.T) {
		code, p, found := run(stubValidator{claims: &Claims{Subject: "acct-1", Wallet: " 0xAAA ", Role: "holder"}}, "Bearer ok")
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, found)
		assert.Equal(t, "0xaaa", p.Wallet)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		code, _, _ := run(stubValidator{err: errors.New("expired")}, "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("non-bearer scheme is rejected", func(t *testing.T) {
		code, _, _ := run(stubValidator{}, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, code)
	})
}

func TestResolveWallet(t *testing.T) {
	anon := context.Background()
	authed := requestcontext.WithPrincipal(anon, requestcontext.Principal{Subject: "acct-1", Wallet: "0xaaa"})

	got, err := ResolveWallet(anon, " 0xAAA ", "requester")
	assert.NoError(t, err)
	assert.Equal(t, "0xaaa", got)

	got, err = ResolveWallet(authed, "", "requester")
	assert.NoError(t, err)
	assert.Equal(t, "0xaaa", got)

	got, err = ResolveWallet(authed, "0xAAA", "requester")
	assert.NoError(t, err)
	assert.Equal(t, "0xaaa", got)

	_, err = ResolveWallet(authed, "0xbbb", "requester")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}
