// Package auth resolves an optional bearer token into a request principal.
// Routes stay reachable without a token; when one is sent it must be valid.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
	"dhruva/pkg/requestcontext"
)

// TokenValidator verifies a raw bearer token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims is the subset of token claims the HTTP layer needs.
type Claims struct {
	Subject string
	Wallet  string
	Role    string
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// OptionalAuth stores the token principal in the context when an
// Authorization header is present. A malformed or invalid token is a 401.
func OptionalAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || validator == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authorization header must be a bearer token")
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithPrincipal(ctx, requestcontext.Principal{
				Subject: claims.Subject,
				Wallet:  domain.CanonicalAddress(claims.Wallet),
				Role:    claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolveWallet picks the wallet a request acts as. Without a principal the
// supplied value is used as is. With one, a blank value defaults to the
// token wallet and a different value is rejected.
func ResolveWallet(ctx context.Context, supplied, field string) (string, error) {
	supplied = domain.CanonicalAddress(supplied)
	p, ok := requestcontext.GetPrincipal(ctx)
	if !ok || p.Wallet == "" {
		return supplied, nil
	}
	if supplied == "" {
		return p.Wallet, nil
	}
	if supplied != p.Wallet {
		return "", dErrors.New(dErrors.CodeForbidden, field+" does not match the authenticated wallet")
	}
	return supplied, nil
}
