// Package admin guards /admin routes with a shared operator token.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"dhruva/pkg/requestcontext"
)

// DefaultActor is recorded when an admin request carries no X-Admin-Actor-ID.
const DefaultActor = "admin"

// RequireAdminToken rejects requests whose X-Admin-Token does not match.
// An empty expected token disables every admin route.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get("X-Admin-Token")
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			actor := r.Header.Get("X-Admin-Actor-ID")
			if actor == "" {
				actor = DefaultActor
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithAdminActor(ctx, actor)))
		})
	}
}
