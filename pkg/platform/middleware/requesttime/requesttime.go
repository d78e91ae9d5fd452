// Package requesttime pins a single "now" per HTTP request so that every
// timestamp written while serving it (respondedAt, reviewedAt, audit events)
// agrees.
package requesttime

import (
	"net/http"
	"time"

	"dhruva/pkg/requestcontext"
)

// Middleware captures the time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
