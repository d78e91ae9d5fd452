// Package requestcontext carries request-scoped values (request ID, clock,
// authenticated principal, admin actor) through context.Context so that
// services never need to see an *http.Request.
package requestcontext

import (
	"context"
	"time"
)

type (
	ctxKeyRequestID struct{}
	ctxKeyNow       struct{}
	ctxKeyPrincipal struct{}
	ctxKeyAdmin     struct{}
)

// Principal is the caller proven by a bearer token. Wallet is canonical.
type Principal struct {
	Subject string
	Wallet  string
	Role    string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, requestID)
}

// RequestID returns the request ID or "" outside an HTTP request.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID{}).(string); ok {
		return v
	}
	return ""
}

// WithTime pins "now" for everything downstream of ctx.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxKeyNow{}, t)
}

// Now returns the request-scoped time, falling back to the wall clock for
// workers, CLI commands and tests that did not pin one.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ctxKeyNow{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal{}, p)
}

func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal{}).(Principal)
	return p, ok
}

func WithAdminActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyAdmin{}, actor)
}

// AdminActor is the X-Admin-Actor-ID of an admin request, "" otherwise.
func AdminActor(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyAdmin{}).(string); ok {
		return v
	}
	return ""
}
