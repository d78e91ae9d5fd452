// Package httptransport assembles the chi router. Handlers live with their
// modules; this package only orders middleware and mounts them.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dhruva/pkg/platform/middleware/admin"
	"dhruva/pkg/platform/middleware/auth"
	"dhruva/pkg/platform/middleware/request"
	"dhruva/pkg/platform/middleware/requesttime"
)

// DefaultBodyLimit caps request bodies.
const DefaultBodyLimit = 1 << 20

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

type Config struct {
	AdminToken     string
	RequestTimeout time.Duration
	BodyLimit      int64
	Tokens         auth.TokenValidator
}

// Routes groups the handlers by access level. Nil entries are skipped.
type Routes struct {
	Health Registrar
	Public []Registrar
	Admin  []Registrar
}

// NewRouter wires the middleware stack and mounts routes. /metrics and the
// health routes sit outside the timeout and auth middleware.
func NewRouter(cfg Config, routes Routes, logger *slog.Logger) http.Handler {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}
	latency := request.NewMetrics()

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(logger))
	r.Use(requesttime.Middleware)
	r.Use(request.Latency(latency))

	if routes.Health != nil {
		routes.Health.Register(r)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(request.Timeout(cfg.RequestTimeout))
		}
		r.Use(request.BodyLimit(cfg.BodyLimit))
		r.Use(request.ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(cfg.Tokens, logger))
			for _, h := range routes.Public {
				if h != nil {
					h.Register(r)
				}
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(cfg.AdminToken, logger))
			for _, h := range routes.Admin {
				if h != nil {
					h.Register(r)
				}
			}
		})
	})

	return r
}
