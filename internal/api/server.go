// Package api assembles the HTTP router for the launch dashboard.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/orbitalops/launchdash/internal/api/v1"
	"github.com/orbitalops/launchdash/internal/auth"
	"github.com/orbitalops/launchdash/internal/logger"
	"github.com/orbitalops/launchdash/internal/models"
	"github.com/orbitalops/launchdash/internal/telemetry"
)

// ServerOption configures the API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares []func(http.Handler) http.Handler
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// NewServer creates and configures the HTTP router.
//
// Route layout: /auth, /health and /metrics are public; /dashboard requires a
// valid token; /admin additionally requires the admin role.
func NewServer(routes *v1.Routes, tokens *auth.TokenService, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Mount("/", v1.HealthRouter())
	r.Handle("/metrics", telemetry.Handler())
	r.Mount("/auth", v1.AuthRouter(routes))

	authenticated := auth.Middleware(tokens)
	r.Group(func(r chi.Router) {
		r.Use(authenticated)
		r.Mount("/dashboard", v1.DashboardRouter(routes))
	})
	r.Group(func(r chi.Router) {
		r.Use(authenticated)
		r.Use(auth.RequireRole(models.RoleAdmin))
		r.Mount("/admin", v1.AdminRouter(routes))
	})

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debugf("HTTP %s %s %d %s %s",
			r.Method,
			r.URL.Path,
			ww.Status(),
			time.Since(start),
			middleware.GetReqID(r.Context()),
		)
	})
}
