// Package server assembles the HTTP router and owns the server lifecycle.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	adminhandler "servicos-ja/backend/internal/admin/handler"
	authhandler "servicos-ja/backend/internal/auth/handler"
	"servicos-ja/backend/internal/config"
	healthhandler "servicos-ja/backend/internal/health/handler"
	"servicos-ja/backend/internal/server/middleware"
	"servicos-ja/backend/internal/telemetry"
	userdomain "servicos-ja/backend/internal/user/domain"
)

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Auth     *authhandler.Handler
	Admin    *adminhandler.Handler
	Health   *healthhandler.Handler
	Verifier middleware.TokenVerifier
	Limiter  middleware.RateLimiter
	Policies map[string]config.RatePolicy
	// Events receives rate-limit denial events; may be nil.
	Events telemetry.EventEmitter
}

// NewRouter builds the chi router: public auth routes behind per-IP rate
// limits, /api/auth/me behind the access-token check, and /api/admin behind
// the admin role. The whole tree is wrapped with otelhttp for traces and
// request metrics.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", deps.Health.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimitByIP(deps.Limiter, "signup", deps.Policies["signup"], deps.Events)).
				Post("/register", deps.Auth.Register)
			r.With(middleware.RateLimitByIP(deps.Limiter, "login", deps.Policies["login"], deps.Events)).
				Post("/login", deps.Auth.Login)
			r.Post("/refresh", deps.Auth.Refresh)
			r.Post("/logout", deps.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(deps.Verifier))
				r.With(middleware.RateLimitByUser(deps.Limiter, "api_read", deps.Policies["api_read"], deps.Events)).
					Get("/me", deps.Auth.Me)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.Verifier))
			r.Use(middleware.RequireRole(userdomain.RoleAdmin))
			r.Use(middleware.RateLimitByUser(deps.Limiter, "api_read", deps.Policies["api_read"], deps.Events))
			deps.Admin.Mount(r)
		})
	})

	return otelhttp.NewHandler(r, "servicos-ja.http")
}

// Server wraps http.Server with sane timeouts and graceful shutdown.
type Server struct {
	httpServer *http.Server
}

// New returns a Server listening on addr with the given handler.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start blocks serving requests until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
