// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/quizdesk/internal/platform/constants"
	"github.com/taibuivan/quizdesk/internal/platform/gate"
	"github.com/taibuivan/quizdesk/internal/platform/metrics"
	"github.com/taibuivan/quizdesk/internal/platform/middleware"
	"github.com/taibuivan/quizdesk/internal/platform/throttle"
	"github.com/taibuivan/quizdesk/internal/users/account"
	"github.com/taibuivan/quizdesk/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler. Always 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. 200 only when every dependency answers.
	Readiness http.HandlerFunc

	// Auth handles the identity lifecycle (register, login, logout).
	Auth *auth.Handler

	// Account handles account administration.
	Account *account.Handler
}

// Infrastructure groups the cross-cutting collaborators of the router.
type Infrastructure struct {
	Gate    *gate.Gate
	Metrics *metrics.Metrics

	// Strict throttles the credential endpoints, keyed by client IP.
	Strict *throttle.Throttle
	// General throttles everything else, keyed by subject.
	General *throttle.Throttle

	// CORS supplies the environment and origin allow-list.
	CORS middleware.AppConfig

	// Proxies lists the peers whose forwarding headers name the client.
	Proxies middleware.TrustedProxies
}

// # Server Initialization

// NewRouter builds the chi router with the full middleware chain and every
// route group. It is separate from [NewServer] so tests can drive it with
// httptest.
func NewRouter(log *slog.Logger, infra Infrastructure, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.Origin(infra.Proxies))
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.PanicRecovery())
	r.Use(middleware.CORS(infra.CORS))
	r.Use(chimw.CleanPath)
	r.Use(infra.Metrics.Instrument)

	// # Infrastructure Endpoints
	// Unauthenticated health checks for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Handle("/metrics", infra.Metrics.Handler())

	// # Application API
	// Every API request passes the authentication stage; route rules decide
	// whether anonymous callers are acceptable.
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(infra.Gate.Authenticate)
		api.Mount("/auth", h.Auth.Routes(infra.Gate, infra.Strict, infra.General))
		api.Mount("/users", h.Account.Routes(infra.Gate, infra.General))
	})

	return r
}

// NewServer wraps the router in an [http.Server] listening on port.
func NewServer(port string, log *slog.Logger, infra Infrastructure, h Handlers) *Server {
	r := NewRouter(log, infra, h)

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
