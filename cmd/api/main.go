// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Quizdesk HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Build the token codec, throttles, metrics and gate.
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/taibuivan/quizdesk/internal/api"
	"github.com/taibuivan/quizdesk/internal/platform/config"
	"github.com/taibuivan/quizdesk/internal/platform/constants"
	"github.com/taibuivan/quizdesk/internal/platform/gate"
	"github.com/taibuivan/quizdesk/internal/platform/metrics"
	"github.com/taibuivan/quizdesk/internal/platform/middleware"
	"github.com/taibuivan/quizdesk/internal/platform/migration"
	pgstore "github.com/taibuivan/quizdesk/internal/platform/postgres"
	redisstore "github.com/taibuivan/quizdesk/internal/platform/redis"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
	"github.com/taibuivan/quizdesk/internal/platform/throttle"
	"github.com/taibuivan/quizdesk/internal/users/account"
	"github.com/taibuivan/quizdesk/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Quizdesk] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for background workers; cancelled on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup deadline so misconfiguration is caught quickly rather than
	// hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Security Infrastructure ────────────────────────────────────────
	codec, err := sec.NewTokenCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	must(log, err, "initialize token codec")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	strict, err := throttle.New(throttle.Policy{Name: "auth", Ceiling: cfg.AuthThrottleCeiling, Window: cfg.AuthThrottleWindow})
	must(log, err, "initialize auth throttle")
	general, err := throttle.New(throttle.Policy{Name: "api", Ceiling: cfg.APIThrottleCeiling, Window: cfg.APIThrottleWindow})
	must(log, err, "initialize api throttle")

	for _, limiter := range []*throttle.Throttle{strict, general} {
		limiter.StartJanitor(rootCtx, cfg.ThrottleSweepInterval, func(removed int) {
			appMetrics.ThrottleTracked(limiter.Policy().Name, limiter.Len())
			if removed > 0 {
				log.Debug("throttle_swept",
					slog.String("policy", limiter.Policy().Name),
					slog.Int("removed", removed),
				)
			}
		})
	}

	requestGate := gate.New(codec, appMetrics)

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	})

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	identityRepository := auth.NewIdentityRepository(pool)
	loginRecordRepository := auth.NewLoginRecordRepository(pool)
	verificationTokenRepository := auth.NewVerificationTokenRepository(rdb)

	authService := auth.NewService(auth.Dependencies{
		Identities:         identityRepository,
		LoginRecords:       loginRecordRepository,
		VerificationTokens: verificationTokenRepository,
		Hasher:             sec.BcryptHasher{},
		Tokens:             codec,
		Metrics:            appMetrics,
		Notifier:           auth.NewLogNotifier(log),
		VerificationTTL:    cfg.VerificationTokenTTL,
	})

	accountRepository := account.NewAccountRepository(pool)
	accountService := account.NewService(accountRepository, authService.Trail(), log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService),
		Account:   account.NewHandler(accountService),
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	must(log, err, "parse trusted proxies")

	server := api.NewServer(cfg.ServerPort, log, api.Infrastructure{
		Gate:    requestGate,
		Metrics: appMetrics,
		Strict:  strict,
		General: general,
		CORS:    cfg,
		Proxies: proxies,
	}, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Stop the throttle janitors before draining connections.
	rootCancel()

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
