package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rentaldesk/rentaldesk/internal/app"
	"github.com/rentaldesk/rentaldesk/internal/auth"
	"github.com/rentaldesk/rentaldesk/internal/backend"
	"github.com/rentaldesk/rentaldesk/internal/dashboard"
	"github.com/rentaldesk/rentaldesk/internal/events"
	"github.com/rentaldesk/rentaldesk/internal/feature"
	"github.com/rentaldesk/rentaldesk/internal/observability"
	"github.com/rentaldesk/rentaldesk/internal/platform/cache"
	"github.com/rentaldesk/rentaldesk/internal/platform/db"
	"github.com/rentaldesk/rentaldesk/internal/rbac"
	"github.com/rentaldesk/rentaldesk/internal/shared"
	"github.com/rentaldesk/rentaldesk/internal/view"
	"github.com/rentaldesk/rentaldesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var sessionRepo auth.Repository
	if cfg.PGDSN != "" {
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		applied, err := db.Migrate(ctx, pool)
		if err != nil {
			logger.Error("migrate postgres", slog.Any("error", err))
			os.Exit(1)
		}
		if len(applied) > 0 {
			logger.Info("postgres migrated", slog.Any("versions", applied))
		}
		sessionRepo = auth.NewRepository(pool)
	} else {
		logger.Info("PG_DSN not set, sign-in audit disabled")
	}

	sessionManager := shared.NewSessionManager(redisClient, "rentaldesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	bus := events.NewBus(metrics)

	relay := events.NewRelay(redisClient, cfg.NotifyChannel, logger)
	go func() {
		if err := relay.Run(ctx, bus, nil); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification relay", slog.Any("error", err))
		}
	}()

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, backend.WithObserver(metrics))
	catalog := feature.NewCatalog(client, bus, logger)
	workspaces := dashboard.NewStore(cfg.WorkspaceCapacity, cfg.WorkspaceTTL, metrics.SetWorkspaces)
	gate := rbac.Middleware{Logger: logger, LoginPath: "/auth/login"}

	authService := auth.NewService(client, sessionRepo, cfg.BackendJWTSecret)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager, workspaces)
	dashboardHandler := dashboard.NewHandler(logger, templates, csrfManager, catalog, bus, workspaces, gate)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
		// Request contexts end at shutdown so open event streams close.
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
