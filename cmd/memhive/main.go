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

	"golang.org/x/sync/errgroup"

	"github.com/memhive/memhive/internal/access"
	"github.com/memhive/memhive/internal/app"
	"github.com/memhive/memhive/internal/audit"
	audithttp "github.com/memhive/memhive/internal/audit/http"
	"github.com/memhive/memhive/internal/auth"
	"github.com/memhive/memhive/internal/catalog"
	"github.com/memhive/memhive/internal/guard"
	"github.com/memhive/memhive/internal/memory"
	"github.com/memhive/memhive/internal/observability"
	"github.com/memhive/memhive/internal/platform/cache"
	"github.com/memhive/memhive/internal/platform/db"
	"github.com/memhive/memhive/internal/shared"
	"github.com/memhive/memhive/internal/users"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			logger.Error("load catalog", slog.Any("error", err))
			os.Exit(1)
		}
	}

	metrics := observability.NewMetrics()
	auditLog := audit.NewLog(cfg.AuditCapacity)
	metrics.TrackAuditLog(auditLog)
	auditRecorder := audit.NewRecorder(pool, auditLog)

	decisionCache := access.NewDecisionCache()
	engine := access.NewEngine(cat, decisionCache, auditLog, logger)
	engine.SetObserver(metrics.ObserveDecision)

	guards := guard.New(engine, auditLog, logger)
	guardMW := guard.Middleware{Guards: guards, Logger: logger}

	sessionManager := shared.NewSessionManager(redisClient, "memhive_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, decisionCache, cat, logger)
	usersHandler := users.NewHandler(logger, usersService, guardMW)

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	memoryHandler := memory.NewHandler(logger, engine, cat, guardMW)
	auditHandler := audithttp.NewHandler(logger, auditLog, guardMW)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		Principals:     usersRepo,
		AuthHandler:    authHandler,
		UsersHandler:   usersHandler,
		MemoryHandler:  memoryHandler,
		AuditHandler:   auditHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		ticker := time.NewTicker(cfg.AuditFlushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if _, err := auditRecorder.Flush(flushCtx); err != nil {
					logger.Warn("final audit flush", slog.Any("error", err))
				}
				return nil
			case <-ticker.C:
				if written, err := auditRecorder.Flush(groupCtx); err != nil {
					logger.Warn("audit flush", slog.Any("error", err))
				} else if written > 0 {
					logger.Debug("audit flush", slog.Int("entries", written))
				}
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
