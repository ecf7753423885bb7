package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/admins"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/app"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/articles"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/audit"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/observability"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/platform/cache"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/platform/db"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/promotions"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/rbac"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/internal/shared"
	"github.com/carreezzdata-coder/dailyvaibez-sub001/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
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

	activityLogger := shared.NewActivityLogger(pool, logger)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	adminsRepo := admins.NewRepository(pool)
	adminsService := admins.NewService(adminsRepo, activityLogger, logger)
	adminsHandler := admins.NewHandler(logger, adminsService, rbacMiddleware)

	articlesRepo := articles.NewRepository(pool)
	articlesService := articles.NewService(articlesRepo, activityLogger, logger)
	articlesHandler := articles.NewHandler(logger, articlesService, rbacMiddleware)

	promoRepo := promotions.NewRepository(pool)
	promoCache := promotions.NewStatusCache(redisClient, cfg.StatusCacheTTL)
	promoService := promotions.NewService(promoRepo, activityLogger, promoCache, logger, cfg.EditorPickRequiresPublish)
	promoHandler := promotions.NewHandler(logger, promoService, rbacMiddleware)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(auditService, rbacMiddleware)

	metrics := observability.NewMetrics()
	actorLoader := app.NewActorLoader(redisClient, adminsRepo, cfg.TokenPrefix, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Config: cfg,
		Middleware: app.MiddlewareConfig{
			Logger:  logger,
			Config:  cfg,
			Actors:  actorLoader,
			Metrics: metrics,
		},
		AdminsHandler:     adminsHandler,
		ArticlesHandler:   articlesHandler,
		PromotionsHandler: promoHandler,
		AuditHandler:      auditHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
