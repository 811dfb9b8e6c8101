package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fhuszti/digimedia-ms-go/internal/bus"
	"github.com/fhuszti/digimedia-ms-go/internal/config"
	"github.com/fhuszti/digimedia-ms-go/internal/db"
	"github.com/fhuszti/digimedia-ms-go/internal/handler/api"
	"github.com/fhuszti/digimedia-ms-go/internal/index"
	"github.com/fhuszti/digimedia-ms-go/internal/logger"
	cMiddleware "github.com/fhuszti/digimedia-ms-go/internal/middleware"
	"github.com/fhuszti/digimedia-ms-go/internal/pid"
	"github.com/fhuszti/digimedia-ms-go/internal/repository/mariadb"
	"github.com/fhuszti/digimedia-ms-go/internal/usecase/reconcile"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}
	if cfg.RedisAddr == "" {
		logger.Error(ctx, "⚠️  REDIS_ADDR must be set: the index and the bus live there")
		os.Exit(1)
	}

	logger.Init()

	database := initDb(ctx, cfg)

	r := initRouter(ctx, cfg.JWTPublicKey)

	repo := mariadb.NewMediaRepository(database.DB)
	indexer := index.NewIndexer(cfg.RedisAddr, cfg.RedisPassword)
	publisher := bus.NewPublisher(cfg.RedisAddr, cfg.RedisPassword)
	pidClient := pid.NewClient(cfg.PidAPIURL, cfg.PidTokenURL, cfg.PidClientID, cfg.PidClientSecret)

	processor := reconcile.NewProcessor(repo, indexer, publisher, pidClient)
	singleSvc := reconcile.NewSingleService(processor)
	r.Post("/media", api.CreateMediaHandler(singleSvc))
	r.Get("/healthz", api.HealthHandler())

	listenRouter(ctx, r, cfg, database)
}

func initDb(ctx context.Context, cfg *config.Settings) *db.Database {
	logger.Info(ctx, "initialising database...")

	database, err := db.New(cfg.MariaDBDSN, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}

	return database
}

func initRouter(ctx context.Context, jwtKey string) *chi.Mux {
	logger.Info(ctx, "initialising router...")

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(cMiddleware.WithCorrelationID())
	r.Use(cMiddleware.WithServiceAuth(jwtKey))

	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	return r
}

func listenRouter(ctx context.Context, r *chi.Mux, cfg *config.Settings, database *db.Database) {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.ServerPort),
		Handler: r,
	}

	go func() {
		logger.Infof(ctx, "🚀 API listening on port %d", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Server failed: %v", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf(ctx, "server shutdown error: %v", err)
	}

	if err := database.Close(); err != nil {
		logger.Warnf(ctx, "DB close error: %v", err)
	}
	logger.Info(ctx, "✅  API gracefully stopped")
}
