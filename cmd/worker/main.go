package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fhuszti/digimedia-ms-go/internal/bus"
	"github.com/fhuszti/digimedia-ms-go/internal/config"
	"github.com/fhuszti/digimedia-ms-go/internal/db"
	workerHandler "github.com/fhuszti/digimedia-ms-go/internal/handler/worker"
	"github.com/fhuszti/digimedia-ms-go/internal/index"
	"github.com/fhuszti/digimedia-ms-go/internal/logger"
	"github.com/fhuszti/digimedia-ms-go/internal/pid"
	"github.com/fhuszti/digimedia-ms-go/internal/repository/mariadb"
	"github.com/fhuszti/digimedia-ms-go/internal/usecase/reconcile"
	"github.com/hibiken/asynq"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}
	if cfg.RedisAddr == "" {
		logger.Error(ctx, "⚠️  REDIS_ADDR must be set to run the worker")
		os.Exit(1)
	}

	logger.Init()

	database := initDb(cfg)

	repo := mariadb.NewMediaRepository(database.DB)
	indexer := index.NewIndexer(cfg.RedisAddr, cfg.RedisPassword)
	publisher := bus.NewPublisher(cfg.RedisAddr, cfg.RedisPassword)
	pidClient := pid.NewClient(cfg.PidAPIURL, cfg.PidTokenURL, cfg.PidClientID, cfg.PidClientSecret)
	processor := reconcile.NewProcessor(repo, indexer, publisher, pidClient)

	mux := asynq.NewServeMux()
	mux.HandleFunc(bus.TypeProcessBatch, func(ctx context.Context, t *asynq.Task) error {
		return workerHandler.ProcessBatchHandler(ctx, t, processor, publisher)
	})

	runWorker(ctx, mux, cfg, database)
}

func initDb(cfg *config.Settings) *db.Database {
	ctx := context.Background()
	logger.Info(ctx, "initialising database...")

	database, err := db.New(cfg.MariaDBDSN, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}
	return database
}

func runWorker(ctx context.Context, mux *asynq.ServeMux, cfg *config.Settings, database *db.Database) {
	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, asynq.Config{
		// One batch in flight at a time: two concurrent batches could
		// carry the same identity key, which the pipeline must never see.
		Concurrency: 1,
		Queues:      map[string]int{bus.QueueMedia: 1},

		// Inbound events aggregate into bounded batches; the whole batch
		// is acknowledged only once the processor returns.
		GroupAggregator:  asynq.GroupAggregatorFunc(bus.AggregateInboundMedia),
		GroupMaxSize:     cfg.BatchMaxSize,
		GroupGracePeriod: cfg.BatchGracePeriod,
		GroupMaxDelay:    cfg.BatchMaxDelay,
	})

	// Run server in background
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Errorf(context.Background(), "❌  Worker failed: %v", err)
			os.Exit(1)
		}
	}()
	logger.Info(ctx, "🚀 Worker started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// Give Asynq up to 30 sec to finish the in-flight batch
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	srv.Shutdown()       // stop accepting new tasks, finish in-flight
	<-shutdownCtx.Done() // either timeout or done

	if err := database.Close(); err != nil {
		logger.Warnf(ctx, "DB close error: %v", err)
	}
	logger.Info(ctx, "✅  Worker gracefully stopped")
}
