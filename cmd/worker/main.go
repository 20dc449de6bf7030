package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	pgRepo "alert-relay/internal/infra/adapter/persistence/postgres"
	"alert-relay/internal/infra/db"
	"alert-relay/internal/infra/queue"
	"alert-relay/internal/observability/logging"
	"alert-relay/internal/observability/metrics"
	"alert-relay/internal/usecase/dispatch"
	"alert-relay/pkg/config"
)

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	// Shut down cleanly on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configRepo := pgRepo.NewServiceConfigRepo(database)
	issueRepo := pgRepo.NewIssueRepo(database)

	executor := dispatch.NewExecutor(configRepo, issueRepo, dispatch.ExecutorConfig{
		BaseURL: config.GetEnvString("BASE_URL", "http://localhost:8000"),
	})

	registry := queue.NewRegistry()
	executor.Register(registry)

	q, err := initQueue(ctx, logger, registry)
	if err != nil {
		logger.Error("failed to initialize queue", slog.Any("error", err))
		os.Exit(1)
	}

	startMetricsServer(ctx, logger, configRepo)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return q.Run(groupCtx)
	})
	group.Go(func() error {
		interval := config.GetEnvDuration("DB_STATS_INTERVAL", 15*time.Second)
		return metrics.CollectDBStats(groupCtx, database, interval)
	})

	logger.Info("worker started")

	if err := group.Wait(); err != nil {
		logger.Error("worker stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

// runnableQueue is the queue surface the worker drives: enqueue plus the
// blocking consume loop.
type runnableQueue interface {
	queue.Queue
	Run(ctx context.Context) error
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and applies schema migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// initQueue builds the task queue selected by QUEUE_DRIVER.
//
// Supported drivers:
//   - "redis" (default): Redis Streams consumer group, survives restarts
//   - "memory": in-process channel queue for single-node and test setups
func initQueue(ctx context.Context, logger *slog.Logger, registry *queue.Registry) (runnableQueue, error) {
	driver := config.GetEnvString("QUEUE_DRIVER", "redis")

	switch driver {
	case "memory":
		cfg := queue.DefaultMemoryQueueConfig()
		cfg.Workers = config.GetEnvInt("QUEUE_WORKERS", cfg.Workers)
		cfg.BufferSize = config.GetEnvInt("QUEUE_BUFFER_SIZE", cfg.BufferSize)
		logger.Info("using in-memory queue",
			slog.Int("workers", cfg.Workers),
			slog.Int("buffer_size", cfg.BufferSize))
		return queue.NewMemoryQueue(cfg, registry), nil
	default:
		cfg := queue.DefaultRedisQueueConfig()
		cfg.Addr = config.GetEnvString("REDIS_ADDR", cfg.Addr)
		cfg.Password = config.GetEnvString("REDIS_PASSWORD", cfg.Password)
		cfg.DB = config.GetEnvInt("REDIS_DB", cfg.DB)
		cfg.Consumer = config.GetEnvString("QUEUE_CONSUMER", hostnameConsumer())
		cfg.BlockTimeout = config.GetEnvDuration("QUEUE_BLOCK_TIMEOUT", cfg.BlockTimeout)
		logger.Info("using redis queue",
			slog.String("addr", cfg.Addr),
			slog.String("stream", cfg.Stream),
			slog.String("group", cfg.Group),
			slog.String("consumer", cfg.Consumer))
		return queue.NewRedisQueue(ctx, cfg, registry)
	}
}

// hostnameConsumer derives a stable consumer name for the Redis consumer
// group, so each worker instance claims its own pending entries.
func hostnameConsumer() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "worker-1"
	}
	return "worker-" + hostname
}
