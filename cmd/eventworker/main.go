package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/cache/redis"
	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/eventbroker/nats"
	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/eventbroker/sqs"
	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/repository/postgres"
	"github.com/ryu-qqq/FileFlow-sub002/internal/bootstrap"
	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/completion"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/progress"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/storageevent"

	_ "github.com/joho/godotenv/autoload"
)

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := bootstrap.OpenDB(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()
	logger.Info("db connection established")

	storage, err := bootstrap.NewObjectStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init object storage", "error", err, "provider", cfg.Storage.Provider)
		os.Exit(1)
	}

	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.Error("failed to init redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := nats.NewPublisher(cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to init NATS publisher", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close NATS publisher", "error", err)
		}
	}()

	unitOfWork := postgres.NewUnitOfWork(db)
	tracker := progress.NewTracker(redis.NewCache(redisClient, cfg.Redis.DB, logger), cfg.Redis.KeyPrefix, cfg.Upload.ProgressTTL, logger)
	completionService := completion.NewCompletionService(unitOfWork, storage, tracker, publisher, logger)
	messageService := storageevent.NewStorageEventService(completionService, logger)

	consumer, err := newConsumer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create event consumer", "error", err, "source", cfg.Events.Source)
		os.Exit(1)
	}

	if err := consumer.Subscribe(ctx, messageService); err != nil {
		logger.Error("failed to subscribe to storage events", "error", err)
		consumer.Close()
		os.Exit(1)
	}
	logger.Info("storage event subscription active", "source", cfg.Events.Source, "workers", cfg.Events.Workers)

	<-ctx.Done()
	logger.Info("gracefully shutting down event worker")

	// Close waits for in flight messages
	if err := consumer.Close(); err != nil {
		logger.Error("failed to close event consumer", "error", err)
	}

	logger.Info("event worker shutdown complete")
}

func newConsumer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.EventConsumer, error) {
	switch cfg.Events.Source {
	case config.EventsSourceNATS:
		return nats.NewNATSConsumer(cfg.NATS, cfg.Events.Workers, logger)
	case config.EventsSourceSQS:
		client, err := sqs.NewClient(ctx, cfg.SQS)
		if err != nil {
			return nil, err
		}
		return sqs.NewConsumer(client, cfg.SQS, cfg.Events.Workers, logger), nil
	default:
		return nil, fmt.Errorf("unknown events source %q", cfg.Events.Source)
	}
}
