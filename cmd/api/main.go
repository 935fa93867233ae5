package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/cache/redis"
	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/eventbroker/nats"
	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/handlers/http/chi"
	uploadv1 "github.com/ryu-qqq/FileFlow-sub002/internal/adapters/handlers/http/chi/v1/upload"
	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/repository/postgres"
	"github.com/ryu-qqq/FileFlow-sub002/internal/bootstrap"
	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/cleanup"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/completion"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/progress"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/ratelimit"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/service/upload"

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
	if cfg.Auth.JWTSecret == "" {
		logger.Error("AUTH_JWT_SECRET is required by the api")
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

	if cfg.Database.AutoMigrate {
		if err := bootstrap.MigrateUp(db, cfg.Database.MigrationsPath, logger); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	//storage
	storage, err := bootstrap.NewObjectStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init object storage", "error", err, "provider", cfg.Storage.Provider)
		os.Exit(1)
	}
	logger.Info("object storage initialized", "provider", cfg.Storage.Provider)

	//cache
	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.Error("failed to init redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, cfg.Redis.DB, logger)

	//events
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

	//services
	unitOfWork := postgres.NewUnitOfWork(db)
	tracker := progress.NewTracker(cache, cfg.Redis.KeyPrefix, cfg.Upload.ProgressTTL, logger)
	limiter := ratelimit.NewRateLimiter(unitOfWork, cfg.Upload.MaxActiveSessionsPerTenant, logger)
	completionService := completion.NewCompletionService(unitOfWork, storage, tracker, publisher, logger)
	uploadService := upload.NewUploadService(unitOfWork, storage, limiter, tracker, completionService, publisher, cfg.Upload, logger)
	cleanupService := cleanup.NewCleanupService(unitOfWork, storage, tracker, publisher, cfg.Upload.SweepBatchSize, logger)

	//http
	uploadHandler := uploadv1.NewUploadHandlerV1(uploadService, logger)

	router := chi.NewRouter(logger, uploadHandler, cfg.Auth, cfg.Env.Env)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		servErr := server.ListenAndServe()
		if servErr != nil && !errors.Is(servErr, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", servErr)
			stop()
		}
	}()

	// expiry sweep
	wg.Add(1)
	go func() {
		defer wg.Done()
		initSweepTask(ctx, cleanupService, cfg.Upload.SweepEvery, logger)
	}()

	// expiry markers evicted by redis
	wg.Add(1)
	go func() {
		defer wg.Done()
		listenExpiredMarkers(ctx, cache, cleanupService, cfg.Redis.KeyPrefix, logger)
	}()

	//wait for context cancel
	<-ctx.Done()
	logger.Info("gracefully shutting down app")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	} else {
		logger.Info("server gracefully shutdown complete")
	}

	wg.Wait()
	logger.Info("app shutdown complete")

}

func initSweepTask(ctx context.Context, service port.CleanupService, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("expiry sweep initialized", "interval", every)

	for {
		select {
		case <-ticker.C:
			if err := service.ExpireSessions(ctx, time.Now().UTC()); err != nil {
				logger.Error("failed to expire sessions", "error", err)
			}
		case <-ctx.Done():
			logger.Info("expiry sweep stopped")
			return
		}
	}
}

// listenExpiredMarkers expires a session as soon as redis evicts its marker.
// The sweep still covers markers lost while the listener was down.
func listenExpiredMarkers(ctx context.Context, cache port.Cache, service port.CleanupService, keyPrefix string, logger *slog.Logger) {
	keys, err := cache.ExpiredKeys(ctx)
	if err != nil {
		logger.Warn("expiry listener disabled, relying on the sweep", "error", err)
		return
	}

	for key := range keys {
		sessionID, ok := progress.SessionIDFromExpiryKey(keyPrefix, key)
		if !ok {
			continue
		}
		if err := service.ExpireSession(ctx, sessionID, time.Now().UTC()); err != nil {
			logger.Warn("failed to expire session on marker eviction", "error", err, "session_id", sessionID)
		}
	}
	logger.Info("expiry listener stopped")
}
