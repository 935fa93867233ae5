// Package bootstrap wires the adapters shared by the cmd binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/storage/minio"
	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/storage/s3"
	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// OpenDB opens and pings the postgres pool
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenCons)
	db.SetMaxIdleConns(cfg.MaxIdleCons)
	db.SetConnMaxLifetime(cfg.ConMaxLifeTime)

	return db, nil
}

// NewMigrator binds the migrations under source to db.
// Closing the migrator closes db.
func NewMigrator(db *sql.DB, source string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", source), "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// MigrateUp applies pending migrations. Nothing to apply is not an error.
func MigrateUp(db *sql.DB, source string, logger *slog.Logger) error {
	m, err := NewMigrator(db, source)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no new migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to run up migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("migrations applied", "version", version)
	return nil
}

// NewObjectStorage builds the storage adapter selected by STORAGE_PROVIDER
func NewObjectStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.ObjectStorage, error) {
	switch cfg.Storage.Provider {
	case config.StorageProviderMinio:
		return minio.NewAdapter(ctx, cfg.Minio, logger)
	case config.StorageProviderS3:
		return s3.NewAdapter(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}
