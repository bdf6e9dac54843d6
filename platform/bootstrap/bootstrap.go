// Package bootstrap holds process start-up helpers shared by the binaries in cmd/.
// This is part of the platform layer and contains no business logic.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"leadcall_backend/internal/adapters/storage"
	"leadcall_backend/migrations"
	"leadcall_backend/platform/config"
	"leadcall_backend/platform/db"
	"leadcall_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WithRetry calls fn up to attempts times with quadratic backoff from baseDelay.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

// OpenDatabase connects with retry and, when migrate is set, applies the embedded migrations.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger, migrate bool) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	if err := WithRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if migrate {
		if err := db.RunMigrations(ctx, pool, migrations.FS, migrations.Dir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Info("database migrations applied")
	}

	return pool, nil
}

// EnsureBucket verifies a MinIO bucket exists, retrying while the object store starts.
func EnsureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, bucket string) error {
	return WithRetry(ctx, log, "ensure "+bucket+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	})
}

// DurationEnv reads a positive duration from the environment, falling back when unset or invalid.
func DurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

// PositiveIntEnv reads a positive integer from the environment, falling back when unset or invalid.
func PositiveIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
