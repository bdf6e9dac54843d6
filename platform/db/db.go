// Package db provides database connection infrastructure.
package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"leadcall_backend/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns = 10
	defaultMinConns = 2
	pingTimeout     = 5 * time.Second
)

// NewPool opens a pgx pool and pings it. Pool sizing passed as pool_max_conns /
// pool_min_conns query parameters in DATABASE_URL wins over the defaults.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := cfg.GetDatabaseURL()
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	query := urlQuery(dsn)
	if !query.Has("pool_max_conns") {
		poolConfig.MaxConns = defaultMaxConns
	}
	if !query.Has("pool_min_conns") {
		poolConfig.MinConns = defaultMinConns
	}
	if poolConfig.MinConns > poolConfig.MaxConns {
		poolConfig.MinConns = poolConfig.MaxConns
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// urlQuery returns the query of a URL-style DSN. Keyword/value DSNs yield an empty set.
func urlQuery(dsn string) url.Values {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return url.Values{}
	}
	return u.Query()
}
