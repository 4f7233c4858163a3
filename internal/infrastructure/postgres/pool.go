package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/repository"
)

// PoolOptions sizes the connection pool. Zero values keep pgxpool defaults.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	// ConnectTimeout bounds the initial ping. Defaults to 5s.
	ConnectTimeout time.Duration
}

// CLIPoolOptions is the small pool used by one-shot commands.
func CLIPoolOptions(maxConnLife time.Duration) PoolOptions {
	return PoolOptions{MaxConns: 2, MinConns: 1, MaxConnLifetime: maxConnLife}
}

// NewPool connects and pings the database. A failed ping is reported as
// repository.ErrUnavailable so callers can tell an outage from a bad DSN.
func NewPool(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if err := Ping(ctx, pool, timeout); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Ping checks connectivity within timeout.
func Ping(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return nil
}

// HealthCheck adapts Ping to the router's health check signature.
func HealthCheck(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error { return Ping(ctx, pool, 2*time.Second) }
}
