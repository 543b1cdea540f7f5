package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// DB represents a database connection pool
type DB struct {
	*pgxpool.Pool
}

// PoolOptions tunes the pool. Zero values keep the pgxpool defaults.
type PoolOptions struct {
	MaxConns int32
	// LockTimeout bounds how long a statement waits on a row lock held by
	// a concurrent settlement or transfer.
	LockTimeout time.Duration
}

// NewConnection opens a pool, pins every session to UTC and verifies connectivity
func NewConnection(ctx context.Context, databaseURL string, opts PoolOptions) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"
	if opts.LockTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["lock_timeout"] = fmt.Sprintf("%dms", opts.LockTimeout.Milliseconds())
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(log.Fields{
		"host":         poolConfig.ConnConfig.Host,
		"database":     poolConfig.ConnConfig.Database,
		"max_conns":    poolConfig.MaxConns,
		"lock_timeout": opts.LockTimeout,
	}).Debug("Database pool ready")

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}
