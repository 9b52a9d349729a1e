package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Every request handler holds at most one connection for the length of its
// unit of work, so the pool bounds concurrent game actions.
const (
	defaultMaxConns          = 20
	defaultMaxConnIdleTime   = 5 * time.Minute
	defaultHealthCheckPeriod = 30 * time.Second
)

// DB wraps the pgx pool shared by repositories and units of work
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a pool for databaseURL and pings it. Pool limits given
// in the URL (pool_max_conns and friends) win over the defaults.
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	connString := poolConfig.ConnString()
	if !hasParam(connString, "pool_max_conns") {
		poolConfig.MaxConns = defaultMaxConns
	}
	if !hasParam(connString, "pool_max_conn_idle_time") {
		poolConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	}
	if !hasParam(connString, "pool_health_check_period") {
		poolConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	}

	// Dice cooldowns and offer ordering compare timestamps
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(log.Fields{
		"host":     poolConfig.ConnConfig.Host,
		"database": poolConfig.ConnConfig.Database,
		"maxConns": poolConfig.MaxConns,
	}).Debug("Database pool ready")

	return &DB{Pool: pool}, nil
}

// Close releases every pooled connection
func (db *DB) Close() {
	db.Pool.Close()
}
