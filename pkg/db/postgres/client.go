package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canopy-network/walletsync/pkg/retry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DefaultIdleTimeout is how long an idle connection is kept before it is recycled.
const DefaultIdleTimeout = 600 * time.Second

// Executor is an interface that both *pgxpool.Pool and pgx.Tx implement.
// This allows methods to work with either a connection pool or a transaction.
type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Client is the process-wide connection pool. Build it once at startup and Close it at shutdown.
type Client struct {
	Logger *zap.Logger
	Pool   *pgxpool.Pool
}

// PoolConfig bounds the pool.
type PoolConfig struct {
	MinConns          int32
	MaxConns          int32
	ConnMaxLifetime   time.Duration
	ConnMaxIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	Component         string
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MinConns:          2,
		MaxConns:          20,
		ConnMaxLifetime:   time.Hour,
		ConnMaxIdleTime:   DefaultIdleTimeout,
		HealthCheckPeriod: 30 * time.Second,
		Component:         "walletd",
	}
}

func (p PoolConfig) apply(cfg *pgxpool.Config) {
	cfg.MinConns = p.MinConns
	cfg.MaxConns = p.MaxConns
	cfg.MaxConnLifetime = p.ConnMaxLifetime
	cfg.MaxConnIdleTime = p.ConnMaxIdleTime
	if cfg.MaxConnIdleTime <= 0 {
		cfg.MaxConnIdleTime = DefaultIdleTimeout
	}
	if p.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = p.HealthCheckPeriod
	}
}

// New connects to dbURL and verifies the pool with a ping, retrying with backoff.
// Broken connections are dropped by the pool health check and re-dialed on demand.
func New(ctx context.Context, logger *zap.Logger, dbURL string, poolConf PoolConfig) (*Client, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres url: %w", err)
	}
	poolConf.apply(config)

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	client := &Client{Logger: logger}
	retryErr := retry.WithBackoff(connCtx, retry.DefaultConfig(), logger, "postgres_connection", func() error {
		pool, openErr := pgxpool.NewWithConfig(connCtx, config)
		if openErr != nil {
			return fmt.Errorf("failed to create postgres connection pool: %w", openErr)
		}
		if pingErr := pool.Ping(connCtx); pingErr != nil {
			pool.Close()
			return classifyConnectError(fmt.Errorf("failed to ping postgres: %w", pingErr))
		}
		client.Pool = pool
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	logger.Info("PostgreSQL connection pool configured",
		zap.String("database", config.ConnConfig.Database),
		zap.String("component", poolConf.Component),
		zap.Int32("min_conns", config.MinConns),
		zap.Int32("max_conns", config.MaxConns),
		zap.Duration("conn_max_lifetime", config.MaxConnLifetime),
		zap.Duration("conn_max_idle_time", config.MaxConnIdleTime),
	)
	return client, nil
}

// classifyConnectError stops the connect retry loop for failures another attempt
// cannot fix: rejected credentials and a missing database.
func classifyConnectError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case strings.HasPrefix(pgErr.Code, "28"), pgErr.Code == "3D000":
		return retry.Permanent(err)
	default:
		return err
	}
}

// Acquire checks out a dedicated connection. The caller must Release it.
func (c *Client) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	return c.Pool.Acquire(ctx)
}

// WithConn runs fn on a dedicated connection and releases it on every exit path.
func (c *Client) WithConn(ctx context.Context, fn func(*pgxpool.Conn) error) error {
	conn, err := c.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	return fn(conn)
}

// Exec executes a query without returning any rows
func (c *Client) Exec(ctx context.Context, query string, args ...any) error {
	_, err := c.GetExecutor(ctx).Exec(ctx, query, args...)
	return err
}

// BeginFunc runs fn in a transaction that is committed when fn returns nil and
// rolled back otherwise. The context handed to fn carries the transaction, so
// accessor calls made with it share one connection.
func (c *Client) BeginFunc(ctx context.Context, fn func(ctx context.Context) error) error {
	return pgx.BeginFunc(ctx, c.Pool, func(tx pgx.Tx) error {
		return fn(c.WithTx(ctx, tx))
	})
}

func (c *Client) Ping(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

// Close drains the pool.
func (c *Client) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

type ctxKey string

const txKey ctxKey = "pgx_tx"

// WithTx returns a new context with the transaction embedded
func (c *Client) WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetExecutor returns the transaction carried by ctx, or the pool when there is none.
func (c *Client) GetExecutor(ctx context.Context) Executor {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return c.Pool
}

func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok
}

// IsNoRows checks if the error is a "no rows" error
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
