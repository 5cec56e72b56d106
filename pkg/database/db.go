package database

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nimeshabuddhika/fraud-stream-simulator/pkg/utils"
	"go.uber.org/zap"
)

// Config holds connection settings for the score store.
// DSNs are given without the postgres:// scheme.
type Config struct {
	PrimaryDSN      string
	ReplicaDSNs     []string // reads fall back to primary when empty
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// DB routes writes to the primary pool and reads round-robin across replicas.
type DB struct {
	primary  *pgxpool.Pool
	replicas []*pgxpool.Pool
	next     atomic.Uint64
}

// New opens and pings every pool. The returned closer releases all of them.
func New(ctx context.Context, logger *zap.Logger, cfg Config) (*DB, func(), error) {
	primary, err := openPool(ctx, logger, cfg, cfg.PrimaryDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open primary pool: %w", err)
	}

	db := &DB{primary: primary}
	for _, dsn := range cfg.ReplicaDSNs {
		if utils.IsEmpty(dsn) {
			continue
		}
		replica, err := openPool(ctx, logger, cfg, dsn)
		if err != nil {
			db.close(logger)
			return nil, nil, fmt.Errorf("open replica pool: %w", err)
		}
		db.replicas = append(db.replicas, replica)
	}
	logger.Info("postgres_pools_ready", zap.Int("replicas", len(db.replicas)))

	return db, func() { db.close(logger) }, nil
}

func openPool(ctx context.Context, logger *zap.Logger, cfg Config, dsn string) (*pgxpool.Pool, error) {
	url := "postgres://" + dsn
	pc, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	pc.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Debug("postgres_pool_established", zap.String("dsn", MaskDSN(url)))
	return pool, nil
}

func (db *DB) close(logger *zap.Logger) {
	for _, r := range db.replicas {
		r.Close()
	}
	db.primary.Close()
	logger.Info("postgres_pools_closed")
}

// MaskDSN replaces the credentials of a postgres URL.
func MaskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok || !strings.Contains(creds, ":") {
		return dsn
	}
	return scheme + "://*****:*****@" + host
}

// WithTransaction runs fn inside a primary transaction. It commits when fn
// returns nil and rolls back on error or panic.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	tx, err := db.primary.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()
	return fn(ctx, tx)
}

// QueryRow runs a read on the next replica, or the primary when none is configured.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return db.reader().QueryRow(ctx, sql, args...)
}

// Ping checks the primary pool.
func (db *DB) Ping(ctx context.Context) error {
	return db.primary.Ping(ctx)
}

func (db *DB) reader() *pgxpool.Pool {
	if len(db.replicas) == 0 {
		return db.primary
	}
	n := db.next.Add(1)
	return db.replicas[n%uint64(len(db.replicas))]
}
