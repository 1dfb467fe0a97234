package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Pool defaults used when the corresponding config value is unset. The api
// and worker share one database, so both size their pools from config.
const (
	defaultMaxOpenConns = 10
	defaultMaxIdleConns = 5
	defaultConnLifetime = time.Hour
	pingTimeout         = 3 * time.Second
)

// PoolConfig sizes the sql.DB connection pool.
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// DB wraps the pooled Postgres handle used by the repositories.
type DB struct {
	Client *sql.DB
}

// NewDB opens a Postgres pool via the pgx stdlib driver and verifies
// connectivity with a bounded ping. A connection string that fails to parse
// returns a nil DB; a ping failure returns the pool alongside the error so
// the caller decides whether an unreachable database is fatal.
func NewDB(connString string, pool PoolConfig) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}

	if pool.MaxOpenConns <= 0 {
		pool.MaxOpenConns = defaultMaxOpenConns
	}
	if pool.MaxIdleConns <= 0 {
		pool.MaxIdleConns = defaultMaxIdleConns
	}
	if pool.ConnLifetime <= 0 {
		pool.ConnLifetime = defaultConnLifetime
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return &DB{Client: db}, db.PingContext(ctx)
}

// Close closes the underlying pool.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
