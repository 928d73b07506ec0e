// Package store owns the PostgreSQL connection pool, schema bootstrap,
// the Label Emitter, the firehose cursor singleton, and the
// LISTEN/NOTIFY-driven change notifier the Subscription Server waits on.
//
// Adapted from the teacher's internal/database package: the same
// pgxpool.ParseConfig/NewWithConfig/Ping bootstrap sequence, generalized
// from a multi-tenant PoolManager down to the single pool this service
// needs, and from the teacher's internal/events package: the same
// "BIGSERIAL seq, insert returns seq" pattern generalized from a
// firehose commit log to a label log, plus channel notification this
// service raises with a real `NOTIFY labels` instead of only an
// in-process broadcast.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema contains the SQL statements bootstrapping the label log and
// cursor singleton, per SPEC_FULL.md §6.
const Schema = `
-- labels: append-only log of signed label records. seq is the
-- monotonically increasing cursor subscribers replay from.
CREATE TABLE IF NOT EXISTS labels (
    seq       BIGSERIAL PRIMARY KEY,
    val       TEXT NOT NULL,
    uri       TEXT NOT NULL,
    neg       BOOL NOT NULL DEFAULT false,
    payload   BYTEA NOT NULL,
    like_rkey TEXT NULL
);

CREATE INDEX IF NOT EXISTS idx_labels_like_rkey ON labels(like_rkey) WHERE NOT neg;
CREATE INDEX IF NOT EXISTS idx_labels_uri ON labels(uri);

-- jetstream_cursor: single-row checkpoint of the last observed firehose
-- timestamp (microseconds since epoch), used to resume after a restart.
CREATE TABLE IF NOT EXISTS jetstream_cursor (
    singleton BOOL PRIMARY KEY DEFAULT true,
    cursor    BIGINT NOT NULL,
    CONSTRAINT jetstream_cursor_singleton CHECK (singleton)
);
`

// Store wraps a pgx connection pool with application-level helpers for
// the label pipeline.
type Store struct {
	Pool *pgxpool.Pool
}

// Open connects to Postgres, verifies the connection, and bootstraps
// the schema.
func Open(ctx context.Context, connString string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("store: parse config: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: bootstrap schema: %w", err)
	}

	return &Store{Pool: pool}, nil
}

// Close shuts down the connection pool.
func (s *Store) Close() {
	s.Pool.Close()
}

// MaxSeq returns the highest seq currently in the labels table, or 0 if
// the table is empty.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var max int64
	err := s.Pool.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM labels`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("store: max seq: %w", err)
	}
	return max, nil
}
