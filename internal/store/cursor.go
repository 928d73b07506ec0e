package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Cursor returns the last checkpointed firehose timestamp (microseconds
// since epoch), and false if the ingester has never checkpointed.
func (s *Store) Cursor(ctx context.Context) (int64, bool, error) {
	var cursor int64
	err := s.Pool.QueryRow(ctx, `SELECT cursor FROM jetstream_cursor WHERE singleton`).Scan(&cursor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("store: cursor: %w", err)
	}
	return cursor, true, nil
}

// SaveCursor checkpoints the firehose cursor. SPEC_FULL.md §4.3
// redesigns the original's per-event upsert into a throttled one (the
// Firehose Consumer calls this at most once per
// commit_firehose_cursor_every_secs, not per event), so this write sits
// off the hot path and durability of the very latest position is not
// worth the fsync cost: SET LOCAL synchronous_commit TO OFF lets
// Postgres acknowledge the commit before the WAL hits disk, trading a
// few seconds of replay-on-crash for throughput.
func (s *Store) SaveCursor(ctx context.Context, us int64) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: save cursor: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SET LOCAL synchronous_commit TO OFF`); err != nil {
		return fmt.Errorf("store: save cursor: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO jetstream_cursor (singleton, cursor) VALUES (true, $1)
		ON CONFLICT (singleton) DO UPDATE SET cursor = EXCLUDED.cursor
	`, us)
	if err != nil {
		return fmt.Errorf("store: save cursor: %w", err)
	}

	return tx.Commit(ctx)
}
