package store

import (
	"context"
	"fmt"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/jackc/pgx/v5"

	"github.com/consfyi/bsky-event-ingester/internal/canon"
	"github.com/consfyi/bsky-event-ingester/internal/signing"
)

// Emit signs lbl, inserts it as the next row of the label log, and
// issues a NOTIFY so any listening Subscription Server instances wake
// up and replay the new row — all within tx, so a caller that rolls
// back tx (e.g. because a later step in the same unit of work fails)
// never leaves a half-emitted label behind.
//
// likeRkey identifies the originating like record's rkey for positive
// labels, and the record being negated for negations; it is NULL-able
// because not every label traces back to a like (labels written
// out-of-band, e.g. by cmd/writelabel; see SPEC_FULL.md §3).
func Emit(ctx context.Context, tx pgx.Tx, kp *signing.Keypair, lbl *comatproto.LabelDefs_Label, likeRkey *string) (int64, error) {
	payload, err := canon.Sign(kp, lbl)
	if err != nil {
		return 0, fmt.Errorf("store: emit: sign: %w", err)
	}

	neg := lbl.Neg != nil && *lbl.Neg

	var seq int64
	err = tx.QueryRow(ctx,
		`INSERT INTO labels (val, uri, neg, payload, like_rkey) VALUES ($1, $2, $3, $4, $5) RETURNING seq`,
		lbl.Val, lbl.Uri, neg, payload, likeRkey,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("store: emit: insert: %w", err)
	}

	if _, err := tx.Exec(ctx, `NOTIFY labels`); err != nil {
		return 0, fmt.Errorf("store: emit: notify: %w", err)
	}

	return seq, nil
}

// LabelRow is a row of the label log as read back for replay or the
// admin query endpoint.
type LabelRow struct {
	Seq     int64
	Val     string
	URI     string
	Neg     bool
	Payload []byte
}

// Since returns every row with seq strictly greater than after, ordered
// by seq ascending, for the Subscription Server's tail replay.
func (s *Store) Since(ctx context.Context, after int64) ([]LabelRow, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT seq, val, uri, neg, payload FROM labels WHERE seq > $1 ORDER BY seq ASC`,
		after,
	)
	if err != nil {
		return nil, fmt.Errorf("store: since: %w", err)
	}
	defer rows.Close()

	var out []LabelRow
	for rows.Next() {
		var r LabelRow
		if err := rows.Scan(&r.Seq, &r.Val, &r.URI, &r.Neg, &r.Payload); err != nil {
			return nil, fmt.Errorf("store: since: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: since: %w", err)
	}
	return out, nil
}

// Query implements the admin endpoint's filtered lookup (SPEC_FULL.md
// §4.6): rows matching uri and/or val, most recent first, capped at
// limit.
func (s *Store) Query(ctx context.Context, uri, val string, limit int) ([]LabelRow, error) {
	q := `SELECT seq, val, uri, neg, payload FROM labels WHERE TRUE`
	args := []any{}
	if uri != "" {
		args = append(args, uri)
		q += fmt.Sprintf(" AND uri = $%d", len(args))
	}
	if val != "" {
		args = append(args, val)
		q += fmt.Sprintf(" AND val = $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY seq DESC LIMIT $%d", len(args))

	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	var out []LabelRow
	for rows.Next() {
		var r LabelRow
		if err := rows.Scan(&r.Seq, &r.Val, &r.URI, &r.Neg, &r.Payload); err != nil {
			return nil, fmt.Errorf("store: query: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	return out, nil
}
