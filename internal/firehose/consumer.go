package firehose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/jackc/pgx/v5"

	"github.com/consfyi/bsky-event-ingester/internal/correlation"
	"github.com/consfyi/bsky-event-ingester/internal/label"
	"github.com/consfyi/bsky-event-ingester/internal/metrics"
	"github.com/consfyi/bsky-event-ingester/internal/relayerr"
	"github.com/consfyi/bsky-event-ingester/internal/signing"
	"github.com/consfyi/bsky-event-ingester/internal/store"
)

// Consumer dispatches decoded jetstream events against the correlation
// map and the label store. It holds no connection itself — Run takes a
// *Client for exactly one connection's lifetime, so the caller's fixed
// 1s reconnect loop (SPEC_FULL.md §4.3) owns reconnection.
type Consumer struct {
	LabelerDID      string
	PostCollection  string
	LikeCollection  string
	Correlation     *correlation.Map
	Store           *store.Store
	Notifier        *store.Notifier
	Keypair         *signing.Keypair
	CheckpointEvery time.Duration

	lastCheckpoint time.Time
}

// New returns a Consumer ready to Run against successive connections.
func New(labelerDID string, corr *correlation.Map, st *store.Store, notifier *store.Notifier, kp *signing.Keypair, checkpointEvery time.Duration) *Consumer {
	return &Consumer{
		LabelerDID:      labelerDID,
		PostCollection:  "app.bsky.feed.post",
		LikeCollection:  "app.bsky.feed.like",
		Correlation:     corr,
		Store:           st,
		Notifier:        notifier,
		Keypair:         kp,
		CheckpointEvery: checkpointEvery,
	}
}

// Run reads from c until ctx is canceled or a non-malformed error
// occurs. It returns the last successfully checkpointed cursor
// (microseconds), or the cursor it was given if it made no checkpoint,
// so the caller can resume the next connection from there.
func (cons *Consumer) Run(ctx context.Context, c *Client, cursor int64) (int64, error) {
	checkpointed := cursor
	for {
		select {
		case <-ctx.Done():
			return checkpointed, nil
		default:
		}

		ev, err := c.Next()
		if err != nil {
			if kind, ok := relayerr.KindOf(err); ok && kind == relayerr.KindMalformedInput {
				metrics.FirehoseEventsProcessed.WithLabelValues("unknown", "malformed").Inc()
				continue
			}
			return checkpointed, err
		}

		if ev.TimeUS > 0 {
			cursor = ev.TimeUS
			metrics.FirehoseCursor.Set(float64(ev.TimeUS))
		}

		if err := cons.handle(ctx, ev); err != nil {
			if kind, ok := relayerr.KindOf(err); ok && kind == relayerr.KindMalformedInput {
				// Malformed per-event errors are recoverable: skip and
				// keep reading (SPEC_FULL.md §7, "every per-event error
				// is recoverable except those that cannot be
				// committed").
				metrics.FirehoseEventsProcessed.WithLabelValues(ev.Kind, "malformed").Inc()
				continue
			}
			metrics.FirehoseEventsProcessed.WithLabelValues(ev.Kind, "error").Inc()
			return checkpointed, err
		}
		metrics.FirehoseEventsProcessed.WithLabelValues(ev.Kind, "ok").Inc()

		if cons.shouldCheckpoint() {
			if err := cons.Store.SaveCursor(ctx, cursor); err != nil {
				return checkpointed, relayerr.Transient(fmt.Errorf("firehose: checkpoint cursor: %w", err))
			}
			cons.lastCheckpoint = time.Now()
			checkpointed = cursor
		}
	}
}

func (cons *Consumer) shouldCheckpoint() bool {
	return cons.lastCheckpoint.IsZero() || time.Since(cons.lastCheckpoint) >= cons.CheckpointEvery
}

func (cons *Consumer) handle(ctx context.Context, ev Event) error {
	if ev.Kind != EventKindCommit || ev.Commit == nil {
		return nil
	}
	commit := ev.Commit

	if commit.Collection != cons.LikeCollection {
		return nil
	}

	switch commit.Operation {
	case CommitOperationCreate, CommitOperationUpdate:
		return cons.handleLikeCreate(ctx, ev.DID, ev.TimeUS, commit)
	case CommitOperationDelete:
		return cons.handleLikeDelete(ctx, ev.DID, commit.RKey)
	}
	return nil
}

// handleLikeCreate resolves the like's subject rkey against the
// correlation map and, on a hit, emits a positive label.
func (cons *Consumer) handleLikeCreate(ctx context.Context, authorDID string, timeUS int64, commit *Commit) error {
	var rec likeRecord
	if err := json.Unmarshal(commit.Record, &rec); err != nil {
		return relayerr.Malformed(fmt.Errorf("firehose: unmarshal like record: %w", err))
	}

	rkey, ok := cons.parseSubjectRKey(rec.Subject.URI)
	if !ok {
		return nil
	}

	ev, ok := cons.Correlation.Lookup(rkey)
	if !ok {
		return nil
	}

	lbl := label.New(cons.LabelerDID, ev.LabelID, authorDID, label.FromMicros(timeUS), ev.LabelExpiry())
	return cons.emit(ctx, lbl, &commit.RKey)
}

// handleLikeDelete negates the most recent non-negative label row
// traced back to the deleted like's rkey and issued on its author.
func (cons *Consumer) handleLikeDelete(ctx context.Context, authorDID, likeRKey string) error {
	row, err := cons.mostRecentPositiveRow(ctx, authorDID, likeRKey)
	if err != nil {
		return relayerr.Transient(fmt.Errorf("firehose: lookup like rkey %s: %w", likeRKey, err))
	}
	if row == nil {
		return nil
	}

	lbl := label.NewNegation(cons.LabelerDID, row.Val, row.URI, label.FromMicros(time.Now().UnixMicro()))
	return cons.emit(ctx, lbl, &likeRKey)
}

func (cons *Consumer) mostRecentPositiveRow(ctx context.Context, authorDID, likeRKey string) (*store.LabelRow, error) {
	var row store.LabelRow
	err := cons.Store.Pool.QueryRow(ctx, `
		SELECT seq, val, uri, neg, payload FROM labels
		WHERE like_rkey = $1 AND uri = $2 AND NOT neg
		ORDER BY seq DESC LIMIT 1
	`, likeRKey, authorDID).Scan(&row.Seq, &row.Val, &row.URI, &row.Neg, &row.Payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// emit signs and persists lbl inside a fresh transaction, then wakes
// locally-subscribed Subscription Server instances without waiting on
// Postgres's own NOTIFY round trip.
func (cons *Consumer) emit(ctx context.Context, lbl *comatproto.LabelDefs_Label, likeRKey *string) error {
	tx, err := cons.Store.Pool.Begin(ctx)
	if err != nil {
		return relayerr.Transient(fmt.Errorf("firehose: begin emit tx: %w", err))
	}
	defer tx.Rollback(ctx)

	if _, err := store.Emit(ctx, tx, cons.Keypair, lbl, likeRKey); err != nil {
		return relayerr.Transient(fmt.Errorf("firehose: emit: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return relayerr.Transient(fmt.Errorf("firehose: commit emit tx: %w", err))
	}

	if cons.Notifier != nil {
		cons.Notifier.WakeLocal()
	}
	negated := "false"
	if lbl.Neg != nil && *lbl.Neg {
		negated = "true"
	}
	metrics.LabelsEmitted.WithLabelValues(negated).Inc()
	return nil
}

// parseSubjectRKey extracts rkey from an at-uri of the form
// at://<labelerDID>/<postCollection>/<rkey>, per SPEC_FULL.md §4.3.
func (cons *Consumer) parseSubjectRKey(uri string) (string, bool) {
	prefix := fmt.Sprintf("at://%s/%s/", cons.LabelerDID, cons.PostCollection)
	if !strings.HasPrefix(uri, prefix) {
		return "", false
	}
	rkey := strings.TrimPrefix(uri, prefix)
	if rkey == "" || strings.Contains(rkey, "/") {
		return "", false
	}
	return rkey, true
}
