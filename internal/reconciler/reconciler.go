// Package reconciler implements the Reconciler (SPEC_FULL.md §4.4): it
// synchronizes the labeler's published service record and per-event
// posts against the external event listing, then atomically replaces
// the in-memory correlation map.
//
// Grounded on original_source/src/bin/event_ingester.rs's sync_labels,
// translated from atrium's agent/apply_writes calls to indigo's
// comatproto.RepoApplyWrites, and from a single unchunked write batch
// to one chunked ≤200 writes per call (SPEC_FULL.md §4.4 step 9).
package reconciler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/xrpc"

	"github.com/consfyi/bsky-event-ingester/internal/correlation"
	"github.com/consfyi/bsky-event-ingester/internal/event"
	"github.com/consfyi/bsky-event-ingester/internal/legacyid"
	"github.com/consfyi/bsky-event-ingester/internal/metrics"
	"github.com/consfyi/bsky-event-ingester/internal/relayerr"
)

// maxWritesPerCall caps each applyWrites request, per SPEC_FULL.md §4.4
// step 9's "apply in chunks of ≤200".
const maxWritesPerCall = 200

// Reconciler owns the inputs a run needs beyond the shared correlation
// map itself.
type Reconciler struct {
	Client      *xrpc.Client
	RepoDID     string
	UIEndpoint  string
	EventsURL   string
	HTTPClient  *http.Client
	Correlation *correlation.Map
}

// New returns a Reconciler ready for repeated Run calls.
func New(client *xrpc.Client, repoDID, uiEndpoint, eventsURL string, corr *correlation.Map) *Reconciler {
	return &Reconciler{
		Client:      client,
		RepoDID:     repoDID,
		UIEndpoint:  uiEndpoint,
		EventsURL:   eventsURL,
		HTTPClient:  http.DefaultClient,
		Correlation: corr,
	}
}

// Run executes one full synchronization pass. It holds the correlation
// map's mutex for its entire duration (SPEC_FULL.md §5: "the
// correlation map is behind a single mutex held by the Reconciler for
// the duration of a run"), so the map is never observed partially
// updated and no like-handler can race a map rebuild.
func (r *Reconciler) Run(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		metrics.ReconcilerDuration.Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.ReconcilerRuns.WithLabelValues(outcome).Inc()
	}()

	r.Correlation.Lock()
	defer r.Correlation.Unlock()

	now := time.Now().UTC()

	events, parseErrs := fetchListing(ctx, r.HTTPClient, r.EventsURL)
	for _, e := range parseErrs {
		if _, ok := relayerr.KindOf(e); ok {
			// The listing as a whole could not be fetched or decoded:
			// abort the run rather than reconcile against no events.
			return fmt.Errorf("reconciler: %w", e)
		}
		log.Printf("reconciler: %v", e)
	}

	fresh := make([]event.Event, 0, len(events))
	for _, ev := range events {
		if ev.IsExpired(now) {
			continue
		}
		fresh = append(fresh, ev)
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		a, b := fresh[i], fresh[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if !a.EndDate.Equal(b.EndDate) {
			return a.EndDate.Before(b.EndDate)
		}
		return a.ID < b.ID
	})

	freshByID := make(map[string]int, len(fresh))
	for i, ev := range fresh {
		freshByID[ev.ID] = i
	}

	old, err := probeExistingPosts(ctx, r.Client, r.RepoDID, r.UIEndpoint)
	if err != nil {
		return fmt.Errorf("reconciler: probe existing posts: %w", err)
	}

	serviceExists, oldDefs, err := fetchServiceRecordExists(ctx, r.Client, r.RepoDID)
	if err != nil {
		return fmt.Errorf("reconciler: fetch service record: %w", err)
	}
	logLegacyIdentifiers(oldDefs)

	var writes []*comatproto.RepoApplyWrites_Input_Writes_Elem

	// Preserve rkeys for events still present; delete posts/threadgates
	// for events that fell out of the listing.
	rkeyByEventID := make(map[string]string)
	for rkey, eventID := range old.eventIDByRKey {
		if _, ok := freshByID[eventID]; ok {
			rkeyByEventID[eventID] = rkey
			continue
		}
		writes = append(writes, deletePostAndThreadgate(rkey)...)
	}

	// Allocate fresh rkeys for newly-seen events. Timestamps increment
	// by 1ms per allocation to side-step the remote server's rejection
	// of duplicate record-key timestamps within the same commit.
	allocTime := now
	for i := range fresh {
		if _, ok := rkeyByEventID[fresh[i].ID]; ok {
			continue
		}
		rkey := allocateRKey(allocTime)
		allocTime = allocTime.Add(time.Millisecond)

		writes = append(writes, buildPostAndThreadgate(r.RepoDID, r.UIEndpoint, fresh[i], rkey, now)...)
		rkeyByEventID[fresh[i].ID] = rkey
	}

	for i := range fresh {
		fresh[i].RKey = rkeyByEventID[fresh[i].ID]
	}

	if serviceExists {
		writes = append(writes, deleteElem(collectionService, selfRKey))
	}
	selfKey := selfRKey
	serviceRecord := buildServiceRecord(fresh, now)
	writes = append(writes, writeElem(collectionService, &selfKey, serviceRecord))

	if err := r.applyWritesChunked(ctx, writes); err != nil {
		return fmt.Errorf("reconciler: apply writes: %w", err)
	}

	r.Correlation.ReplaceLocked(fresh)
	metrics.CorrelationMapSize.Set(float64(len(fresh)))
	return nil
}

func (r *Reconciler) applyWritesChunked(ctx context.Context, writes []*comatproto.RepoApplyWrites_Input_Writes_Elem) error {
	validate := true
	for start := 0; start < len(writes); start += maxWritesPerCall {
		end := start + maxWritesPerCall
		if end > len(writes) {
			end = len(writes)
		}
		_, err := comatproto.RepoApplyWrites(ctx, r.Client, &comatproto.RepoApplyWrites_Input{
			Repo:     r.RepoDID,
			Validate: &validate,
			Writes:   writes[start:end],
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// logLegacyIdentifiers tolerates label-value definitions left over
// from before this service only wrote slug-form identifiers: a
// definition whose identifier has no hyphen might be a legacy
// base26-numeral id rather than a one-word slug. Per SPEC_FULL.md's
// Open Question (a), the write path never produces this form again —
// this is read-time recognition only, for operator visibility; the
// definition itself is still replaced wholesale by step 8 regardless.
func logLegacyIdentifiers(defs []*comatproto.LabelDefs_LabelValueDefinition) {
	for _, def := range defs {
		if def == nil || containsHyphen(def.Identifier) {
			continue
		}
		if id, ok := legacyid.Decode(def.Identifier); ok {
			log.Printf("reconciler: label identifier %q looks like a legacy numeral id (%d); will be rewritten as a slug", def.Identifier, id)
		}
	}
}

func containsHyphen(s string) bool {
	for _, r := range s {
		if r == '-' {
			return true
		}
	}
	return false
}

// allocateRKey derives a TID-shaped rkey from t. Indigo's repo
// implementations accept any valid record-key syntax; a
// microsecond-since-epoch hex/base32 TID (the same clock-derived shape
// atproto repos use natively) keeps collisions as unlikely as the
// 1ms-incrementing clock the caller already arranges.
func allocateRKey(t time.Time) string {
	return encodeTID(t.UnixMicro())
}
