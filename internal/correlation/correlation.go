// Package correlation holds the in-memory projection the Firehose
// Consumer uses to decide, in O(1) and without touching Postgres,
// whether a like is one this service cares about: the map from the
// rkey of one of the labeler's own event posts to the event it
// advertises, kept current by the Reconciler.
//
// Grounded on the teacher's internal/events.Manager mutex-protected
// subscriber set (same "hold a single mutex across reads born from a
// different goroutine than the writer" shape), generalized here from a
// set of channels to a pair of maps describing the event catalog.
package correlation

import (
	"sync"

	"github.com/consfyi/bsky-event-ingester/internal/event"
)

// Map is the shared rkey/event projection described by SPEC_FULL.md §4
// invariant "for any (id, rkey) pair in the shared map, the
// corresponding event is present in the map". It is safe for
// concurrent use: the Reconciler holds its single mutex for the
// duration of a whole run via Lock and ReplaceLocked; the Firehose Consumer holds it
// only briefly, once per observed like, via Lookup.
type Map struct {
	mu        sync.Mutex
	byRKey    map[string]string      // post rkey -> event id
	byEventID map[string]event.Event // event id -> event
}

// New returns an empty Map. The Firehose Consumer can start consuming
// against it before the first Reconciler run completes; until then
// every Lookup simply misses.
func New() *Map {
	return &Map{
		byRKey:    make(map[string]string),
		byEventID: make(map[string]event.Event),
	}
}

// Lookup resolves a post rkey (as referenced by a like's subject) to
// the event it names, if any.
func (m *Map) Lookup(rkey string) (event.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byRKey[rkey]
	if !ok {
		return event.Event{}, false
	}
	ev, ok := m.byEventID[id]
	return ev, ok
}

// LookupByEventID resolves an event by id directly.
func (m *Map) LookupByEventID(id string) (event.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.byEventID[id]
	return ev, ok
}

// Replace atomically swaps in a brand new projection, built fresh by a
// single Reconciler run. Doing this as one swap rather than incremental
// add/remove calls is what gives the invariant above its simplicity: a
// reader never observes a byRKey entry whose byEventID counterpart
// hasn't been written yet.
func (m *Map) Replace(events []event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceLocked(events)
}

// ReplaceLocked is Replace without acquiring the mutex, for a caller
// that is already holding it via Lock (the Reconciler, which per
// SPEC_FULL.md §5 holds the mutex for the duration of an entire run,
// not just this final swap).
func (m *Map) ReplaceLocked(events []event.Event) {
	m.replaceLocked(events)
}

func (m *Map) replaceLocked(events []event.Event) {
	byRKey := make(map[string]string, len(events))
	byEventID := make(map[string]event.Event, len(events))
	for _, ev := range events {
		byEventID[ev.ID] = ev
		if ev.RKey != "" {
			byRKey[ev.RKey] = ev.ID
		}
	}
	m.byRKey = byRKey
	m.byEventID = byEventID
}

// Len reports how many events the current projection holds, for
// metrics/diagnostics.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byEventID)
}

// Lock exposes the underlying mutex so the Reconciler can hold it for
// the duration of an entire run — not just the swap in Replace — per
// SPEC_FULL.md §5's "the correlation map is behind a single mutex held
// by the Reconciler for the duration of a run". Callers must pair every
// Lock with Unlock and must not call Replace/Lookup while already
// holding it from Lock (they are not reentrant).
func (m *Map) Lock()   { m.mu.Lock() }
func (m *Map) Unlock() { m.mu.Unlock() }
