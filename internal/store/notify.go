package store

import (
	"context"
	"errors"
	"sync"
)

// Notifier fans out a single `LISTEN labels` connection to many waiters.
// It carries no payload — a woken waiter is expected to re-query Since
// by its own last-sent seq, since the Subscription Server's frames must
// be re-derived from the payload column rather than replayed from a
// cached buffer (see SPEC_FULL.md §4.5).
//
// Adapted from the teacher's internal/events.Manager: same
// mutex-protected subscriber set and non-blocking, coalescing
// broadcast, generalized from "deliver this pre-serialized frame" to
// "wake up and go look", since the Subscription Server needs the
// freshest DB-read payload anyway.
type Notifier struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// NewNotifier returns an empty Notifier. Call Listen in its own
// goroutine to start actually receiving wakeups.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[chan struct{}]struct{})}
}

// Subscribe registers a new waiter. The returned channel receives a
// value (possibly coalesced with others) every time the label log
// changes; cancel deregisters it. The channel is buffered with
// capacity 1 so a wakeup is never lost to a consumer that's mid-query.
func (n *Notifier) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		delete(n.subs, ch)
		n.mu.Unlock()
	}
	return ch, cancel
}

func (n *Notifier) wake() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Listen acquires a dedicated connection and blocks issuing `LISTEN
// labels`, waking every subscriber on each notification, until ctx is
// canceled or the connection is lost. Callers run this in a supervised
// goroutine and treat a returned error as fatal to the process, per
// SPEC_FULL.md §5's "first failure aborts" supervision model.
func (n *Notifier) Listen(ctx context.Context, s *Store) error {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `LISTEN labels`); err != nil {
		return err
	}

	for {
		_, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		n.wake()
	}
}

// WakeLocal is used by the unit that just performed an Emit within the
// same process to notify local subscribers immediately, without
// waiting on the round trip through Postgres's own notification
// delivery. Safe to call in addition to the NOTIFY already issued
// inside the Emit transaction; Listen's own wakeup will arrive shortly
// after and simply be a harmless no-op re-wake.
func (n *Notifier) WakeLocal() {
	n.wake()
}
