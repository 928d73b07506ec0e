package correlation

import (
	"testing"

	"github.com/consfyi/bsky-event-ingester/internal/event"
)

func TestLookupMissOnEmptyMap(t *testing.T) {
	m := New()
	if _, ok := m.Lookup("rkey1"); ok {
		t.Error("Lookup on empty map should miss")
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestReplaceThenLookup(t *testing.T) {
	m := New()
	m.Replace([]event.Event{
		{ID: "con-2026", Name: "Anthrocon", LabelID: "anthrocon", RKey: "rkey1"},
	})

	ev, ok := m.Lookup("rkey1")
	if !ok {
		t.Fatal("Lookup should hit after Replace")
	}
	if ev.LabelID != "anthrocon" {
		t.Errorf("ev.LabelID = %q, want anthrocon", ev.LabelID)
	}

	ev2, ok := m.LookupByEventID("con-2026")
	if !ok || ev2.ID != "con-2026" {
		t.Errorf("LookupByEventID missed or returned wrong event: %+v", ev2)
	}
}

func TestReplaceSwapsOutStaleEntries(t *testing.T) {
	m := New()
	m.Replace([]event.Event{{ID: "a", RKey: "rkey-a"}})
	m.Replace([]event.Event{{ID: "b", RKey: "rkey-b"}})

	if _, ok := m.Lookup("rkey-a"); ok {
		t.Error("stale rkey from the previous Replace should no longer resolve")
	}
	if _, ok := m.Lookup("rkey-b"); !ok {
		t.Error("rkey from the latest Replace should resolve")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestEventWithoutRKeyIsNotByRKeyLookupable(t *testing.T) {
	m := New()
	m.Replace([]event.Event{{ID: "future-con"}})

	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if _, ok := m.LookupByEventID("future-con"); !ok {
		t.Error("event with no rkey yet should still be reachable by id")
	}
}

func TestLockAllowsReplaceLockedWithoutDeadlock(t *testing.T) {
	m := New()
	m.Lock()
	m.ReplaceLocked([]event.Event{{ID: "a", RKey: "rkey-a"}})
	m.Unlock()

	if _, ok := m.Lookup("rkey-a"); !ok {
		t.Error("ReplaceLocked under an externally held Lock should still take effect")
	}
}
