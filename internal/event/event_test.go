package event

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEndTimeUTCWhenTimezoneEmpty(t *testing.T) {
	ev := Event{EndDate: date(2026, time.June, 28)}
	got := ev.EndTime()
	want := time.Date(2026, time.June, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("EndTime() = %v, want %v", got, want)
	}
}

func TestEndTimeLocalZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	ev := Event{EndDate: date(2026, time.June, 28), Timezone: "America/New_York"}
	got := ev.EndTime()
	want := time.Date(2026, time.June, 29, 0, 0, 0, 0, loc).UTC()
	if !got.Equal(want) {
		t.Errorf("EndTime() = %v, want %v", got, want)
	}
}

func TestEndTimeFallsForwardOnDSTGap(t *testing.T) {
	loc, err := time.LoadLocation("America/Havana")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Cuba springs forward at midnight on 2026-03-08, so 00:00 that day
	// does not exist locally and EndTime must fall back to 01:00.
	ev := Event{EndDate: date(2026, time.March, 7), Timezone: "America/Havana"}
	got := ev.EndTime()
	want := time.Date(2026, time.March, 8, 1, 0, 0, 0, loc).UTC()
	if !got.Equal(want) {
		t.Errorf("EndTime() = %v, want %v", got, want)
	}
}

func TestExpiryCutoffAddsGraceDays(t *testing.T) {
	ev := Event{EndDate: date(2026, time.June, 28), Timezone: "America/New_York"}
	got := ev.ExpiryCutoff()
	want := ev.EndTime().AddDate(0, 0, ExpiryGraceDays)
	if !got.Equal(want) {
		t.Errorf("ExpiryCutoff() = %v, want %v", got, want)
	}
}

func TestExpiryCutoffAddsExtraGraceForUnknownTimezone(t *testing.T) {
	known := Event{EndDate: date(2026, time.June, 28), Timezone: "America/New_York"}
	unknown := Event{EndDate: date(2026, time.June, 28)}

	diff := unknown.ExpiryCutoff().Sub(known.ExpiryCutoff())
	// Roughly the unknownTimezoneGraceDays difference, modulo the few
	// hours of UTC offset between the two EndTime() computations.
	if diff < 36*time.Hour {
		t.Errorf("expected unknown-timezone cutoff to be meaningfully later, diff = %v", diff)
	}
}

func TestLabelExpiryIgnoresUnknownTimezoneMargin(t *testing.T) {
	ev := Event{EndDate: date(2026, time.June, 28)}
	got := ev.LabelExpiry()
	want := ev.EndTime().AddDate(0, 0, ExpiryGraceDays)
	if !got.Equal(want) {
		t.Errorf("LabelExpiry() = %v, want %v", got, want)
	}
	if got.Equal(ev.ExpiryCutoff()) {
		t.Error("LabelExpiry() should not equal ExpiryCutoff() for an event with an unknown timezone")
	}
}

func TestIsExpired(t *testing.T) {
	ev := Event{EndDate: date(2026, time.January, 1)}
	cutoff := ev.ExpiryCutoff()

	if ev.IsExpired(cutoff.Add(-time.Second)) {
		t.Error("event should not be expired just before its cutoff")
	}
	if !ev.IsExpired(cutoff) {
		t.Error("event should be expired exactly at its cutoff")
	}
	if !ev.IsExpired(cutoff.Add(time.Second)) {
		t.Error("event should be expired after its cutoff")
	}
}
