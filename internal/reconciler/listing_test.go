package reconciler

import "testing"

func TestParseListingEntry(t *testing.T) {
	entry := listingEntry{
		ID:        "con-2026",
		Name:      "Anthrocon",
		Venue:     "David L. Lawrence Convention Center",
		Country:   "US",
		StartDate: "2026-06-26",
		EndDate:   "2026-06-29",
		Timezone:  "America/New_York",
	}

	ev, err := parseListingEntry(entry)
	if err != nil {
		t.Fatalf("parseListingEntry: %v", err)
	}
	if ev.LabelID != "anthrocon" {
		t.Errorf("LabelID = %q, want anthrocon", ev.LabelID)
	}
	if ev.StartDate.Format(listingDateLayout) != "2026-06-26" {
		t.Errorf("StartDate = %v", ev.StartDate)
	}
	if ev.EndDate.Format(listingDateLayout) != "2026-06-29" {
		t.Errorf("EndDate = %v", ev.EndDate)
	}
}

func TestParseListingEntryMissingID(t *testing.T) {
	_, err := parseListingEntry(listingEntry{Name: "X", StartDate: "2026-01-01", EndDate: "2026-01-02"})
	if err == nil {
		t.Error("expected an error for a missing id")
	}
}

func TestParseListingEntryMissingName(t *testing.T) {
	_, err := parseListingEntry(listingEntry{ID: "x", StartDate: "2026-01-01", EndDate: "2026-01-02"})
	if err == nil {
		t.Error("expected an error for a missing name")
	}
}

func TestParseListingEntryBadDate(t *testing.T) {
	_, err := parseListingEntry(listingEntry{ID: "x", Name: "X", StartDate: "not-a-date", EndDate: "2026-01-02"})
	if err == nil {
		t.Error("expected an error for an unparseable start_date")
	}
}
