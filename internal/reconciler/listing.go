package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/consfyi/bsky-event-ingester/internal/event"
	"github.com/consfyi/bsky-event-ingester/internal/relayerr"
	"github.com/consfyi/bsky-event-ingester/internal/slug"
)

// listingEntry is the wire shape of one item in the external event
// listing fetched from events_url: a JSON array of conventions, one
// entry per event, field names matching SPEC_FULL.md §3's Event model
// directly rather than the original iCal/VEVENT properties it was
// translated from (UID/SUMMARY/LOCATION/DTSTART/DTEND in
// original_source/src/bin/event_ingester.rs).
type listingEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Venue     string `json:"venue"`
	Address   string `json:"address"`
	Country   string `json:"country"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Timezone  string `json:"timezone"`
}

const listingDateLayout = "2006-01-02"

// fetchListing retrieves and parses the external event listing,
// populating each event's LabelID via the locale-aware slug. Events
// missing a required field are skipped and logged by the caller rather
// than aborting the whole sync, matching the original's per-event
// parse-error tolerance.
func fetchListing(ctx context.Context, client *http.Client, eventsURL string) ([]event.Event, []error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, eventsURL, nil)
	if err != nil {
		return nil, []error{relayerr.Transient(fmt.Errorf("reconciler: build listing request: %w", err))}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, []error{relayerr.Transient(fmt.Errorf("reconciler: fetch listing: %w", err))}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, []error{relayerr.Transient(fmt.Errorf("reconciler: fetch listing: status %d", resp.StatusCode))}
	}

	var entries []listingEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, []error{relayerr.Malformed(fmt.Errorf("reconciler: decode listing: %w", err))}
	}

	var events []event.Event
	var errs []error
	for _, entry := range entries {
		ev, err := parseListingEntry(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("reconciler: skipping event %q: %w", entry.ID, err))
			continue
		}
		events = append(events, ev)
	}
	return events, errs
}

func parseListingEntry(entry listingEntry) (event.Event, error) {
	if entry.ID == "" {
		return event.Event{}, fmt.Errorf("missing id")
	}
	if entry.Name == "" {
		return event.Event{}, fmt.Errorf("missing name")
	}

	start, err := time.Parse(listingDateLayout, entry.StartDate)
	if err != nil {
		return event.Event{}, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.Parse(listingDateLayout, entry.EndDate)
	if err != nil {
		return event.Event{}, fmt.Errorf("invalid end_date: %w", err)
	}

	tag := slug.ForCountry(entry.Country)

	return event.Event{
		ID:        entry.ID,
		Name:      entry.Name,
		Venue:     entry.Venue,
		Address:   entry.Address,
		Country:   entry.Country,
		StartDate: start,
		EndDate:   end,
		Timezone:  entry.Timezone,
		LabelID:   slug.ForLabel(entry.Name, tag),
	}, nil
}
