package reconciler

import (
	"strings"
	"testing"
	"time"

	"github.com/bluesky-social/indigo/api/bsky"

	"github.com/consfyi/bsky-event-ingester/internal/event"
)

func TestBuildPostAndThreadgateLinksToConsURL(t *testing.T) {
	ev := event.Event{ID: "con-2026", Name: "Anthrocon"}
	writes := buildPostAndThreadgate("did:plc:labeler", "https://furrycons.example", ev, "rkey1", time.Unix(0, 0))
	if len(writes) != 2 {
		t.Fatalf("len(writes) = %d, want 2", len(writes))
	}

	post, ok := writes[0].RepoApplyWrites_Create.Value.Val.(*bsky.FeedPost)
	if !ok {
		t.Fatalf("writes[0] is not a FeedPost create: %T", writes[0].RepoApplyWrites_Create.Value.Val)
	}
	if post.Text != ev.Name {
		t.Errorf("post.Text = %q, want %q", post.Text, ev.Name)
	}
	if len(post.Facets) != 1 || len(post.Facets[0].Features) != 1 {
		t.Fatalf("expected exactly one facet with one feature, got %+v", post.Facets)
	}
	link := post.Facets[0].Features[0].RichtextFacet_Link
	if link == nil {
		t.Fatal("expected a link feature")
	}
	want := "https://furrycons.example/cons/con-2026"
	if link.Uri != want {
		t.Errorf("link.Uri = %q, want %q", link.Uri, want)
	}

	tg, ok := writes[1].RepoApplyWrites_Create.Value.Val.(*bsky.FeedThreadgate)
	if !ok {
		t.Fatalf("writes[1] is not a FeedThreadgate create: %T", writes[1].RepoApplyWrites_Create.Value.Val)
	}
	if tg.Allow == nil || len(tg.Allow) != 0 {
		t.Errorf("threadgate.Allow = %+v, want an empty (non-nil) slice forbidding all replies", tg.Allow)
	}
}

func TestDeletePostAndThreadgate(t *testing.T) {
	writes := deletePostAndThreadgate("rkey1")
	if len(writes) != 2 {
		t.Fatalf("len(writes) = %d, want 2", len(writes))
	}
	if writes[0].RepoApplyWrites_Delete.Collection != collectionPost {
		t.Errorf("writes[0] collection = %q, want %q", writes[0].RepoApplyWrites_Delete.Collection, collectionPost)
	}
	if writes[1].RepoApplyWrites_Delete.Collection != collectionThreadgate {
		t.Errorf("writes[1] collection = %q, want %q", writes[1].RepoApplyWrites_Delete.Collection, collectionThreadgate)
	}
}

func TestBuildServiceRecordListsEveryEvent(t *testing.T) {
	events := []event.Event{
		{ID: "a", Name: "Anthrocon", LabelID: "anthrocon", StartDate: time.Date(2026, 6, 26, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 6, 29, 0, 0, 0, 0, time.UTC)},
		{ID: "b", Name: "Further Confusion", LabelID: "further-confusion", StartDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC)},
	}
	svc := buildServiceRecord(events, time.Unix(0, 0))

	if len(svc.Policies.LabelValues) != 2 {
		t.Fatalf("len(LabelValues) = %d, want 2", len(svc.Policies.LabelValues))
	}
	if len(svc.Policies.LabelValueDefinitions) != 2 {
		t.Fatalf("len(LabelValueDefinitions) = %d, want 2", len(svc.Policies.LabelValueDefinitions))
	}
	for i, def := range svc.Policies.LabelValueDefinitions {
		if def.Identifier != events[i].LabelID {
			t.Errorf("def[%d].Identifier = %q, want %q", i, def.Identifier, events[i].LabelID)
		}
		if !strings.Contains(def.Locales[0].Description, "2026-") {
			t.Errorf("def[%d].Locales[0].Description = %q, want it to mention the date range", i, def.Locales[0].Description)
		}
	}
}

func TestTrimTrailingSlash(t *testing.T) {
	cases := map[string]string{
		"https://x.example/":  "https://x.example",
		"https://x.example":   "https://x.example",
		"https://x.example//": "https://x.example",
	}
	for in, want := range cases {
		if got := trimTrailingSlash(in); got != want {
			t.Errorf("trimTrailingSlash(%q) = %q, want %q", in, got, want)
		}
	}
}
