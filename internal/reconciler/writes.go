package reconciler

import (
	"fmt"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"

	"github.com/consfyi/bsky-event-ingester/internal/event"
)

const postLang = "en"

func writeElem(collection string, rkey *string, value any) *comatproto.RepoApplyWrites_Input_Writes_Elem {
	return &comatproto.RepoApplyWrites_Input_Writes_Elem{
		RepoApplyWrites_Create: &comatproto.RepoApplyWrites_Create{
			Collection: collection,
			Rkey:       rkey,
			Value:      &lexutil.LexiconTypeDecoder{Val: value},
		},
	}
}

func deleteElem(collection, rkey string) *comatproto.RepoApplyWrites_Input_Writes_Elem {
	return &comatproto.RepoApplyWrites_Input_Writes_Elem{
		RepoApplyWrites_Delete: &comatproto.RepoApplyWrites_Delete{
			Collection: collection,
			Rkey:       rkey,
		},
	}
}

// buildPostAndThreadgate constructs the create writes for one new
// event's post (single link facet spanning the full post text,
// pointing at the UI URL for that event) and its paired threadgate
// (forbidding replies), per SPEC_FULL.md §4.4 step 7.
func buildPostAndThreadgate(repoDID, uiEndpoint string, ev event.Event, rkey string, createdAt time.Time) []*comatproto.RepoApplyWrites_Input_Writes_Elem {
	cts := createdAt.UTC().Format(time.RFC3339)
	consURL := fmt.Sprintf("%s/cons/%s", trimTrailingSlash(uiEndpoint), ev.ID)

	post := &bsky.FeedPost{
		CreatedAt: cts,
		Text:      ev.Name,
		Langs:     []string{postLang},
		Facets: []*bsky.RichtextFacet{
			{
				Index: &bsky.RichtextFacet_ByteSlice{
					ByteStart: 0,
					ByteEnd:   int64(len(ev.Name)),
				},
				Features: []*bsky.RichtextFacet_Features_Elem{
					{RichtextFacet_Link: &bsky.RichtextFacet_Link{Uri: consURL}},
				},
			},
		},
	}

	threadgate := &bsky.FeedThreadgate{
		CreatedAt: cts,
		Post:      fmt.Sprintf("at://%s/%s/%s", repoDID, collectionPost, rkey),
		Allow:     []*bsky.FeedThreadgate_Allow_Elem{},
	}

	return []*comatproto.RepoApplyWrites_Input_Writes_Elem{
		writeElem(collectionPost, &rkey, post),
		writeElem(collectionThreadgate, &rkey, threadgate),
	}
}

func deletePostAndThreadgate(rkey string) []*comatproto.RepoApplyWrites_Input_Writes_Elem {
	return []*comatproto.RepoApplyWrites_Input_Writes_Elem{
		deleteElem(collectionPost, rkey),
		deleteElem(collectionThreadgate, rkey),
	}
}

// buildServiceRecord constructs the labeler service record declaring
// every surviving event's label value, per SPEC_FULL.md §4.4 step 8.
func buildServiceRecord(events []event.Event, createdAt time.Time) *bsky.LabelerService {
	values := make([]string, 0, len(events))
	defs := make([]*comatproto.LabelDefs_LabelValueDefinition, 0, len(events))

	adultOnly := false
	defaultSetting := "warn"

	for _, ev := range events {
		values = append(values, ev.LabelID)
		defs = append(defs, &comatproto.LabelDefs_LabelValueDefinition{
			AdultOnly:      &adultOnly,
			Blurs:          "none",
			DefaultSetting: &defaultSetting,
			Identifier:     ev.LabelID,
			Severity:       "inform",
			Locales: []*comatproto.LabelDefs_LabelValueDefinitionStrings{
				{
					Lang:        postLang,
					Name:        ev.Name,
					Description: formatDefinitionDescription(ev),
				},
			},
		})
	}

	return &bsky.LabelerService{
		CreatedAt: createdAt.UTC().Format(time.RFC3339),
		Policies: &bsky.LabelerDefs_LabelerPolicies{
			LabelValues:           values,
			LabelValueDefinitions: defs,
		},
	}
}

func formatDefinitionDescription(ev event.Event) string {
	loc := ev.Venue
	if ev.Address != "" {
		loc = fmt.Sprintf("%s, %s", ev.Venue, ev.Address)
	}
	return fmt.Sprintf("%s – %s\n%s",
		ev.StartDate.Format("2006-01-02"), ev.EndDate.Format("2006-01-02"), loc)
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
