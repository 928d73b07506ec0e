package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/xrpc"
)

const (
	collectionPost       = "app.bsky.feed.post"
	collectionThreadgate = "app.bsky.feed.threadgate"
	collectionService    = "app.bsky.labeler.service"
	selfRKey             = "self"
)

// oldState is the recovered association between surviving posts and
// the events they represent, keyed by the post's own rkey.
//
// The original Rust implementation stashed (post_rkey, event_id) pairs
// as ad hoc extension fields on each label-value definition, riding on
// atrium's Ipld-backed "extra_data" escape hatch. Indigo's generated Go
// lexicon types have no such escape hatch — cbor-gen structs are fixed
// to the lexicon's declared fields — so this service recovers the same
// association structurally instead: every post this service ever wrote
// embeds the event id in its link facet's URI
// (ui_endpoint + "/cons/" + id), so listing existing posts and parsing
// that URI back out yields an equivalent rkey -> event id map without
// needing anywhere to stash a side channel.
type oldState struct {
	eventIDByRKey map[string]string
}

// probeExistingPosts lists every post this service has created
// (identified by having a paired threadgate with the same rkey, since
// every post this service writes gets one) and recovers the event id
// each one advertises.
func probeExistingPosts(ctx context.Context, c *xrpc.Client, repoDID, uiEndpoint string) (*oldState, error) {
	threadgateRKeys, err := listAllRKeys(ctx, c, repoDID, collectionThreadgate)
	if err != nil {
		return nil, fmt.Errorf("reconciler: list threadgates: %w", err)
	}

	st := &oldState{eventIDByRKey: make(map[string]string, len(threadgateRKeys))}

	for _, rkey := range threadgateRKeys {
		out, err := comatproto.RepoGetRecord(ctx, c, collectionPost, repoDID, rkey)
		if err != nil {
			// The threadgate survives but its post is gone: treat as
			// stale, will be recreated if its event is still current.
			continue
		}
		post, ok := out.Value.Val.(*bsky.FeedPost)
		if !ok {
			continue
		}
		id, ok := parseConsURL(uiEndpoint, post)
		if !ok {
			continue
		}
		st.eventIDByRKey[rkey] = id
	}

	return st, nil
}

func listAllRKeys(ctx context.Context, c *xrpc.Client, repoDID, collection string) ([]string, error) {
	var rkeys []string
	cursor := ""
	for {
		out, err := comatproto.RepoListRecords(ctx, c, collection, cursor, 100, repoDID, false)
		if err != nil {
			return nil, err
		}
		for _, rec := range out.Records {
			rkeys = append(rkeys, rkeyFromURI(rec.Uri))
		}
		if out.Cursor == nil || *out.Cursor == "" {
			break
		}
		cursor = *out.Cursor
	}
	return rkeys, nil
}

func rkeyFromURI(uri string) string {
	parts := strings.Split(uri, "/")
	return parts[len(parts)-1]
}

// parseConsURL extracts the event id from a post's link facet, which
// this service always writes as uiEndpoint + "/cons/" + id.
func parseConsURL(uiEndpoint string, post *bsky.FeedPost) (string, bool) {
	prefix := strings.TrimSuffix(uiEndpoint, "/") + "/cons/"
	for _, facet := range post.Facets {
		for _, feat := range facet.Features {
			if feat.RichtextFacet_Link == nil {
				continue
			}
			uri := feat.RichtextFacet_Link.Uri
			if strings.HasPrefix(uri, prefix) {
				return strings.TrimPrefix(uri, prefix), true
			}
		}
	}
	return "", false
}

// fetchServiceRecordExists reports whether the labeler's own service
// record currently exists, and returns its label-value definitions (if
// any) purely so the caller can tolerate a legacy base26-numeral
// identifier left over from before this service wrote slug-form label
// ids (see internal/legacyid and SPEC_FULL.md's Open Question (a)).
// Beyond that migration check, step 8's surviving label set comes from
// probeExistingPosts, not from these definitions.
func fetchServiceRecordExists(ctx context.Context, c *xrpc.Client, repoDID string) (bool, []*comatproto.LabelDefs_LabelValueDefinition, error) {
	out, err := comatproto.RepoGetRecord(ctx, c, collectionService, repoDID, selfRKey)
	if err != nil {
		if isRecordNotFound(err) {
			return false, nil, nil
		}
		return false, nil, err
	}
	svc, ok := out.Value.Val.(*bsky.LabelerService)
	if !ok || svc.Policies == nil {
		return true, nil, nil
	}
	return true, svc.Policies.LabelValueDefinitions, nil
}

func isRecordNotFound(err error) bool {
	var xerr *xrpc.Error
	if errors.As(err, &xerr) {
		return xerr.StatusCode == 400
	}
	return false
}
