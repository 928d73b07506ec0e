package firehose

import "testing"

func testConsumer() *Consumer {
	return &Consumer{
		LabelerDID:     "did:plc:labeler",
		PostCollection: "app.bsky.feed.post",
		LikeCollection: "app.bsky.feed.like",
	}
}

func TestParseSubjectRKeyMatchesOwnPost(t *testing.T) {
	cons := testConsumer()
	rkey, ok := cons.parseSubjectRKey("at://did:plc:labeler/app.bsky.feed.post/abc123")
	if !ok {
		t.Fatal("expected a match for the labeler's own post collection")
	}
	if rkey != "abc123" {
		t.Errorf("rkey = %q, want abc123", rkey)
	}
}

func TestParseSubjectRKeyRejectsOtherDID(t *testing.T) {
	cons := testConsumer()
	if _, ok := cons.parseSubjectRKey("at://did:plc:someoneelse/app.bsky.feed.post/abc123"); ok {
		t.Error("expected no match for a like on someone else's post")
	}
}

func TestParseSubjectRKeyRejectsOtherCollection(t *testing.T) {
	cons := testConsumer()
	if _, ok := cons.parseSubjectRKey("at://did:plc:labeler/app.bsky.feed.like/abc123"); ok {
		t.Error("expected no match when the subject is not in the post collection")
	}
}

func TestParseSubjectRKeyRejectsEmptyOrNestedRKey(t *testing.T) {
	cons := testConsumer()
	if _, ok := cons.parseSubjectRKey("at://did:plc:labeler/app.bsky.feed.post/"); ok {
		t.Error("expected no match for an empty rkey")
	}
	if _, ok := cons.parseSubjectRKey("at://did:plc:labeler/app.bsky.feed.post/abc/def"); ok {
		t.Error("expected no match for a nested/malformed rkey")
	}
}
