// Package label constructs atproto label records (comatproto.LabelDefs_Label)
// for the two shapes the Firehose Consumer ever produces: a positive
// label for a like, and a negation for a like's deletion.
package label

import (
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
)

// CurrentVersion is the label schema version this service writes.
const CurrentVersion = int64(1)

// FromMicros converts a microsecond-since-epoch timestamp (as carried on
// firehose commit events) to a time.Time.
func FromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

// ToMicros converts t to a microsecond-since-epoch timestamp.
func ToMicros(t time.Time) int64 {
	return t.UnixMicro()
}

func formatCts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func ptr[T any](v T) *T { return &v }

// New builds an unsigned positive label: val on uri, issued by src at
// cts, expiring at exp. The returned label has no Sig set — callers
// must pass it through internal/canon.Sign before persisting it.
func New(src, val, uri string, cts time.Time, exp time.Time) *comatproto.LabelDefs_Label {
	expStr := formatCts(exp)
	return &comatproto.LabelDefs_Label{
		Src: src,
		Val: val,
		Uri: uri,
		Cts: formatCts(cts),
		Exp: &expStr,
		Ver: ptr(CurrentVersion),
	}
}

// NewNegation builds an unsigned negation of val on uri, issued by src
// at cts. Negations carry no Exp, matching SPEC_FULL.md §3 ("absent for
// negations").
func NewNegation(src, val, uri string, cts time.Time) *comatproto.LabelDefs_Label {
	neg := true
	return &comatproto.LabelDefs_Label{
		Src: src,
		Val: val,
		Uri: uri,
		Cts: formatCts(cts),
		Neg: &neg,
		Ver: ptr(CurrentVersion),
	}
}
