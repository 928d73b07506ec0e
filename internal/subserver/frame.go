package subserver

import (
	"bytes"
	"fmt"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/fxamacker/cbor/v2"

	"github.com/consfyi/bsky-event-ingester/internal/canon"
)

// canonicalEncMode is a deterministic-CBOR encoder (sorted map keys,
// definite lengths, shortest-form integers) for the Subscription
// Server's header/body frame maps. Reused rather than constructed per
// frame since cbor.EncMode is safe for concurrent use and immutable
// once built.
//
// bsky-watch-labeler's reference clients hardcode the header/error
// bytes directly (e.g. `\xa2atg#labelsbop\x01`) since their header
// shape never varies; this service instead encodes header and error
// maps at runtime through this mode, which is more legible and still
// produces byte-identical canonical CBOR for the fixed shapes used
// here.
var canonicalEncMode = mustCanonicalEncMode()

func mustCanonicalEncMode() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("subserver: build canonical cbor encoder: %v", err))
	}
	return mode
}

// labelsHeader is the fixed header preceding every labels frame.
type labelsHeader struct {
	Op int64  `cbor:"op"`
	T  string `cbor:"t"`
}

// errorHeader and errorBody implement the op:-1 error frame.
type errorHeader struct {
	Op int64 `cbor:"op"`
}

type errorBody struct {
	Error string `cbor:"error"`
}

// encodeLabelsFrame builds one subscribeLabels frame for a single
// label-log row: a hand-encoded {"op":1,"t":"#labels"} header (no
// generated indigo type covers the header, only the body), followed
// by the body encoded through indigo's own generated
// LabelSubscribeLabels_Labels.MarshalCBOR — reusing its cbor-gen output
// keeps the body's wire shape authoritative rather than re-derived.
// payload is the already-signed canonical encoding stored in the
// labels table; it is decoded back into a Label so it nests correctly
// as a lexicon object rather than an opaque byte string.
func encodeLabelsFrame(seq int64, payload []byte) ([]byte, error) {
	header, err := canonicalEncMode.Marshal(labelsHeader{Op: 1, T: "#labels"})
	if err != nil {
		return nil, err
	}

	lbl, err := canon.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("subserver: decode label payload: %w", err)
	}

	msg := &comatproto.LabelSubscribeLabels_Labels{
		Seq:    seq,
		Labels: []*comatproto.LabelDefs_Label{lbl},
	}
	var body bytes.Buffer
	if err := msg.MarshalCBOR(&body); err != nil {
		return nil, fmt.Errorf("subserver: encode label body: %w", err)
	}

	return append(header, body.Bytes()...), nil
}

func encodeErrorFrame(name string) ([]byte, error) {
	header, err := canonicalEncMode.Marshal(errorHeader{Op: -1})
	if err != nil {
		return nil, err
	}
	body, err := canonicalEncMode.Marshal(errorBody{Error: name})
	if err != nil {
		return nil, err
	}
	return append(header, body...), nil
}

// ErrFutureCursorName is the error name sent in the FutureCursor error
// frame, per SPEC_FULL.md §4.5.
const ErrFutureCursorName = "FutureCursor"
