// Package canon implements the Canonical Encoder & Signer: deterministic
// binary encoding of label records and the ECDSA-over-secp256k1
// signature computed over that encoding.
//
// Labels reuse indigo's generated comatproto.LabelDefs_Label type (see
// DESIGN.md) rather than a hand-rolled struct: its cbor-gen MarshalCBOR
// already produces the sorted-key, definite-length, shortest-int dag-cbor
// encoding the atproto label signing convention requires, so "canonical
// encoding" here is simply that type's own (un)marshaling, bracketing a
// check-sig-unset / sign / set-sig step.
package canon

import (
	"bytes"
	"fmt"

	comatproto "github.com/bluesky-social/indigo/api/atproto"

	"github.com/consfyi/bsky-event-ingester/internal/relayerr"
	"github.com/consfyi/bsky-event-ingester/internal/signing"
)

// Encode returns the canonical binary encoding of lbl, including Sig if
// it is set. It does not check Sig; the unsigned precondition is
// enforced by Sign, which relies on this to encode the signed label.
func Encode(lbl *comatproto.LabelDefs_Label) ([]byte, error) {
	var buf bytes.Buffer
	if err := lbl.MarshalCBOR(&buf); err != nil {
		return nil, fmt.Errorf("canon: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses the canonical binary encoding back into a label.
func Decode(payload []byte) (*comatproto.LabelDefs_Label, error) {
	lbl := &comatproto.LabelDefs_Label{}
	if err := lbl.UnmarshalCBOR(bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("canon: decode: %w", err)
	}
	return lbl, nil
}

// Sign signs lbl in place: lbl.Sig must be unset (otherwise
// ErrAlreadySigned is returned); it encodes the sig-less label, signs
// that encoding, sets Sig, and returns the
// canonical encoding of the now-signed label — the bytes that get
// stored as a label-log row's payload.
func Sign(kp *signing.Keypair, lbl *comatproto.LabelDefs_Label) ([]byte, error) {
	if len(lbl.Sig) != 0 {
		return nil, relayerr.ErrAlreadySigned
	}

	unsigned, err := Encode(lbl)
	if err != nil {
		return nil, err
	}

	sig, err := kp.Sign(unsigned)
	if err != nil {
		return nil, fmt.Errorf("canon: sign: %w", err)
	}
	lbl.Sig = sig

	signed, err := Encode(lbl)
	if err != nil {
		return nil, err
	}
	return signed, nil
}
