// Package signing loads the labeler's secp256k1 keypair and exposes the
// raw low-S signature primitive the canonical encoder builds on.
//
// Adapted from the teacher's internal/repo/signing.go, which loads keys
// from a multibase-encoded string suitable for a hosted repo's account
// table. This service instead loads a single process-wide key from a
// raw 32-byte scalar file, per SPEC_FULL.md §6 ("Key file").
package signing

import (
	"fmt"
	"os"

	"github.com/bluesky-social/indigo/atproto/atcrypto"
)

// Keypair wraps the process-wide signing key. It is loaded once at
// startup and never reassigned; see SPEC_FULL.md §9 ("Global mutable
// state").
type Keypair struct {
	priv atcrypto.PrivateKeyExportable
}

// Load reads a raw 32-byte secp256k1 private scalar from path.
func Load(path string) (*Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("signing: read key file %s: %w", path, err)
	}
	priv, err := atcrypto.ParsePrivateBytesK256(raw)
	if err != nil {
		return nil, fmt.Errorf("signing: parse key file %s: %w", path, err)
	}
	return &Keypair{priv: priv}, nil
}

// Generate creates a new keypair, without writing it anywhere. Used by
// cmd/genkey.
func Generate() (*Keypair, error) {
	priv, err := atcrypto.GeneratePrivateKeyK256()
	if err != nil {
		return nil, fmt.Errorf("signing: generate key: %w", err)
	}
	return &Keypair{priv: priv}, nil
}

// Bytes returns the raw 32-byte private scalar, suitable for writing to
// the key file cmd/genkey produces.
func (k *Keypair) Bytes() ([]byte, error) {
	return k.priv.Bytes()
}

// DID returns the did:key identifier for the public half of the
// keypair. This is the value that ends up in the PLC operation's
// atproto_label verification method.
func (k *Keypair) DID() (string, error) {
	return k.priv.Public().DID()
}

// Sign computes the raw 64-byte (r||s), low-S ECDSA signature over msg.
// msg must already be the canonical encoding the caller wants signed
// (see internal/canon); this function performs no encoding of its own.
func (k *Keypair) Sign(msg []byte) ([]byte, error) {
	sig, err := k.priv.HashAndSign(msg)
	if err != nil {
		return nil, fmt.Errorf("signing: sign: %w", err)
	}
	return sig, nil
}
