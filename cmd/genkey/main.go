// genkey generates a new labeler signing keypair and writes the raw
// secret scalar to the given path, then prints the resulting did:key so
// the operator can register it as the labeler account's
// atproto_label verification method.
//
// Usage:
//
//	./genkey -out labeler.key
package main

import (
	"flag"
	"log"
	"os"

	"github.com/consfyi/bsky-event-ingester/internal/signing"
)

func main() {
	out := flag.String("out", "labeler.key", "path to write the raw key file")
	flag.Parse()

	kp, err := signing.Generate()
	if err != nil {
		log.Fatalf("genkey: generate: %v", err)
	}

	raw, err := kp.Bytes()
	if err != nil {
		log.Fatalf("genkey: marshal: %v", err)
	}
	if err := os.WriteFile(*out, raw, 0600); err != nil {
		log.Fatalf("genkey: write %s: %v", *out, err)
	}

	did, err := kp.DID()
	if err != nil {
		log.Fatalf("genkey: derive did: %v", err)
	}
	log.Printf("genkey: wrote %s, did %s", *out, did)
}
