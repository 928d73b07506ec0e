// writelabel reads a single JSON label from stdin and emits it through
// the same internal/store Emitter the Firehose Consumer uses, for
// manual/operator-issued labels outside the like-correlation pipeline.
//
// The JSON shape mirrors com.atproto.label.defs#label's fields: src,
// uri, val, neg (optional), exp (optional, RFC3339).
//
// Usage:
//
//	echo '{"uri":"at://did:plc:abc/app.bsky.feed.post/xyz","val":"spam"}' | \
//	    ./writelabel -config ingester.toml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"

	"github.com/consfyi/bsky-event-ingester/internal/config"
	"github.com/consfyi/bsky-event-ingester/internal/signing"
	"github.com/consfyi/bsky-event-ingester/internal/store"
)

type inputLabel struct {
	Src string  `json:"src"`
	URI string  `json:"uri"`
	Val string  `json:"val"`
	Neg bool    `json:"neg"`
	Exp *string `json:"exp"`
	Cts *string `json:"cts"`
}

func main() {
	configPath := flag.String("config", "ingester.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("writelabel: load config: %v", err)
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("writelabel: read stdin: %v", err)
	}

	var in inputLabel
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Fatalf("writelabel: parse input: %v", err)
	}
	if in.URI == "" || in.Val == "" {
		log.Fatalf("writelabel: uri and val are required")
	}

	kp, err := signing.Load(cfg.KeypairPath)
	if err != nil {
		log.Fatalf("writelabel: load keypair: %v", err)
	}

	src := in.Src
	if src == "" {
		did, err := kp.DID()
		if err != nil {
			log.Fatalf("writelabel: derive did: %v", err)
		}
		src = did
	}

	cts := time.Now().UTC().Format(time.RFC3339Nano)
	if in.Cts != nil {
		cts = *in.Cts
	}

	lbl := &comatproto.LabelDefs_Label{
		Src: src,
		Uri: in.URI,
		Val: in.Val,
		Exp: in.Exp,
		Cts: cts,
	}
	if in.Neg {
		lbl.Neg = &in.Neg
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("writelabel: open store: %v", err)
	}
	defer st.Close()

	tx, err := st.Pool.Begin(ctx)
	if err != nil {
		log.Fatalf("writelabel: begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	seq, err := store.Emit(ctx, tx, kp, lbl, nil)
	if err != nil {
		log.Fatalf("writelabel: emit: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("writelabel: commit: %v", err)
	}

	log.Printf("writelabel: emitted seq %d", seq)
}
