// registerlabeler prints the PLC operation that would register this
// account's signing key as its atproto_label verification method. It
// makes no network calls to any PLC directory: submitting the
// operation to a specific provider is out of scope for this service,
// which assumes the labeler account's DID is already correctly
// configured by the operator.
//
// Usage:
//
//	./registerlabeler -config ingester.toml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/consfyi/bsky-event-ingester/internal/config"
	"github.com/consfyi/bsky-event-ingester/internal/signing"
)

// plcOperation mirrors the subset of a did:plc operation this service
// cares about: adding its own signing key as the atproto_label
// verification method alongside whatever else the account's document
// already declares.
type plcOperation struct {
	Type                string                `json:"type"`
	VerificationMethods map[string]string     `json:"verificationMethods"`
	Services            map[string]plcService `json:"services"`
}

type plcService struct {
	Type     string `json:"type"`
	Endpoint string `json:"endpoint"`
}

func main() {
	configPath := flag.String("config", "ingester.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("registerlabeler: load config: %v", err)
	}

	kp, err := signing.Load(cfg.KeypairPath)
	if err != nil {
		log.Fatalf("registerlabeler: load keypair: %v", err)
	}
	did, err := kp.DID()
	if err != nil {
		log.Fatalf("registerlabeler: derive did: %v", err)
	}

	op := plcOperation{
		Type: "plc_operation",
		VerificationMethods: map[string]string{
			"atproto_label": did,
		},
		Services: map[string]plcService{
			"atproto_labeler": {
				Type:     "AtprotoLabeler",
				Endpoint: cfg.BskyEndpoint,
			},
		},
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(op); err != nil {
		log.Fatalf("registerlabeler: encode: %v", err)
	}
	fmt.Fprintln(os.Stderr, "registerlabeler: this operation was not submitted to any PLC directory; submit it yourself")
}
