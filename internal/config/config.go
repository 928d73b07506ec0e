// Package config loads and validates the ingester's TOML configuration
// file, grounded on rubiojr-ergs's pkg/config/config.go (go-toml/v2
// Unmarshal, zero-value defaulting, required-field validation) rather
// than the teacher's JSON db.json loader, since this service's config
// is operator-authored rather than machine-written.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds everything cmd/ingester needs to start. It is read once
// at startup; changes require a restart.
type Config struct {
	// BskyUsername and BskyPassword are the labeler account's app
	// password credentials, used to create an authenticated session
	// against BskyEndpoint.
	BskyUsername string `toml:"bsky_username"`
	BskyPassword string `toml:"bsky_password"`

	// BskyEndpoint is the PDS or entryway the labeler account lives on.
	BskyEndpoint string `toml:"bsky_endpoint"`

	// UIEndpoint is the base URL used to build the "/cons/{id}" links
	// embedded in event posts, and parsed back out of them when
	// recovering state from existing records.
	UIEndpoint string `toml:"ui_endpoint"`

	// JetstreamEndpoint is the firehose consumer's websocket URL.
	JetstreamEndpoint string `toml:"jetstream_endpoint"`

	// EventsURL is the convention listing the Reconciler fetches.
	EventsURL string `toml:"events_url"`

	// PostgresURL is a standard postgres:// connection string.
	PostgresURL string `toml:"postgres_url"`

	// KeypairPath is the file holding the labeler's raw secp256k1
	// signing key, as written by cmd/genkey.
	KeypairPath string `toml:"keypair_path"`

	// IngesterBind is the Subscription Server's HTTP listen address.
	IngesterBind string `toml:"ingester_bind"`

	// AdminToken authenticates the /admin/labels query endpoint. Empty
	// disables the route.
	AdminToken string `toml:"admin_token"`

	// LabelSyncDelay is the interval between Reconciler runs.
	LabelSyncDelay Duration `toml:"label_sync_delay_secs"`

	// CommitFirehoseCursorEvery throttles how often the firehose cursor
	// is persisted to the database.
	CommitFirehoseCursorEvery Duration `toml:"commit_firehose_cursor_every_secs"`
}

// Duration wraps time.Duration so it can be expressed as plain seconds
// in TOML (e.g. `label_sync_delay_secs = 300`) instead of a duration
// string.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalTOML(v any) error {
	switch n := v.(type) {
	case int64:
		d.Duration = time.Duration(n) * time.Second
		return nil
	case float64:
		d.Duration = time.Duration(n * float64(time.Second))
		return nil
	default:
		return fmt.Errorf("config: expected a number of seconds, got %T", v)
	}
}

const (
	defaultLabelSyncDelay            = 5 * time.Minute
	defaultCommitFirehoseCursorEvery = 5 * time.Second
	defaultIngesterBind              = ":8080"
)

// Load reads and parses the TOML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.IngesterBind == "" {
		cfg.IngesterBind = defaultIngesterBind
	}
	if cfg.LabelSyncDelay.Duration == 0 {
		cfg.LabelSyncDelay = Duration{defaultLabelSyncDelay}
	}
	if cfg.CommitFirehoseCursorEvery.Duration == 0 {
		cfg.CommitFirehoseCursorEvery = Duration{defaultCommitFirehoseCursorEvery}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.BskyUsername == "":
		return fmt.Errorf("config: bsky_username is required")
	case c.BskyPassword == "":
		return fmt.Errorf("config: bsky_password is required")
	case c.BskyEndpoint == "":
		return fmt.Errorf("config: bsky_endpoint is required")
	case c.UIEndpoint == "":
		return fmt.Errorf("config: ui_endpoint is required")
	case c.JetstreamEndpoint == "":
		return fmt.Errorf("config: jetstream_endpoint is required")
	case c.EventsURL == "":
		return fmt.Errorf("config: events_url is required")
	case c.PostgresURL == "":
		return fmt.Errorf("config: postgres_url is required")
	case c.KeypairPath == "":
		return fmt.Errorf("config: keypair_path is required")
	}
	return nil
}
