package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ingester.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const minimalConfig = `
bsky_username = "labeler.bsky.social"
bsky_password = "app-password"
bsky_endpoint = "https://bsky.social"
ui_endpoint = "https://furrycons.example"
jetstream_endpoint = "wss://jetstream.example/subscribe"
events_url = "https://furrycons.example/events.json"
postgres_url = "postgres://localhost/ingester"
keypair_path = "labeler.key"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IngesterBind != defaultIngesterBind {
		t.Errorf("IngesterBind = %q, want %q", cfg.IngesterBind, defaultIngesterBind)
	}
	if cfg.LabelSyncDelay.Duration != defaultLabelSyncDelay {
		t.Errorf("LabelSyncDelay = %v, want %v", cfg.LabelSyncDelay.Duration, defaultLabelSyncDelay)
	}
}

func TestLoadHonorsExplicitDurations(t *testing.T) {
	body := minimalConfig + "\nlabel_sync_delay_secs = 60\ncommit_firehose_cursor_every_secs = 5\n"
	cfg, err := Load(writeTempConfig(t, body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LabelSyncDelay.Duration != 60*time.Second {
		t.Errorf("LabelSyncDelay = %v, want 60s", cfg.LabelSyncDelay.Duration)
	}
	if cfg.CommitFirehoseCursorEvery.Duration != 5*time.Second {
		t.Errorf("CommitFirehoseCursorEvery = %v, want 5s", cfg.CommitFirehoseCursorEvery.Duration)
	}
}

func TestLoadRejectsMissingRequiredField(t *testing.T) {
	body := `bsky_username = "x"`
	if _, err := Load(writeTempConfig(t, body)); err == nil {
		t.Error("expected an error when required fields are missing")
	}
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected an error for a nonexistent config file")
	}
}
