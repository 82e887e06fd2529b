package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
app:
  service_name: sms-collector
  version: 1.2.3
database:
  host: localhost
  user: sms
  password: secret
  name: sms
http_server:
  port: 9090
  timeout:
    request: 5s
ingest:
  api_key: from-file
  encryption_key: 000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f
auth:
  allowed_emails: "owner@example.com"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.App.Version != "1.2.3" {
		t.Fatalf("unexpected version %q", cfg.App.Version)
	}

	if cfg.HTTPServer.Port != 9090 {
		t.Fatalf("unexpected port %d", cfg.HTTPServer.Port)
	}

	if cfg.HTTPServer.Timeout.Request != 5*time.Second {
		t.Fatalf("unexpected request timeout %v", cfg.HTTPServer.Timeout.Request)
	}

	if cfg.Dashboard.PageSize != 100 {
		t.Fatalf("expected default page size 100, got %d", cfg.Dashboard.PageSize)
	}

	if cfg.Ingest.Dedup.Window != 10*time.Minute {
		t.Fatalf("expected default dedup window, got %v", cfg.Ingest.Dedup.Window)
	}
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv("INGEST_API_KEY", "from-env")
	t.Setenv("ALLOWED_EMAILS", "a@example.com,b@example.com")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Ingest.APIKey != "from-env" {
		t.Fatalf("expected env override, got %q", cfg.Ingest.APIKey)
	}

	if cfg.Auth.AllowedEmails != "a@example.com,b@example.com" {
		t.Fatalf("expected env override, got %q", cfg.Auth.AllowedEmails)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	body := strings.Replace(sampleConfig, "  encryption_key: 000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f\n", "", 1)

	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error without encryption key")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMask(t *testing.T) {
	if mask("") != "" {
		t.Fatalf("empty values stay empty")
	}

	if mask("secret") != masked {
		t.Fatalf("secrets must be masked")
	}
}
