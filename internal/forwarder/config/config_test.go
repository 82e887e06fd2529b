package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testBridge = "bridge:\n  token: local-bridge-token-0123\n"

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "forwarder.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, testBridge+"device:\n  target_url: https://collector.example.com/api/sms\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Bridge.Host != "127.0.0.1" {
		t.Fatalf("bridge must bind loopback by default, got %q", cfg.Bridge.Host)
	}

	if cfg.Scheduler.MinBackoff != 10*time.Second || cfg.Scheduler.MaxBackoff != 5*time.Hour {
		t.Fatalf("unexpected backoff bounds %v..%v", cfg.Scheduler.MinBackoff, cfg.Scheduler.MaxBackoff)
	}

	if cfg.Scheduler.RetryWindow != 24*time.Hour {
		t.Fatalf("unexpected retry window %v", cfg.Scheduler.RetryWindow)
	}

	if cfg.Scheduler.Retention != 7*24*time.Hour {
		t.Fatalf("unexpected retention %v", cfg.Scheduler.Retention)
	}

	if cfg.Device.TargetURL != "https://collector.example.com/api/sms" {
		t.Fatalf("unexpected target url %q", cfg.Device.TargetURL)
	}
}

func TestLoadRejectsInvertedBackoff(t *testing.T) {
	body := testBridge + "scheduler:\n  min_backoff: 1m\n  max_backoff: 10s\n"

	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for max_backoff below min_backoff")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRequiresBridgeToken(t *testing.T) {
	for _, body := range []string{"", "bridge:\n  token: short\n"} {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("expected error for bridge config %q", body)
		}
	}
}
