package storage

import (
	"context"
	"testing"
	"time"

	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
)

func TestSettingsEmptyByDefault(t *testing.T) {
	store := newTestStore(t)

	settings, err := store.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}

	if settings != (model.Settings{}) {
		t.Fatalf("expected empty settings, got %+v", settings)
	}
}

func TestSeedDoesNotOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := store.PutSettings(ctx, model.Settings{TargetURL: "https://device.example.com/api/sms"}, now); err != nil {
		t.Fatalf("put settings: %v", err)
	}

	seed := model.Settings{TargetURL: "https://seed.example.com/api/sms", APIKey: "seed-key"}
	if err := store.SeedSettings(ctx, seed, now); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	settings, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}

	if settings.TargetURL != "https://device.example.com/api/sms" {
		t.Fatalf("seed overwrote the stored target url: %q", settings.TargetURL)
	}

	if settings.APIKey != "seed-key" {
		t.Fatalf("seed must fill the missing api key, got %q", settings.APIKey)
	}
}

func TestPutSettingsOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_ = store.PutSettings(ctx, model.Settings{TargetURL: "https://a.example.com", APIKey: "a"}, now)
	_ = store.PutSettings(ctx, model.Settings{TargetURL: "https://b.example.com", APIKey: ""}, now)

	settings, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}

	if settings.TargetURL != "https://b.example.com" || settings.APIKey != "" {
		t.Fatalf("unexpected settings %+v", settings)
	}
}
