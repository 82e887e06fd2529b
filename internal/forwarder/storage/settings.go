package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/evijayan2/smsmonitor/internal/forwarder/model"
)

// GetSettings reads the device configuration. Unset keys come back empty.
func (s *Store) GetSettings(ctx context.Context) (model.Settings, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE key IN (?, ?)`,
		model.SettingTarget,
		model.SettingAPIKey,
	)
	if err != nil {
		return model.Settings{}, fmt.Errorf("select settings: %w", err)
	}
	defer rows.Close()

	var settings model.Settings
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.Settings{}, fmt.Errorf("scan setting: %w", err)
		}

		switch key {
		case model.SettingTarget:
			settings.TargetURL = value
		case model.SettingAPIKey:
			settings.APIKey = value
		}
	}

	if err := rows.Err(); err != nil {
		return model.Settings{}, fmt.Errorf("iterate settings: %w", err)
	}

	return settings, nil
}

// PutSettings overwrites both keys.
func (s *Store) PutSettings(ctx context.Context, settings model.Settings, now time.Time) error {
	return s.writeSettings(ctx, settings, now,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		false,
	)
}

// SeedSettings writes only the keys the device does not have yet. Empty values are skipped.
func (s *Store) SeedSettings(ctx context.Context, settings model.Settings, now time.Time) error {
	return s.writeSettings(ctx, settings, now,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO NOTHING`,
		true,
	)
}

func (s *Store) writeSettings(ctx context.Context, settings model.Settings, now time.Time, query string, skipEmpty bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	values := []struct {
		key   string
		value string
	}{
		{key: model.SettingTarget, value: settings.TargetURL},
		{key: model.SettingAPIKey, value: settings.APIKey},
	}

	for _, v := range values {
		if skipEmpty && v.value == "" {
			continue
		}

		if _, err := tx.ExecContext(ctx, query, v.key, v.value, now.UnixMilli()); err != nil {
			return fmt.Errorf("write setting %q: %w", v.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings transaction: %w", err)
	}

	return nil
}
