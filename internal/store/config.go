package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/fieldsync/internal/model"
)

// SaveQRConfig replaces the singleton provisioning row.
func (s *Store) SaveQRConfig(ctx context.Context, cfg model.AppConfig) error {
	if err := model.Validate("app config", cfg); err != nil {
		return fmt.Errorf("save qr config: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_config (id, base_url, sync_url, company_id, signing_key, device_name, payload, updated_at)
		VALUES ('config', ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			base_url = excluded.base_url,
			sync_url = excluded.sync_url,
			company_id = excluded.company_id,
			signing_key = excluded.signing_key,
			device_name = excluded.device_name,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, cfg.BaseURL, cfg.SyncURL, cfg.CompanyID, cfg.SigningKey, cfg.DeviceName, cfg.Payload, s.now())
	if err != nil {
		return fmt.Errorf("save qr config: %w", err)
	}
	return nil
}

// GetQRConfig returns the provisioning row or ErrNotFound if the device was
// never provisioned.
func (s *Store) GetQRConfig(ctx context.Context) (model.AppConfig, error) {
	var cfg model.AppConfig
	err := s.db.QueryRowContext(ctx, `
		SELECT base_url, sync_url, company_id, signing_key, device_name, payload, updated_at
		FROM app_config WHERE id = 'config'
	`).Scan(&cfg.BaseURL, &cfg.SyncURL, &cfg.CompanyID, &cfg.SigningKey, &cfg.DeviceName, &cfg.Payload, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AppConfig{}, fmt.Errorf("get qr config: %w", ErrNotFound)
	}
	if err != nil {
		return model.AppConfig{}, fmt.Errorf("get qr config: %w", err)
	}
	return cfg, nil
}
