package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unclebandit/zapcampanhas/internal/model"
)

type ConfigurationRepositoryInterface interface {
	// Get returns nil, nil when the singleton has not been created yet.
	Get(ctx context.Context) (*model.Configuration, error)
	Save(ctx context.Context, cfg *model.Configuration) error
}

type ConfigurationRepository struct {
	DB *sql.DB
}

func (r *ConfigurationRepository) Get(ctx context.Context) (*model.Configuration, error) {
	query := `
        SELECT id, batch_size, send_delay_ms, company_name, signature, signature_enabled,
            auto_reply_enabled, webhook_secret, updated_at
        FROM configuration WHERE id=$1
    `
	var c model.Configuration
	err := r.DB.QueryRowContext(ctx, query, model.ConfigurationID).Scan(
		&c.ID, &c.BatchSize, &c.SendDelayMs, &c.CompanyName, &c.Signature, &c.SignatureEnabled,
		&c.AutoReplyEnabled, &c.WebhookSecret, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, wrapErr(err, "get configuration")
	}
	return &c, nil
}

func (r *ConfigurationRepository) Save(ctx context.Context, c *model.Configuration) error {
	c.ID = model.ConfigurationID
	c.UpdatedAt = time.Now()
	query := `
        INSERT INTO configuration (id, batch_size, send_delay_ms, company_name, signature, signature_enabled,
            auto_reply_enabled, webhook_secret, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO UPDATE SET
            batch_size = EXCLUDED.batch_size,
            send_delay_ms = EXCLUDED.send_delay_ms,
            company_name = EXCLUDED.company_name,
            signature = EXCLUDED.signature,
            signature_enabled = EXCLUDED.signature_enabled,
            auto_reply_enabled = EXCLUDED.auto_reply_enabled,
            webhook_secret = EXCLUDED.webhook_secret,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.DB.ExecContext(ctx, query, c.ID, c.BatchSize, c.SendDelayMs, c.CompanyName, c.Signature,
		c.SignatureEnabled, c.AutoReplyEnabled, c.WebhookSecret, c.UpdatedAt)
	return wrapErr(err, "save configuration")
}

var _ ConfigurationRepositoryInterface = (*ConfigurationRepository)(nil)
