package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/zapcampanhas/internal/model"
)

type OutboundMessageRepositoryInterface interface {
	Create(ctx context.Context, msg *model.OutboundMessage) error
}

type OutboundMessageRepository struct {
	DB *sql.DB
}

// Create inserts a new outbound message and assigns its ID
func (r *OutboundMessageRepository) Create(ctx context.Context, msg *model.OutboundMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now()

	query := `
        INSERT INTO outbound_messages
        (id, campaign_id, phone, body, type, status, gateway_id, last_error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := r.DB.ExecContext(ctx,
		query,
		msg.ID,
		msg.CampaignID,
		msg.Phone,
		msg.Body,
		string(msg.Type),
		msg.Status,
		msg.GatewayID,
		msg.LastError,
		msg.CreatedAt,
	)
	return wrapErr(err, "insert outbound message")
}

var _ OutboundMessageRepositoryInterface = (*OutboundMessageRepository)(nil)
