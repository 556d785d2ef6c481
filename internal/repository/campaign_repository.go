package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(ctx context.Context, c *model.Campaign) error
	Update(ctx context.Context, c *model.Campaign) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
	ListDue(ctx context.Context, before time.Time) ([]*model.Campaign, error)

	// Run state
	UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error
	TransitionStatus(ctx context.Context, id string, from []model.CampaignStatus, to model.CampaignStatus) (bool, error)
	ResetCounters(ctx context.Context, id string, total int) error
	IncrementCounters(ctx context.Context, id string, delta model.Counters) error

	// Aggregates
	SumCounters(ctx context.Context) (model.Counters, error)
	CountByStatus(ctx context.Context) (map[model.CampaignStatus]int, error)
}

// CampaignRepository is the PostgreSQL implementation.
type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, message, type, media_url, file_name, recipients, scheduled_at, status,
    stats_total, stats_sent, stats_delivered, stats_read, stats_responded, stats_failed,
    progress, started_at, completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	var typ, status string
	err := row.Scan(
		&c.ID, &c.Name, &c.Message, &typ, &c.MediaURL, &c.FileName, pq.Array(&c.Recipients), &c.ScheduledAt, &status,
		&c.Stats.Total, &c.Stats.Sent, &c.Stats.Delivered, &c.Stats.Read, &c.Stats.Responded, &c.Stats.Failed,
		&c.Progress, &c.StartedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Type = model.MessageType(typ)
	c.Status = model.CampaignStatus(status)
	if c.Recipients == nil {
		c.Recipients = []string{}
	}
	return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	now := time.Now()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	if c.Recipients == nil {
		c.Recipients = []string{}
	}
	query := `
        INSERT INTO campaigns (id, name, message, type, media_url, file_name, recipients, scheduled_at, status,
            stats_total, stats_sent, stats_delivered, stats_read, stats_responded, stats_failed,
            progress, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
    `
	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.Name, c.Message, string(c.Type), c.MediaURL, c.FileName, pq.Array(c.Recipients), c.ScheduledAt, string(c.Status),
		c.Stats.Total, c.Stats.Sent, c.Stats.Delivered, c.Stats.Read, c.Stats.Responded, c.Stats.Failed,
		c.Progress, c.CreatedAt, c.UpdatedAt,
	)
	return wrapErr(err, "insert campaign")
}

// Update writes the editable fields only. Status and counters have their own methods.
func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	c.UpdatedAt = time.Now()
	query := `
        UPDATE campaigns
        SET name=$1, message=$2, type=$3, media_url=$4, file_name=$5, recipients=$6, scheduled_at=$7, updated_at=$8
        WHERE id=$9
    `
	res, err := r.DB.ExecContext(ctx, query,
		c.Name, c.Message, string(c.Type), c.MediaURL, c.FileName, pq.Array(c.Recipients), c.ScheduledAt, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return wrapErr(err, "update campaign")
	}
	return requireAffected(res, "campaign", c.ID)
}

func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return wrapErr(err, "delete campaign")
	}
	return requireAffected(res, "campaign", id)
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, id)
	c, err := scanCampaign(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, wrapErr(err, "get campaign")
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapErr(err, "list campaigns")
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, wrapErr(err, "scan campaign")
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr(err, "list campaigns")
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, wrapErr(err, "count campaigns")
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) ListDue(ctx context.Context, before time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
        WHERE status=$1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
        ORDER BY scheduled_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, string(model.StatusScheduled), before)
	if err != nil {
		return nil, wrapErr(err, "list due campaigns")
	}
	defer rows.Close()

	due := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, wrapErr(err, "scan campaign")
		}
		due = append(due, c)
	}
	return due, wrapErr(rows.Err(), "list due campaigns")
}

// ====================== Run state ======================

func (r *CampaignRepository) UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2,
        completed_at = CASE WHEN $1 = 'completed' THEN $2 ELSE completed_at END
        WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, string(status), time.Now(), id)
	if err != nil {
		return wrapErr(err, "update campaign status")
	}
	return requireAffected(res, "campaign", id)
}

// TransitionStatus moves the campaign to `to` only if its current status is one of `from`.
func (r *CampaignRepository) TransitionStatus(ctx context.Context, id string, from []model.CampaignStatus, to model.CampaignStatus) (bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	now := time.Now()
	query := `UPDATE campaigns SET status=$1, updated_at=$2,
        started_at = CASE WHEN $1 = 'running' THEN COALESCE(started_at, $2) ELSE started_at END,
        completed_at = CASE WHEN $1 = 'completed' THEN $2 ELSE completed_at END
        WHERE id=$3 AND status = ANY($4)`
	res, err := r.DB.ExecContext(ctx, query, string(to), now, id, pq.Array(allowed))
	if err != nil {
		return false, wrapErr(err, "transition campaign status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr(err, "transition campaign status")
	}
	return n > 0, nil
}

func (r *CampaignRepository) ResetCounters(ctx context.Context, id string, total int) error {
	query := `UPDATE campaigns SET stats_total=$1, stats_sent=0, stats_delivered=0, stats_read=0,
        stats_responded=0, stats_failed=0, progress=0, updated_at=$2 WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, total, time.Now(), id)
	if err != nil {
		return wrapErr(err, "reset campaign counters")
	}
	return requireAffected(res, "campaign", id)
}

// IncrementCounters adds delta atomically; progress advances by sent+failed.
func (r *CampaignRepository) IncrementCounters(ctx context.Context, id string, delta model.Counters) error {
	query := `UPDATE campaigns SET
        stats_total = stats_total + $1,
        stats_sent = stats_sent + $2,
        stats_delivered = stats_delivered + $3,
        stats_read = stats_read + $4,
        stats_responded = stats_responded + $5,
        stats_failed = stats_failed + $6,
        progress = progress + $7,
        updated_at = $8
        WHERE id=$9`
	res, err := r.DB.ExecContext(ctx, query,
		delta.Total, delta.Sent, delta.Delivered, delta.Read, delta.Responded, delta.Failed,
		delta.Sent+delta.Failed, time.Now(), id,
	)
	if err != nil {
		return wrapErr(err, "increment campaign counters")
	}
	return requireAffected(res, "campaign", id)
}

// ====================== Aggregates ======================

func (r *CampaignRepository) SumCounters(ctx context.Context) (model.Counters, error) {
	var s model.Counters
	query := `SELECT COALESCE(SUM(stats_total),0), COALESCE(SUM(stats_sent),0), COALESCE(SUM(stats_delivered),0),
        COALESCE(SUM(stats_read),0), COALESCE(SUM(stats_responded),0), COALESCE(SUM(stats_failed),0)
        FROM campaigns`
	err := r.DB.QueryRowContext(ctx, query).Scan(&s.Total, &s.Sent, &s.Delivered, &s.Read, &s.Responded, &s.Failed)
	return s, wrapErr(err, "sum campaign counters")
}

func (r *CampaignRepository) CountByStatus(ctx context.Context) (map[model.CampaignStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM campaigns GROUP BY status`)
	if err != nil {
		return nil, wrapErr(err, "count campaigns by status")
	}
	defer rows.Close()

	counts := map[model.CampaignStatus]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, wrapErr(err, "scan campaign status count")
		}
		counts[model.CampaignStatus(status)] = count
	}
	return counts, wrapErr(rows.Err(), "count campaigns by status")
}

func requireAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(err, "rows affected")
	}
	if n == 0 {
		return appErrors.NewNotFound(entity, id)
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
