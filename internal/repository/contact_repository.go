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

// ContactRepositoryInterface defines methods used by services
type ContactRepositoryInterface interface {
	Create(ctx context.Context, c *model.Contact) error
	Update(ctx context.Context, c *model.Contact) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Contact, error)
	List(ctx context.Context, offset, limit int, search string) ([]*model.Contact, int, error)
	ListAll(ctx context.Context) ([]*model.Contact, error)
	// FindByPhone returns nil, nil when no contact has the phone.
	FindByPhone(ctx context.Context, phone string) (*model.Contact, error)
	FindByPhones(ctx context.Context, phones []string) ([]*model.Contact, error)
	Count(ctx context.Context) (int, error)
}

// ContactRepository is the PostgreSQL implementation
type ContactRepository struct {
	DB *sql.DB
}

const contactColumns = `id, name, phone, email, contact_groups, tags, notes, created_at, updated_at`

func scanContact(row rowScanner) (*model.Contact, error) {
	var c model.Contact
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, pq.Array(&c.Groups), pq.Array(&c.Tags), &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if c.Groups == nil {
		c.Groups = []string{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c, nil
}

func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
	now := time.Now()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	query := `
        INSERT INTO contacts (id, name, phone, email, contact_groups, tags, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := r.DB.ExecContext(ctx, query, c.ID, c.Name, c.Phone, c.Email, pq.Array(c.Groups), pq.Array(c.Tags), c.Notes, c.CreatedAt, c.UpdatedAt)
	return wrapErr(err, "insert contact")
}

func (r *ContactRepository) Update(ctx context.Context, c *model.Contact) error {
	c.UpdatedAt = time.Now()
	query := `
        UPDATE contacts SET name=$1, phone=$2, email=$3, contact_groups=$4, tags=$5, notes=$6, updated_at=$7
        WHERE id=$8
    `
	res, err := r.DB.ExecContext(ctx, query, c.Name, c.Phone, c.Email, pq.Array(c.Groups), pq.Array(c.Tags), c.Notes, c.UpdatedAt, c.ID)
	if err != nil {
		return wrapErr(err, "update contact")
	}
	return requireAffected(res, "contact", c.ID)
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM contacts WHERE id=$1`, id)
	if err != nil {
		return wrapErr(err, "delete contact")
	}
	return requireAffected(res, "contact", id)
}

// GetByID fetches a contact by ID
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id=$1`, id)
	c, err := scanContact(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("contact", id)
		}
		return nil, wrapErr(err, "get contact")
	}
	return c, nil
}

func (r *ContactRepository) List(ctx context.Context, offset, limit int, search string) ([]*model.Contact, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if search != "" {
		where += ` AND (name ILIKE $1 OR phone LIKE $1)`
		args = append(args, "%"+search+"%")
	}

	query := `SELECT ` + contactColumns + ` FROM contacts` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := r.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, wrapErr(err, "list contacts")
	}
	defer rows.Close()

	contacts, err := collectContacts(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapErr(err, "count contacts")
	}
	return contacts, total, nil
}

// ListAll fetches all contacts (used for export)
func (r *ContactRepository) ListAll(ctx context.Context) ([]*model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY name`)
	if err != nil {
		return nil, wrapErr(err, "list all contacts")
	}
	defer rows.Close()
	return collectContacts(rows)
}

func (r *ContactRepository) FindByPhone(ctx context.Context, phone string) (*model.Contact, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE phone=$1 ORDER BY created_at LIMIT 1`, phone)
	c, err := scanContact(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, wrapErr(err, "find contact by phone")
	}
	return c, nil
}

func (r *ContactRepository) FindByPhones(ctx context.Context, phones []string) ([]*model.Contact, error) {
	if len(phones) == 0 {
		return []*model.Contact{}, nil
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE phone = ANY($1) ORDER BY created_at`, pq.Array(phones))
	if err != nil {
		return nil, wrapErr(err, "find contacts by phone")
	}
	defer rows.Close()
	return collectContacts(rows)
}

func (r *ContactRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n)
	return n, wrapErr(err, "count contacts")
}

func collectContacts(rows *sql.Rows) ([]*model.Contact, error) {
	contacts := []*model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, wrapErr(err, "scan contact")
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err, "iterate contacts")
	}
	return contacts, nil
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
