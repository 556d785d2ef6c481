package service

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/unclebandit/zapcampanhas/internal/model"
	"github.com/unclebandit/zapcampanhas/internal/repository"
)

const (
	WebhookContactName = "Contato WhatsApp"
	WebhookContactTag  = "whatsapp"

	upsertTimeout = 10 * time.Second
)

// UpsertRequest identifies an inbound sender.
type UpsertRequest struct {
	Phone string
	Name  string
}

// ContactUpserter persists webhook senders on a bounded goroutine pool.
type ContactUpserter struct {
	Repo repository.ContactRepositoryInterface
	pool *ants.Pool
}

func NewContactUpserter(repo repository.ContactRepositoryInterface, size int) (*ContactUpserter, error) {
	if size <= 0 {
		size = 16
	}
	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(p interface{}) {
		zap.L().Error("contact upsert panicked", zap.Any("panic", p))
	}))
	if err != nil {
		return nil, err
	}
	return &ContactUpserter{Repo: repo, pool: pool}, nil
}

// Submit schedules the upsert and returns a channel that receives its
// outcome exactly once. The outcome is also logged.
func (u *ContactUpserter) Submit(req UpsertRequest) <-chan error {
	done := make(chan error, 1)
	err := u.pool.Submit(func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), upsertTimeout)
		defer cancel()

		c, err := u.Upsert(ctx, req)
		if err != nil {
			zap.L().Error("webhook contact upsert failed", zap.String("phone", req.Phone), zap.Error(err))
		} else {
			zap.L().Debug("webhook contact upserted", zap.String("phone", req.Phone), zap.String("contact_id", c.ID))
		}
		done <- err
	})
	if err != nil {
		zap.L().Error("webhook contact upsert rejected", zap.String("phone", req.Phone), zap.Error(err))
		done <- err
		close(done)
	}
	return done
}

// Upsert creates the contact on first contact, otherwise refreshes it.
func (u *ContactUpserter) Upsert(ctx context.Context, req UpsertRequest) (*model.Contact, error) {
	existing, err := u.Repo.FindByPhone(ctx, req.Phone)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		name := req.Name
		if name == "" {
			name = WebhookContactName
		}
		c := &model.Contact{
			Name:  name,
			Phone: req.Phone,
			Tags:  []string{WebhookContactTag},
		}
		if err := u.Repo.Create(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}

	if req.Name != "" && (existing.Name == "" || existing.Name == WebhookContactName) {
		existing.Name = req.Name
	}
	if !containsString(existing.Tags, WebhookContactTag) {
		existing.Tags = append(existing.Tags, WebhookContactTag)
	}
	if err := u.Repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Release closes the pool, giving running upserts up to timeout to finish.
func (u *ContactUpserter) Release(timeout time.Duration) {
	if err := u.pool.ReleaseTimeout(timeout); err != nil {
		zap.L().Warn("contact upsert pool released with tasks running", zap.Error(err))
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
