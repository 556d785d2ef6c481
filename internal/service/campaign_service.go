package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/model"
	"github.com/unclebandit/zapcampanhas/internal/queue"
	"github.com/unclebandit/zapcampanhas/internal/repository"
)

// Status control actions accepted by PATCH /campanhas/{id}.
const (
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionCancel = "cancel"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	// Queue receives continuation jobs for resumed campaigns. Optional.
	Queue queue.Queue
	Now   func() time.Time
}

type CampaignInput struct {
	Name        string            `json:"nome" validate:"required,max=200"`
	Message     string            `json:"mensagem" validate:"required,max=4096"`
	Type        model.MessageType `json:"tipo" validate:"omitempty,oneof=text image video document"`
	MediaURL    string            `json:"mediaUrl" validate:"omitempty,url"`
	FileName    string            `json:"nomeArquivo" validate:"max=255"`
	Recipients  []string          `json:"destinatarios"`
	ScheduledAt *time.Time        `json:"agendamento"`
}

func (in CampaignInput) apply(c *model.Campaign) error {
	if err := ValidateStruct(in); err != nil {
		return err
	}
	typ := in.Type
	if typ == "" {
		typ = model.MessageText
	}
	if typ.IsMedia() && strings.TrimSpace(in.MediaURL) == "" {
		return appErrors.Validation("mediaUrl is required for %s campaigns", typ)
	}

	c.Name = strings.TrimSpace(in.Name)
	c.Message = in.Message
	c.Type = typ
	c.MediaURL = strings.TrimSpace(in.MediaURL)
	c.FileName = strings.TrimSpace(in.FileName)
	c.Recipients = cleanList(in.Recipients)
	c.ScheduledAt = in.ScheduledAt
	return nil
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateCampaign stores a new campaign, scheduled when agendamento is in the future.
func (s *CampaignService) CreateCampaign(ctx context.Context, in CampaignInput) (*model.Campaign, error) {
	c := &model.Campaign{}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	c.Status = model.StatusDraft
	if c.ScheduledAt != nil && c.ScheduledAt.After(s.now()) {
		c.Status = model.StatusScheduled
	}

	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	zap.L().Info("campaign created",
		zap.String("campaign_id", c.ID),
		zap.String("status", string(c.Status)),
		zap.Int("recipients", len(c.Recipients)))
	return c, nil
}

// UpdateCampaign rewrites the editable fields. Status and counters are never touched.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, in CampaignInput) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == model.StatusRunning {
		return nil, appErrors.Validation("campaign is running and cannot be edited")
	}
	recipients := c.Recipients
	if err := in.apply(c); err != nil {
		return nil, err
	}
	// a paused run continues from progresso, which indexes the current list
	if c.Status == model.StatusPaused && !slices.Equal(recipients, c.Recipients) {
		return nil, appErrors.Validation("recipients of a paused campaign cannot be changed, cancel it and create a new one")
	}
	if err := s.CampaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	if err := s.CampaignRepo.Delete(ctx, id); err != nil {
		return err
	}
	zap.L().Info("campaign deleted", zap.String("campaign_id", id))
	return nil
}

// GetCampaignDetails fetches a campaign by ID
func (s *CampaignService) GetCampaignDetails(ctx context.Context, id string) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, id)
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	page, pageSize, offset := normalizePage(page, pageSize)

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	return campaigns, pagination(page, pageSize, total), nil
}

// ApplyAction runs a status control action and returns the updated campaign.
func (s *CampaignService) ApplyAction(ctx context.Context, id, action string) (*model.Campaign, error) {
	var err error
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionPause:
		err = s.Pause(ctx, id)
	case ActionResume:
		err = s.Resume(ctx, id)
	case ActionCancel:
		err = s.Cancel(ctx, id)
	default:
		return nil, appErrors.Validation("unknown action %q (expected pause, resume or cancel)", action)
	}
	if err != nil {
		return nil, err
	}
	return s.CampaignRepo.GetByID(ctx, id)
}

func (s *CampaignService) Pause(ctx context.Context, id string) error {
	return s.transition(ctx, id, []model.CampaignStatus{model.StatusRunning}, model.StatusPaused,
		"only running campaigns can be paused")
}

// Resume moves a paused campaign back to running and queues the continuation of its send loop.
func (s *CampaignService) Resume(ctx context.Context, id string) error {
	err := s.transition(ctx, id, []model.CampaignStatus{model.StatusPaused}, model.StatusRunning,
		"only paused campaigns can be resumed")
	if err != nil || s.Queue == nil {
		return err
	}

	if err := queue.PublishCampaignRun(s.Queue, queue.CampaignRunJob{CampaignID: id, Resume: true}); err != nil {
		zap.L().Error("failed to queue resumed campaign", zap.String("campaign_id", id), zap.Error(err))
		if _, rbErr := s.CampaignRepo.TransitionStatus(context.WithoutCancel(ctx), id,
			[]model.CampaignStatus{model.StatusRunning}, model.StatusPaused); rbErr != nil {
			zap.L().Error("failed to roll back resume", zap.String("campaign_id", id), zap.Error(rbErr))
		}
		return appErrors.Internal(err)
	}
	return nil
}

func (s *CampaignService) Cancel(ctx context.Context, id string) error {
	return s.transition(ctx, id,
		[]model.CampaignStatus{model.StatusDraft, model.StatusScheduled, model.StatusRunning, model.StatusPaused},
		model.StatusCancelled,
		"completed or cancelled campaigns cannot be cancelled")
}

func (s *CampaignService) transition(ctx context.Context, id string, from []model.CampaignStatus, to model.CampaignStatus, reason string) error {
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !statusIn(c.Status, from) {
		return appErrors.Validation("%s (current status: %s)", reason, c.Status)
	}

	ok, err := s.CampaignRepo.TransitionStatus(ctx, id, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Conflict("%s (status changed concurrently)", reason)
	}
	zap.L().Info("campaign status changed",
		zap.String("campaign_id", id),
		zap.String("from", string(c.Status)),
		zap.String("to", string(to)))
	return nil
}

func statusIn(s model.CampaignStatus, set []model.CampaignStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
