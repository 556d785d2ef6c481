package service

import (
	"context"
	"math"
	"time"

	"github.com/unclebandit/zapcampanhas/internal/model"
	"github.com/unclebandit/zapcampanhas/internal/repository"
)

type StatisticsService struct {
	Campaigns repository.CampaignRepositoryInterface
	Contacts  repository.ContactRepositoryInterface
	Location  *time.Location
	Now       func() time.Time
}

// Statistics is recomputed on every request.
type Statistics struct {
	TotalCampaigns    int                          `json:"totalCampanhas"`
	TotalContacts     int                          `json:"totalContatos"`
	CampaignsByStatus map[model.CampaignStatus]int `json:"campanhasPorStatus"`
	Messages          model.Counters               `json:"mensagens"`
	DeliveryRate      float64                      `json:"deliveryRate"`
	ReadRate          float64                      `json:"readRate"`
	ResponseRate      float64                      `json:"responseRate"`
	GeneratedAt       string                       `json:"geradoEm"`
}

var allStatuses = []model.CampaignStatus{
	model.StatusDraft, model.StatusScheduled, model.StatusRunning,
	model.StatusPaused, model.StatusCompleted, model.StatusCancelled,
}

func (s *StatisticsService) Compute(ctx context.Context) (*Statistics, error) {
	sum, err := s.Campaigns.SumCounters(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.Campaigns.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	contacts, err := s.Contacts.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		TotalContacts:     contacts,
		CampaignsByStatus: make(map[model.CampaignStatus]int, len(allStatuses)),
		Messages:          sum,
		DeliveryRate:      rate(sum.Delivered, sum.Sent),
		ReadRate:          rate(sum.Read, sum.Delivered),
		ResponseRate:      rate(sum.Responded, sum.Read),
	}
	for _, st := range allStatuses {
		stats.CampaignsByStatus[st] = 0
	}
	for st, n := range byStatus {
		stats.CampaignsByStatus[st] = n
		stats.TotalCampaigns += n
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	stats.GeneratedAt = now().In(loc).Format(time.RFC3339)
	return stats, nil
}

// rate is num/den as a percentage with one decimal, 0 when den is 0.
func rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return math.Round(float64(num)/float64(den)*1000) / 10
}
