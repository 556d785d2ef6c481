package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/zapcampanhas/internal/model"
	"github.com/unclebandit/zapcampanhas/internal/service"
)

func newStatistics(h *harness) *service.StatisticsService {
	return &service.StatisticsService{
		Campaigns: h.store.Campaigns,
		Contacts:  h.store.Contacts,
		Location:  time.FixedZone("BRT", -3*60*60),
		Now:       func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
	}
}

func TestStatisticsWithNoMessagesReportZeroRates(t *testing.T) {
	h := newHarness()
	h.campaign(model.StatusDraft)

	stats, err := newStatistics(h).Compute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0.0, stats.DeliveryRate)
	assert.Equal(t, 0.0, stats.ReadRate)
	assert.Equal(t, 0.0, stats.ResponseRate)
	assert.Equal(t, 1, stats.TotalCampaigns)
	assert.Equal(t, 0, stats.TotalContacts)
	assert.Equal(t, "2026-03-10T09:00:00-03:00", stats.GeneratedAt)
}

func TestStatisticsSumsCountersAcrossCampaigns(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.contact("Ana", "11999990000")
	h.contact("Bia", "11999990001")

	a := h.campaign(model.StatusCompleted)
	b := h.campaign(model.StatusRunning)
	h.campaign(model.StatusDraft)
	require.NoError(t, h.store.Campaigns.IncrementCounters(ctx, a.ID, model.Counters{Total: 6, Sent: 6, Delivered: 5, Read: 3, Responded: 1}))
	require.NoError(t, h.store.Campaigns.IncrementCounters(ctx, b.ID, model.Counters{Total: 4, Sent: 2, Delivered: 1, Read: 1, Failed: 2}))

	stats, err := newStatistics(h).Compute(ctx)
	require.NoError(t, err)

	assert.Equal(t, model.Counters{Total: 10, Sent: 8, Delivered: 6, Read: 4, Responded: 1, Failed: 2}, stats.Messages)
	assert.Equal(t, 75.0, stats.DeliveryRate)
	assert.Equal(t, 66.7, stats.ReadRate)
	assert.Equal(t, 25.0, stats.ResponseRate)
	assert.Equal(t, 3, stats.TotalCampaigns)
	assert.Equal(t, 2, stats.TotalContacts)
	assert.Equal(t, 1, stats.CampaignsByStatus[model.StatusCompleted])
	assert.Equal(t, 1, stats.CampaignsByStatus[model.StatusRunning])
	assert.Equal(t, 0, stats.CampaignsByStatus[model.StatusCancelled])
}
