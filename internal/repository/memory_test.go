package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/model"
)

func TestMemoryCampaignTransitionStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCampaignRepository()
	c := &model.Campaign{Name: "Promo", Message: "oi"}
	require.NoError(t, repo.Create(ctx, c))
	assert.Equal(t, model.StatusDraft, c.Status)

	ok, err := repo.TransitionStatus(ctx, c.ID, []model.CampaignStatus{model.StatusRunning}, model.StatusPaused)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.TransitionStatus(ctx, c.ID, []model.CampaignStatus{model.StatusDraft}, model.StatusRunning)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, got.Status)
	assert.NotNil(t, got.StartedAt)

	ok, err = repo.TransitionStatus(ctx, "missing", []model.CampaignStatus{model.StatusDraft}, model.StatusRunning)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCampaignResumeKeepsStartedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCampaignRepository()
	c := &model.Campaign{Name: "Promo", Message: "oi"}
	require.NoError(t, repo.Create(ctx, c))

	ok, err := repo.TransitionStatus(ctx, c.ID, []model.CampaignStatus{model.StatusDraft}, model.StatusRunning)
	require.NoError(t, err)
	require.True(t, ok)
	first, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, first.StartedAt)
	startedAt := *first.StartedAt

	time.Sleep(2 * time.Millisecond)
	ok, err = repo.TransitionStatus(ctx, c.ID, []model.CampaignStatus{model.StatusRunning}, model.StatusPaused)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.TransitionStatus(ctx, c.ID, []model.CampaignStatus{model.StatusPaused}, model.StatusRunning)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StartedAt)
	assert.True(t, startedAt.Equal(*got.StartedAt))
	assert.True(t, got.UpdatedAt.After(startedAt))
}

func TestMemoryCampaignConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCampaignRepository()
	c := &model.Campaign{Name: "Promo", Message: "oi"}
	require.NoError(t, repo.Create(ctx, c))
	require.NoError(t, repo.ResetCounters(ctx, c.ID, 100))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			delta := model.Counters{Sent: 1}
			if i%4 == 0 {
				delta = model.Counters{Failed: 1}
			}
			assert.NoError(t, repo.IncrementCounters(ctx, c.ID, delta))
		}(i)
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Counters{Total: 100, Sent: 75, Failed: 25}, got.Stats)
	assert.Equal(t, 100, got.Progress)
}

func TestMemoryCampaignListDue(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCampaignRepository()
	now := time.Now()
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	due := &model.Campaign{Name: "due", Status: model.StatusScheduled, ScheduledAt: &past}
	later := &model.Campaign{Name: "later", Status: model.StatusScheduled, ScheduledAt: &future}
	draft := &model.Campaign{Name: "draft", ScheduledAt: &past}
	for _, c := range []*model.Campaign{due, later, draft} {
		require.NoError(t, repo.Create(ctx, c))
	}

	got, err := repo.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].ID)
}

func TestMemoryCampaignNotFound(t *testing.T) {
	repo := NewMemoryCampaignRepository()
	_, err := repo.GetByID(context.Background(), "missing")
	assert.Equal(t, appErrors.KindNotFound, appErrors.KindOf(err))
}

func TestMemoryContactLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryContactRepository()
	for _, c := range []*model.Contact{
		{Name: "Ana Souza", Phone: "5511987650001"},
		{Name: "Bruno Lima", Phone: "5511987650002"},
		{Name: "Ana Duplicada", Phone: "5511987650001"},
	} {
		require.NoError(t, repo.Create(ctx, c))
		time.Sleep(time.Millisecond)
	}

	found, err := repo.FindByPhone(ctx, "5511987650001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Ana Souza", found.Name)

	none, err := repo.FindByPhone(ctx, "5511000000000")
	require.NoError(t, err)
	assert.Nil(t, none)

	list, total, err := repo.List(ctx, 0, 10, "ANA")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = repo.List(ctx, 0, 10, "0002")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Bruno Lima", list[0].Name)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMemoryContactReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryContactRepository()
	c := &model.Contact{Name: "Ana", Phone: "5511987650001", Tags: []string{"vip"}}
	require.NoError(t, repo.Create(ctx, c))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	got.Tags[0] = "changed"

	again, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"vip"}, again.Tags)
}
