package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/gateway"
	"github.com/unclebandit/zapcampanhas/internal/model"
	"github.com/unclebandit/zapcampanhas/internal/queue"
	"github.com/unclebandit/zapcampanhas/internal/service"
)

func TestStartSendsOncePerUniqueValidRecipient(t *testing.T) {
	h := newHarness()
	c := h.campaign(model.StatusDraft,
		"(11) 98888-0001",
		"11988880001", // duplicate after normalisation
		"123",         // too short
		"11988880002",
		"+55 11 98888-0003",
		"",
	)

	res, err := h.orchestrator.Start(context.Background(), c.ID)
	require.NoError(t, err)

	sent := h.gateway.Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, "11988880001", sent[0].Phone)
	assert.Equal(t, "11988880002", sent[1].Phone)
	assert.Equal(t, "5511988880003", sent[2].Phone)

	got := h.reload(c.ID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 3, got.Stats.Total)
	assert.Equal(t, 3, got.Stats.Sent+got.Stats.Failed)
	assert.Equal(t, 3, got.Progress)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)

	assert.Equal(t, model.StatusCompleted, res.Status)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 3, res.Sent)
	assert.False(t, res.Interrupted)
}

func TestStartRendersContactAndPlaceholderNames(t *testing.T) {
	h := newHarness()
	h.contact("Ana", "11999990000")
	c := h.campaign(model.StatusDraft, "11999990000", "11999990001")

	_, err := h.orchestrator.Start(context.Background(), c.ID)
	require.NoError(t, err)

	sent := h.gateway.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Olá Ana, bem-vindo à Sua Empresa!", sent[0].Text)
	assert.Equal(t, "Olá Cliente, bem-vindo à Sua Empresa!", sent[1].Text)
}

func TestStartAppendsSignatureAndUsesCompanyName(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	name, sig, on := "Loja Azul", "Equipe Loja Azul", true
	_, err := h.config.Update(ctx, service.ConfigurationUpdate{CompanyName: &name, Signature: &sig, SignatureEnabled: &on})
	require.NoError(t, err)

	c := h.campaign(model.StatusDraft, "11999990000")
	_, err = h.orchestrator.Start(ctx, c.ID)
	require.NoError(t, err)

	sent := h.gateway.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Olá Cliente, bem-vindo à Loja Azul!\n\nEquipe Loja Azul", sent[0].Text)
}

func TestStartEmptyAudienceCompletesWithOneFailure(t *testing.T) {
	h := newHarness()
	c := h.campaign(model.StatusDraft, "123", "abc")

	res, err := h.orchestrator.Start(context.Background(), c.ID)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, http.StatusBadRequest, appErrors.HTTPStatus(err))

	got := h.reload(c.ID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 1, got.Stats.Failed)
	assert.Equal(t, 0, got.Stats.Total)
	assert.Empty(t, h.gateway.Sent())
}

func TestStartCountsRejectedSendsWithoutRetry(t *testing.T) {
	h := newHarness()
	h.gateway.Reply = func(n int, phone string) (*gateway.SendResult, error) {
		switch n {
		case 1:
			return nil, errGateway
		case 2:
			return &gateway.SendResult{ID: "x", Status: "error"}, nil
		}
		return &gateway.SendResult{ID: "y", Status: "SENT"}, nil
	}
	c := h.campaign(model.StatusScheduled, "11900000001", "11900000002", "11900000003")

	res, err := h.orchestrator.Start(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, h.gateway.Sent(), 3)

	got := h.reload(c.ID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 1, got.Stats.Sent)
	assert.Equal(t, 2, got.Stats.Failed)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 2, res.Failed)

	msgs := h.messages.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.OutboundFailed, msgs[0].Status)
	assert.Contains(t, msgs[0].LastError, "gateway unreachable")
	assert.Equal(t, model.OutboundFailed, msgs[1].Status)
	assert.Equal(t, "sent", msgs[2].Status)
	assert.Equal(t, "y", msgs[2].GatewayID)
	assert.Equal(t, c.ID, msgs[2].CampaignID)
}

func TestStartSendsMediaWithRenderedCaption(t *testing.T) {
	h := newHarness()
	c := &model.Campaign{
		Name:       "Catálogo",
		Message:    "Confira, {nome}!",
		Type:       model.MessageDocument,
		MediaURL:   "https://cdn.example.com/catalogo.pdf",
		FileName:   "catalogo.pdf",
		Recipients: []string{"11999990000"},
	}
	require.NoError(t, h.store.Campaigns.Create(context.Background(), c))

	_, err := h.orchestrator.Start(context.Background(), c.ID)
	require.NoError(t, err)

	sent := h.gateway.Sent()
	require.Len(t, sent, 1)
	require.NotNil(t, sent[0].Media)
	assert.Equal(t, model.MessageDocument, sent[0].Media.Type)
	assert.Equal(t, "https://cdn.example.com/catalogo.pdf", sent[0].Media.URL)
	assert.Equal(t, "catalogo.pdf", sent[0].Media.FileName)
	assert.Equal(t, "Confira, Cliente!", sent[0].Media.Caption)
}

func TestStartDelaysBetweenSendsOnly(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	batch, delay := 2, 1500
	_, err := h.config.Update(ctx, service.ConfigurationUpdate{BatchSize: &batch, SendDelayMs: &delay})
	require.NoError(t, err)

	c := h.campaign(model.StatusDraft, "11900000001", "11900000002", "11900000003", "11900000004", "11900000005")
	_, err = h.orchestrator.Start(ctx, c.ID)
	require.NoError(t, err)

	assert.Len(t, h.gateway.Sent(), 5)
	require.Len(t, h.sleeps, 4)
	for _, d := range h.sleeps {
		assert.Equal(t, 1500*time.Millisecond, d)
	}
}

func TestStartGuardRejectsWithoutMutation(t *testing.T) {
	for _, status := range []model.CampaignStatus{model.StatusCompleted, model.StatusRunning, model.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			h := newHarness()
			c := h.campaign(status, "11900000001")

			_, err := h.orchestrator.Start(context.Background(), c.ID)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, appErrors.HTTPStatus(err))
			assert.Equal(t, status, h.reload(c.ID).Status)
			assert.Empty(t, h.gateway.Sent())
		})
	}
}

func TestStartUnknownCampaign(t *testing.T) {
	h := newHarness()
	_, err := h.orchestrator.Start(context.Background(), "missing")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestPauseStopsTheRunAndStartContinuesFromProgress(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	batch := 2
	_, err := h.config.Update(ctx, service.ConfigurationUpdate{BatchSize: &batch})
	require.NoError(t, err)

	c := h.campaign(model.StatusDraft, "11900000001", "11900000002", "11900000003", "11900000004", "11900000005")
	h.gateway.OnSend = func(n int) {
		if n == 2 {
			require.NoError(t, h.campaigns.Pause(ctx, c.ID))
		}
	}

	res, err := h.orchestrator.Start(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, res.Interrupted)
	assert.Equal(t, model.StatusPaused, res.Status)

	paused := h.reload(c.ID)
	assert.Equal(t, model.StatusPaused, paused.Status)
	assert.Equal(t, 2, paused.Progress)
	assert.Equal(t, 2, paused.Stats.Sent)
	assert.Nil(t, paused.CompletedAt)

	h.gateway.OnSend = nil
	res, err = h.orchestrator.Start(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status)

	sent := h.gateway.Sent()
	require.Len(t, sent, 5)
	assert.Equal(t, "11900000003", sent[2].Phone)

	done := h.reload(c.ID)
	assert.Equal(t, 5, done.Stats.Total)
	assert.Equal(t, 5, done.Stats.Sent)
	assert.Equal(t, 5, done.Progress)
}

func TestPausedCampaignKeepsRecipientsUntilRunFinishes(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := h.campaign(model.StatusDraft, "11900000001", "11900000002", "11900000003", "11900000004", "11900000005")
	h.gateway.OnSend = func(n int) {
		if n == 2 {
			require.NoError(t, h.campaigns.Pause(ctx, c.ID))
		}
	}
	_, err := h.orchestrator.Start(ctx, c.ID)
	require.NoError(t, err)
	h.gateway.OnSend = nil

	_, err = h.campaigns.UpdateCampaign(ctx, c.ID, service.CampaignInput{
		Name:       "Promo",
		Message:    "Olá {nome}",
		Recipients: []string{"11800000001", "11800000002", "11800000003"},
	})
	assert.Equal(t, http.StatusBadRequest, appErrors.HTTPStatus(err))

	res, err := h.orchestrator.Start(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status)

	done := h.reload(c.ID)
	assert.Equal(t, 5, done.Stats.Total)
	assert.Equal(t, done.Stats.Total, done.Stats.Sent+done.Stats.Failed)
	assert.Len(t, h.gateway.Sent(), 5)
}

func TestStartRestartsWhenStoredTotalNoLongerMatchesAudience(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := h.campaign(model.StatusPaused, "11800000001", "11800000002", "11800000003")
	// progress left over from an earlier five-recipient run
	require.NoError(t, h.store.Campaigns.ResetCounters(ctx, c.ID, 5))
	require.NoError(t, h.store.Campaigns.IncrementCounters(ctx, c.ID, model.Counters{Sent: 2}))

	res, err := h.orchestrator.Start(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, res.Status)
	assert.Equal(t, 3, res.Sent)

	sent := h.gateway.Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, "11800000001", sent[0].Phone)

	done := h.reload(c.ID)
	assert.Equal(t, model.Counters{Total: 3, Sent: 3}, done.Stats)
	assert.Equal(t, 3, done.Progress)
}

func TestCancelDuringRunStopsWithoutCompleting(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := h.campaign(model.StatusDraft, "11900000001", "11900000002", "11900000003")
	h.gateway.OnSend = func(n int) {
		if n == 1 {
			require.NoError(t, h.campaigns.Cancel(ctx, c.ID))
		}
	}

	res, err := h.orchestrator.Start(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, res.Interrupted)
	assert.Equal(t, model.StatusCancelled, h.reload(c.ID).Status)
	assert.Len(t, h.gateway.Sent(), 1)
}

func TestCallerCancellationParksCampaignAsPaused(t *testing.T) {
	h := newHarness()
	c := h.campaign(model.StatusDraft, "11900000001", "11900000002", "11900000003")
	h.orchestrator.Sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	res, err := h.orchestrator.Start(context.Background(), c.ID)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.True(t, res.Interrupted)

	got := h.reload(c.ID)
	assert.Equal(t, model.StatusPaused, got.Status)
	assert.Equal(t, 1, got.Progress)
}

func TestResumeRequiresRunningStatus(t *testing.T) {
	h := newHarness()
	c := h.campaign(model.StatusPaused, "11900000001")

	_, err := h.orchestrator.Resume(context.Background(), c.ID)
	assert.Equal(t, http.StatusBadRequest, appErrors.HTTPStatus(err))
	assert.Empty(t, h.gateway.Sent())
}

func TestStartLosingTheStatusRaceIsAConflict(t *testing.T) {
	h := newHarness()
	c := h.campaign(model.StatusDraft, "11900000001")
	h.orchestrator.Campaigns = staleTransitions{h.store.Campaigns}

	_, err := h.orchestrator.Start(context.Background(), c.ID)
	assert.Equal(t, http.StatusConflict, appErrors.HTTPStatus(err))
	assert.Empty(t, h.gateway.Sent())
}

func TestDrainWaitsForCancelledRunsToPark(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := h.campaign(model.StatusDraft, "11900000001", "11900000002", "11900000003")

	firstSent := make(chan struct{})
	h.gateway.OnSend = func(n int) {
		if n == 1 {
			close(firstSent)
		}
	}
	h.orchestrator.Sleep = func(ctx context.Context, d time.Duration) error {
		<-ctx.Done()
		return ctx.Err()
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_, _ = h.orchestrator.Start(ctx, c.ID)
	}()

	<-firstSent
	cancel()
	require.True(t, h.orchestrator.Drain(2*time.Second))
	<-finished

	got := h.reload(c.ID)
	assert.Equal(t, model.StatusPaused, got.Status)
	assert.Equal(t, 1, got.Progress)

	_, err := h.orchestrator.Start(context.Background(), c.ID)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.HTTPStatus(err))
	assert.Equal(t, model.StatusPaused, h.reload(c.ID).Status)
}

func TestDrainWithoutActiveRunsReturnsImmediately(t *testing.T) {
	h := newHarness()
	assert.True(t, h.orchestrator.Drain(10*time.Millisecond))
}

type capturingQueue struct {
	handler queue.Handler
}

func (q *capturingQueue) Publish(topic string, body []byte) error { return nil }

func (q *capturingQueue) Subscribe(topic string, handler queue.Handler) error {
	q.handler = handler
	return nil
}

func TestSubscriberKeepsJobsRefusedWhileDraining(t *testing.T) {
	h := newHarness()
	c := h.campaign(model.StatusRunning, "11900000001")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := &capturingQueue{}
	require.NoError(t, service.SubscribeCampaignRuns(ctx, q, h.orchestrator))
	require.True(t, h.orchestrator.Drain(time.Second))

	body, err := json.Marshal(queue.CampaignRunJob{CampaignID: c.ID, Resume: true})
	require.NoError(t, err)
	assert.Error(t, q.handler(body))
	assert.Equal(t, model.StatusRunning, h.reload(c.ID).Status)
	assert.Empty(t, h.gateway.Sent())
}

func TestSubscriberDropsJobsThatNoLongerApply(t *testing.T) {
	h := newHarness()
	c := h.campaign(model.StatusCompleted, "11900000001")

	q := &capturingQueue{}
	require.NoError(t, service.SubscribeCampaignRuns(context.Background(), q, h.orchestrator))

	body, err := json.Marshal(queue.CampaignRunJob{CampaignID: c.ID})
	require.NoError(t, err)
	assert.NoError(t, q.handler(body))
	assert.Empty(t, h.gateway.Sent())
}
