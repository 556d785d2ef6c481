package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/gateway"
	"github.com/unclebandit/zapcampanhas/internal/metrics"
	"github.com/unclebandit/zapcampanhas/internal/model"
	"github.com/unclebandit/zapcampanhas/internal/queue"
	"github.com/unclebandit/zapcampanhas/internal/repository"
	"github.com/unclebandit/zapcampanhas/internal/utils"
)

// Orchestrator runs the send loop of a campaign: audience resolution,
// sequential batches with a fixed delay between sends, per-recipient counters.
type Orchestrator struct {
	Campaigns repository.CampaignRepositoryInterface
	Contacts  repository.ContactRepositoryInterface
	Messages  repository.OutboundMessageRepositoryInterface
	Config    *ConfigurationService
	Gateway   gateway.Sender

	// Sleep waits between sends. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	draining bool
	runs     sync.WaitGroup
}

var errDraining = errors.New("orchestrator is shutting down")

// RunResult summarises one execution of the send loop.
type RunResult struct {
	CampaignID  string               `json:"campanhaId"`
	Status      model.CampaignStatus `json:"status"`
	Total       int                  `json:"total"`
	Sent        int                  `json:"enviadas"`
	Failed      int                  `json:"falhas"`
	Interrupted bool                 `json:"interrompida"`
}

var startableStatuses = []model.CampaignStatus{model.StatusDraft, model.StatusScheduled, model.StatusPaused}

// Start moves a draft, scheduled or paused campaign to running and sends it.
// A paused campaign continues from its stored progress.
func (o *Orchestrator) Start(ctx context.Context, id string) (*RunResult, error) {
	done, err := o.track()
	if err != nil {
		return nil, err
	}
	defer done()

	c, err := o.Campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, appErrors.Validation("campaign is %s and cannot be started", c.Status)
	}
	if c.Status == model.StatusRunning {
		return nil, appErrors.Validation("campaign is already running")
	}

	ok, err := o.Campaigns.TransitionStatus(ctx, id, startableStatuses, model.StatusRunning)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Conflict("campaign status changed concurrently, try again")
	}

	return o.run(ctx, id, c.Status == model.StatusPaused)
}

// Resume continues a campaign that the resume action already moved to running.
func (o *Orchestrator) Resume(ctx context.Context, id string) (*RunResult, error) {
	done, err := o.track()
	if err != nil {
		return nil, err
	}
	defer done()

	c, err := o.Campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != model.StatusRunning {
		return nil, appErrors.Validation("campaign is %s, nothing to resume", c.Status)
	}
	return o.run(ctx, id, true)
}

// track registers a run so Drain can wait for it. New runs are refused once
// draining has begun.
func (o *Orchestrator) track() (func(), error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.draining {
		return nil, appErrors.Unavailable(errDraining)
	}
	o.runs.Add(1)
	return o.runs.Done, nil
}

// Drain refuses new runs and waits up to timeout for the active ones to
// finish or park. Callers cancel the runs' contexts first so they park as paused.
func (o *Orchestrator) Drain(timeout time.Duration) bool {
	o.mu.Lock()
	o.draining = true
	o.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		o.runs.Wait()
		close(finished)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-finished:
		return true
	case <-t.C:
		return false
	}
}

func (o *Orchestrator) run(ctx context.Context, id string, resume bool) (*RunResult, error) {
	log := zap.L().With(zap.String("campaign_id", id))
	// counters and status must be persisted even if the caller goes away mid-send
	store := context.WithoutCancel(ctx)

	c, err := o.Campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, o.abort(store, id, err)
	}
	cfg, err := o.Config.Get(ctx)
	if err != nil {
		return nil, o.abort(store, id, err)
	}
	audience, err := o.resolveAudience(ctx, c.Recipients)
	if err != nil {
		return nil, o.abort(store, id, err)
	}

	if len(audience) == 0 {
		log.Warn("campaign has no valid recipients")
		if err := o.Campaigns.ResetCounters(store, id, 0); err != nil {
			return nil, o.abort(store, id, err)
		}
		if err := o.Campaigns.IncrementCounters(store, id, model.Counters{Failed: 1}); err != nil {
			return nil, o.abort(store, id, err)
		}
		if err := o.Campaigns.UpdateStatus(store, id, model.StatusCompleted); err != nil {
			return nil, o.abort(store, id, err)
		}
		metrics.CampaignRuns.WithLabelValues(metrics.RunEmpty).Inc()
		return nil, appErrors.Validation("campaign has no valid recipients")
	}

	result := &RunResult{CampaignID: id, Status: model.StatusRunning, Total: len(audience)}
	start := 0
	if resume && c.Progress > 0 && c.Stats.Total != len(audience) {
		log.Warn("audience changed since the run was paused, restarting from the first recipient",
			zap.Int("previous_total", c.Stats.Total),
			zap.Int("recipients", len(audience)))
		resume = false
	}
	if resume && c.Progress > 0 {
		start = c.Progress
		if start > len(audience) {
			start = len(audience)
		}
		result.Sent = c.Stats.Sent
		result.Failed = c.Stats.Failed
	} else if err := o.Campaigns.ResetCounters(store, id, len(audience)); err != nil {
		return nil, o.abort(store, id, err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = model.DefaultBatchSize
	}
	delay := cfg.SendDelay()
	log.Info("campaign run started",
		zap.Int("recipients", len(audience)),
		zap.Int("start", start),
		zap.Int("batch_size", batchSize),
		zap.Duration("delay", delay))

	first := true
	for b := start; b < len(audience); b += batchSize {
		end := b + batchSize
		if end > len(audience) {
			end = len(audience)
		}
		log.Debug("processing batch", zap.Int("batch", (b-start)/batchSize+1), zap.Int("size", end-b))

		for _, contact := range audience[b:end] {
			if !first {
				if err := o.sleep(ctx, delay); err != nil {
					return o.interrupt(store, result, err)
				}
			}
			first = false

			current, err := o.Campaigns.GetByID(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return o.interrupt(store, result, ctx.Err())
				}
				return nil, o.abort(store, id, err)
			}
			if current.Status != model.StatusRunning {
				log.Info("campaign run stopped by status change", zap.String("status", string(current.Status)))
				result.Status = current.Status
				result.Interrupted = true
				metrics.CampaignRuns.WithLabelValues(metrics.RunInterrupted).Inc()
				return result, nil
			}

			delta, sendErr := o.sendOne(ctx, store, c, contact, cfg)
			if sendErr != nil && ctx.Err() != nil {
				// not counted: the recipient is retried when the campaign resumes
				return o.interrupt(store, result, ctx.Err())
			}
			if err := o.Campaigns.IncrementCounters(store, id, delta); err != nil {
				return nil, o.abort(store, id, err)
			}
			result.Sent += delta.Sent
			result.Failed += delta.Failed
		}
	}

	if err := o.Campaigns.UpdateStatus(store, id, model.StatusCompleted); err != nil {
		return nil, err
	}
	result.Status = model.StatusCompleted
	metrics.CampaignRuns.WithLabelValues(metrics.RunCompleted).Inc()
	log.Info("campaign run completed", zap.Int("sent", result.Sent), zap.Int("failed", result.Failed))
	return result, nil
}

// resolveAudience keeps recipients with at least 10 digits, drops duplicates
// and pairs each phone with its contact or a placeholder.
func (o *Orchestrator) resolveAudience(ctx context.Context, recipients []string) ([]*model.Contact, error) {
	phones := make([]string, 0, len(recipients))
	seen := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		phone := utils.Digits(r)
		if !utils.SendablePhone(phone) {
			continue
		}
		if _, ok := seen[phone]; ok {
			continue
		}
		seen[phone] = struct{}{}
		phones = append(phones, phone)
	}
	if len(phones) == 0 {
		return nil, nil
	}

	known, err := o.Contacts.FindByPhones(ctx, phones)
	if err != nil {
		return nil, err
	}
	byPhone := make(map[string]*model.Contact, len(known))
	for _, c := range known {
		if _, ok := byPhone[c.Phone]; !ok {
			byPhone[c.Phone] = c
		}
	}

	audience := make([]*model.Contact, len(phones))
	for i, phone := range phones {
		if c, ok := byPhone[phone]; ok {
			audience[i] = c
			continue
		}
		audience[i] = &model.Contact{Name: DefaultContactName, Phone: phone}
	}
	return audience, nil
}

// sendOne hands one rendered message to the gateway and logs it. The returned
// delta has exactly one of Sent or Failed set.
func (o *Orchestrator) sendOne(ctx, store context.Context, c *model.Campaign, contact *model.Contact, cfg *model.Configuration) (model.Counters, error) {
	msg, err := dispatch(ctx, o.Gateway, outbound{
		CampaignID: c.ID,
		Phone:      contact.Phone,
		Body:       RenderCampaignMessage(c.Message, contact, cfg),
		Type:       c.Type,
		MediaURL:   c.MediaURL,
		FileName:   c.FileName,
	})

	var delta model.Counters
	if msg.Status == model.OutboundFailed {
		delta.Failed = 1
		metrics.CampaignMessages.WithLabelValues(metrics.OutcomeFailed).Inc()
		zap.L().Warn("campaign send failed",
			zap.String("campaign_id", c.ID),
			zap.String("phone", contact.Phone),
			zap.String("error", msg.LastError))
	} else {
		delta.Sent = 1
		metrics.CampaignMessages.WithLabelValues(metrics.OutcomeSent).Inc()
	}

	if err == nil || ctx.Err() == nil {
		if logErr := o.Messages.Create(store, msg); logErr != nil {
			zap.L().Warn("failed to record outbound message", zap.String("campaign_id", c.ID), zap.Error(logErr))
		}
	}
	return delta, err
}

// interrupt parks a running campaign as paused after the caller's context ended.
func (o *Orchestrator) interrupt(store context.Context, result *RunResult, cause error) (*RunResult, error) {
	ok, err := o.Campaigns.TransitionStatus(store, result.CampaignID,
		[]model.CampaignStatus{model.StatusRunning}, model.StatusPaused)
	if err != nil {
		zap.L().Error("failed to pause interrupted campaign", zap.String("campaign_id", result.CampaignID), zap.Error(err))
	}
	if ok {
		result.Status = model.StatusPaused
	}
	result.Interrupted = true
	metrics.CampaignRuns.WithLabelValues(metrics.RunInterrupted).Inc()
	zap.L().Warn("campaign run interrupted", zap.String("campaign_id", result.CampaignID), zap.Error(cause))
	return result, cause
}

// abort parks the campaign as paused after a top-level failure so it can be resumed.
func (o *Orchestrator) abort(store context.Context, id string, cause error) error {
	metrics.CampaignRuns.WithLabelValues(metrics.RunError).Inc()
	zap.L().Error("campaign run aborted", zap.String("campaign_id", id), zap.Error(cause))
	if _, err := o.Campaigns.TransitionStatus(store, id,
		[]model.CampaignStatus{model.StatusRunning}, model.StatusPaused); err != nil {
		zap.L().Error("failed to pause aborted campaign", zap.String("campaign_id", id), zap.Error(err))
	}
	return cause
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if o.Sleep != nil {
		return o.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SubscribeCampaignRuns consumes CampaignRunJob messages. Jobs that are no
// longer applicable (wrong status, deleted campaign) are dropped, other
// failures are returned to the queue for retry.
func SubscribeCampaignRuns(ctx context.Context, q queue.Queue, o *Orchestrator) error {
	return q.Subscribe(queue.TopicCampaignRuns, func(body []byte) error {
		var job queue.CampaignRunJob
		if err := json.Unmarshal(body, &job); err != nil || job.CampaignID == "" {
			zap.L().Warn("invalid campaign run job", zap.ByteString("body", body), zap.Error(err))
			return nil
		}

		run := o.Start
		if job.Resume {
			run = o.Resume
		}
		res, err := run(ctx, job.CampaignID)
		if err != nil {
			switch appErrors.KindOf(err) {
			case appErrors.KindValidation, appErrors.KindNotFound, appErrors.KindConflict:
				zap.L().Info("campaign run job skipped", zap.String("campaign_id", job.CampaignID), zap.Error(err))
				return nil
			}
			if errors.Is(err, errDraining) {
				// keep the job for the next process
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		zap.L().Info("campaign run job finished",
			zap.String("campaign_id", job.CampaignID),
			zap.String("status", string(res.Status)))
		return nil
	})
}
