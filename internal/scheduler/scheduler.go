package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/unclebandit/zapcampanhas/internal/queue"
	"github.com/unclebandit/zapcampanhas/internal/repository"
)

const DefaultSpec = "@every 1m"

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler publishes a run job for every scheduled campaign that is due.
type Scheduler struct {
	Campaigns repository.CampaignRepositoryInterface
	Queue     queue.Queue
	Now       func() time.Time

	sched *cron.Cron
}

func New(campaigns repository.CampaignRepositoryInterface, q queue.Queue, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		Campaigns: campaigns,
		Queue:     q,
		sched:     cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
	}
}

// Start registers the dispatch job under spec and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		spec = DefaultSpec
	}
	_, err := s.sched.AddFunc(spec, func() {
		defer func() {
			if err := recover(); err != nil {
				zap.S().Error(err)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.DispatchDue(ctx); err != nil {
			zap.L().Error("dispatch due campaigns", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.sched.Start()
	zap.L().Info("scheduler started", zap.String("spec", spec))
	return nil
}

// Stop halts the cron loop and waits for a running dispatch to finish.
func (s *Scheduler) Stop() {
	<-s.sched.Stop().Done()
}

// DispatchDue publishes one job per due campaign and returns how many were queued.
func (s *Scheduler) DispatchDue(ctx context.Context) (int, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	due, err := s.Campaigns.ListDue(ctx, now())
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, c := range due {
		if err := queue.PublishCampaignRun(s.Queue, queue.CampaignRunJob{CampaignID: c.ID}); err != nil {
			zap.L().Error("failed to queue scheduled campaign", zap.String("campaign_id", c.ID), zap.Error(err))
			continue
		}
		queued++
		zap.L().Info("scheduled campaign queued", zap.String("campaign_id", c.ID), zap.Timep("agendamento", c.ScheduledAt))
	}
	return queued, nil
}
