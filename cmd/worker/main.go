package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/zapcampanhas/internal/config"
	"github.com/unclebandit/zapcampanhas/internal/db"
	"github.com/unclebandit/zapcampanhas/internal/gateway"
	"github.com/unclebandit/zapcampanhas/internal/logger"
	"github.com/unclebandit/zapcampanhas/internal/queue"
	"github.com/unclebandit/zapcampanhas/internal/scheduler"
	"github.com/unclebandit/zapcampanhas/internal/service"
)

// The worker consumes campaign_runs from RabbitMQ and owns the scheduler.
func main() {
	cfg := config.Load()
	log := logger.Init(cfg.LogLevel, cfg.LogFile)
	defer log.Sync()

	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := db.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer closeStore()

	q, err := queue.NewAMQPQueue(cfg.AMQPURL)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer q.Close()

	orchestrator := &service.Orchestrator{
		Campaigns: store.Campaigns,
		Contacts:  store.Contacts,
		Messages:  store.Messages,
		Config: &service.ConfigurationService{
			Repo:               store.Configuration,
			DefaultCompanyName: cfg.DefaultCompanyName,
		},
		Gateway: gateway.NewClient(gateway.Config{
			BaseURL:  cfg.GatewayURL,
			Token:    cfg.GatewayToken,
			Instance: cfg.GatewayInstance,
			Timeout:  cfg.GatewayTimeout,
		}),
	}

	if err := service.SubscribeCampaignRuns(ctx, q, orchestrator); err != nil {
		log.Fatal("failed to register consumer", zap.Error(err))
	}

	sched := scheduler.New(store.Campaigns, q, cfg.Location)
	if err := sched.Start(cfg.SchedulerSpec); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}

	log.Info("worker waiting for campaign runs", zap.String("topic", queue.TopicCampaignRuns))
	<-ctx.Done()
	log.Info("worker shutting down")

	// runs see the cancelled context and park as paused before the store closes
	sched.Stop()
	if !orchestrator.Drain(30 * time.Second) {
		log.Warn("campaign runs still active at exit")
	}
}
