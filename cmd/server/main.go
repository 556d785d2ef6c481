// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/zapcampanhas/internal/config"
	"github.com/unclebandit/zapcampanhas/internal/controller"
	"github.com/unclebandit/zapcampanhas/internal/db"
	"github.com/unclebandit/zapcampanhas/internal/gateway"
	"github.com/unclebandit/zapcampanhas/internal/handler"
	"github.com/unclebandit/zapcampanhas/internal/logger"
	"github.com/unclebandit/zapcampanhas/internal/queue"
	"github.com/unclebandit/zapcampanhas/internal/scheduler"
	"github.com/unclebandit/zapcampanhas/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Init(cfg.LogLevel, cfg.LogFile)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := db.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer closeStore()

	gw := gateway.NewClient(gateway.Config{
		BaseURL:  cfg.GatewayURL,
		Token:    cfg.GatewayToken,
		Instance: cfg.GatewayInstance,
		Timeout:  cfg.GatewayTimeout,
	})

	configService := &service.ConfigurationService{
		Repo:               store.Configuration,
		DefaultCompanyName: cfg.DefaultCompanyName,
	}
	orchestrator := &service.Orchestrator{
		Campaigns: store.Campaigns,
		Contacts:  store.Contacts,
		Messages:  store.Messages,
		Config:    configService,
		Gateway:   gw,
	}

	// With a broker configured, runs and the scheduler live in cmd/worker.
	var (
		q     queue.Queue
		sched *scheduler.Scheduler
	)
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.NewAMQPQueue(cfg.AMQPURL)
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer amqpQueue.Close()
		q = amqpQueue
	} else {
		q = queue.NewInMemoryQueue()
		if err := service.SubscribeCampaignRuns(ctx, q, orchestrator); err != nil {
			log.Fatal("failed to subscribe campaign runs", zap.Error(err))
		}
		sched = scheduler.New(store.Campaigns, q, cfg.Location)
		if err := sched.Start(cfg.SchedulerSpec); err != nil {
			log.Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	upserter, err := service.NewContactUpserter(store.Contacts, cfg.WorkerPoolSize)
	if err != nil {
		log.Fatal("failed to create worker pool", zap.Error(err))
	}
	defer upserter.Release(10 * time.Second)

	campaignService := &service.CampaignService{
		CampaignRepo: store.Campaigns,
		Queue:        q,
	}

	router := handler.NewRouter(handler.Controllers{
		Campaigns: &controller.CampaignController{
			CampaignService: campaignService,
			Orchestrator:    orchestrator,
			Statistics: &service.StatisticsService{
				Campaigns: store.Campaigns,
				Contacts:  store.Contacts,
				Location:  cfg.Location,
			},
		},
		Contacts: &controller.ContactController{
			ContactService: &service.ContactService{Repo: store.Contacts},
			Location:       cfg.Location,
		},
		Configuration: &controller.ConfigurationController{ConfigurationService: configService},
		Webhook: &controller.WebhookController{
			WebhookService: &service.WebhookService{Config: configService, Upserter: upserter},
		},
		WhatsApp: &controller.WhatsAppController{
			Messaging: &service.MessagingService{
				Gateway:  gw,
				Messages: store.Messages,
				Contacts: store.Contacts,
				Config:   configService,
			},
			Instance: gw,
		},
	})

	// POST /campanhas/iniciar runs the whole send loop inside the request,
	// so there is no write timeout. Request contexts derive from the signal
	// context, so a shutdown parks in-flight runs as paused.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("server running", zap.String("addr", srv.Addr), zap.String("driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	if sched != nil {
		sched.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if !orchestrator.Drain(15 * time.Second) {
		log.Warn("campaign runs still active at exit")
	}
}
