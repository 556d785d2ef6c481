//cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/zapcampanhas/internal/config"
	"github.com/unclebandit/zapcampanhas/internal/db"
	"github.com/unclebandit/zapcampanhas/internal/logger"
	"github.com/unclebandit/zapcampanhas/internal/model"
	"github.com/unclebandit/zapcampanhas/internal/repository"
	"github.com/unclebandit/zapcampanhas/internal/service"
)

var demoContacts = []service.ContactInput{
	{Name: "Ana Souza", Phone: "5511987650001", Email: "ana@example.com", Groups: []string{"clientes"}, Tags: []string{"vip"}},
	{Name: "Bruno Lima", Phone: "5511987650002", Groups: []string{"clientes"}},
	{Name: "Carla Mendes", Phone: "5521987650003", Email: "carla@example.com", Groups: []string{"leads"}, Tags: []string{"promo"}},
	{Name: "Diego Alves", Phone: "5531987650004", Groups: []string{"leads"}},
	{Name: "Elisa Rocha", Phone: "5541987650005", Groups: []string{"clientes", "leads"}, Notes: "prefere contato à tarde"},
}

func main() {
	withCampaign := flag.Bool("campaign", true, "also create a draft demo campaign")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init(cfg.LogLevel, cfg.LogFile)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, closeStore, err := db.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	if err := seed(ctx, store, cfg, *withCampaign); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}
	log.Info("database seeding completed successfully")
}

func seed(ctx context.Context, store *repository.Store, cfg *config.Config, withCampaign bool) error {
	configService := &service.ConfigurationService{
		Repo:               store.Configuration,
		DefaultCompanyName: cfg.DefaultCompanyName,
	}
	if _, err := configService.Get(ctx); err != nil {
		return err
	}

	contacts := &service.ContactService{Repo: store.Contacts}
	phones := make([]string, 0, len(demoContacts))
	for _, in := range demoContacts {
		phones = append(phones, in.Phone)
		existing, err := store.Contacts.FindByPhone(ctx, in.Phone)
		if err != nil {
			return err
		}
		if existing != nil {
			zap.L().Info("contact already seeded", zap.String("phone", in.Phone))
			continue
		}
		if _, err := contacts.Create(ctx, in); err != nil {
			return err
		}
		zap.L().Info("seeded contact", zap.String("name", in.Name))
	}

	if !withCampaign {
		return nil
	}
	campaigns := &service.CampaignService{CampaignRepo: store.Campaigns}
	c, err := campaigns.CreateCampaign(ctx, service.CampaignInput{
		Name:       "Boas-vindas",
		Message:    "Olá {nome}, obrigado por escolher a {empresa}!",
		Type:       model.MessageText,
		Recipients: phones,
	})
	if err != nil {
		return err
	}
	zap.L().Info("seeded campaign", zap.String("id", c.ID), zap.String("status", string(c.Status)))
	return nil
}
