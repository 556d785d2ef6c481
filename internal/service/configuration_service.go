package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/unclebandit/zapcampanhas/internal/model"
	"github.com/unclebandit/zapcampanhas/internal/repository"
)

type ConfigurationService struct {
	Repo               repository.ConfigurationRepositoryInterface
	DefaultCompanyName string
}

// ConfigurationUpdate carries the fields a client wants to change. Nil fields are kept.
type ConfigurationUpdate struct {
	BatchSize        *int    `json:"tamanhoLote"`
	SendDelayMs      *int    `json:"intervaloEnvioMs"`
	CompanyName      *string `json:"nomeEmpresa"`
	Signature        *string `json:"assinatura"`
	SignatureEnabled *bool   `json:"usarAssinatura"`
	AutoReplyEnabled *bool   `json:"respostaAutomatica"`
	WebhookSecret    *string `json:"webhookSecret"`
}

// Get returns the singleton, creating it with defaults on first use.
func (s *ConfigurationService) Get(ctx context.Context) (*model.Configuration, error) {
	cfg, err := s.Repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}

	cfg = model.DefaultConfiguration(s.DefaultCompanyName)
	if err := s.Repo.Save(ctx, cfg); err != nil {
		return nil, err
	}
	zap.L().Info("created default configuration")
	return cfg, nil
}

func (s *ConfigurationService) Update(ctx context.Context, upd ConfigurationUpdate) (*model.Configuration, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if upd.BatchSize != nil {
		cfg.BatchSize = *upd.BatchSize
	}
	if upd.SendDelayMs != nil {
		cfg.SendDelayMs = *upd.SendDelayMs
	}
	if upd.CompanyName != nil {
		cfg.CompanyName = *upd.CompanyName
	}
	if upd.Signature != nil {
		cfg.Signature = *upd.Signature
	}
	if upd.SignatureEnabled != nil {
		cfg.SignatureEnabled = *upd.SignatureEnabled
	}
	if upd.AutoReplyEnabled != nil {
		cfg.AutoReplyEnabled = *upd.AutoReplyEnabled
	}
	if upd.WebhookSecret != nil {
		cfg.WebhookSecret = *upd.WebhookSecret
	}

	if err := ValidateStruct(cfg); err != nil {
		return nil, err
	}
	if err := s.Repo.Save(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
