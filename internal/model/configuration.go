// internal/model/configuration.go
package model

import "time"

const ConfigurationID = "global"

const (
	DefaultBatchSize   = 10
	DefaultSendDelayMs = 2000
	DefaultCompanyName = "Sua Empresa"
)

// Configuration holds the global sending parameters. There is exactly one.
type Configuration struct {
	ID               string    `bson:"_id" json:"id"`
	BatchSize        int       `bson:"tamanhoLote" json:"tamanhoLote" validate:"min=1,max=100"`
	SendDelayMs      int       `bson:"intervaloEnvioMs" json:"intervaloEnvioMs" validate:"min=0,max=60000"`
	CompanyName      string    `bson:"nomeEmpresa" json:"nomeEmpresa" validate:"required,max=120"`
	Signature        string    `bson:"assinatura" json:"assinatura" validate:"max=500"`
	SignatureEnabled bool      `bson:"usarAssinatura" json:"usarAssinatura"`
	AutoReplyEnabled bool      `bson:"respostaAutomatica" json:"respostaAutomatica"`
	WebhookSecret    string    `bson:"webhookSecret" json:"webhookSecret,omitempty"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

func DefaultConfiguration(companyName string) *Configuration {
	if companyName == "" {
		companyName = DefaultCompanyName
	}
	return &Configuration{
		ID:               ConfigurationID,
		BatchSize:        DefaultBatchSize,
		SendDelayMs:      DefaultSendDelayMs,
		CompanyName:      companyName,
		AutoReplyEnabled: true,
		UpdatedAt:        time.Now(),
	}
}

func (c *Configuration) SendDelay() time.Duration {
	if c.SendDelayMs <= 0 {
		return 0
	}
	return time.Duration(c.SendDelayMs) * time.Millisecond
}
