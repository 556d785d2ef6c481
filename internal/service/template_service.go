package service

import (
	"strings"

	"github.com/unclebandit/zapcampanhas/internal/model"
)

const DefaultContactName = "Cliente"

func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// RenderCampaignMessage fills {nome} and {empresa} and appends the configured
// signature when it is enabled.
func RenderCampaignMessage(template string, contact *model.Contact, cfg *model.Configuration) string {
	name := DefaultContactName
	if contact != nil && strings.TrimSpace(contact.Name) != "" {
		name = contact.Name
	}
	company := cfg.CompanyName
	if company == "" {
		company = model.DefaultCompanyName
	}

	msg := RenderTemplate(template, map[string]string{
		"nome":    name,
		"empresa": company,
	})
	if cfg.SignatureEnabled && strings.TrimSpace(cfg.Signature) != "" {
		msg += "\n\n" + cfg.Signature
	}
	return msg
}
