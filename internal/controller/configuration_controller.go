package controller

import (
	"net/http"

	"github.com/unclebandit/zapcampanhas/internal/service"
)

type ConfigurationController struct {
	ConfigurationService *service.ConfigurationService
}

func (c *ConfigurationController) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	cfg, err := c.ConfigurationService.Get(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, "", cfg)
}

func (c *ConfigurationController) UpdateConfiguration(w http.ResponseWriter, r *http.Request) {
	var body service.ConfigurationUpdate
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	cfg, err := c.ConfigurationService.Update(r.Context(), body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, "configuration saved", cfg)
}
