package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unclebandit/zapcampanhas/internal/controller"
)

// Controllers groups everything the router dispatches to.
type Controllers struct {
	Campaigns     *controller.CampaignController
	Contacts      *controller.ContactController
	Configuration *controller.ConfigurationController
	Webhook       *controller.WebhookController
	WhatsApp      *controller.WhatsAppController
}

func NewRouter(c Controllers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(Metrics)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Campaign routes
	r.Route("/campanhas", func(r chi.Router) {
		r.Get("/", c.Campaigns.ListCampaigns)
		r.Post("/", c.Campaigns.CreateCampaign)
		r.Put("/", c.Campaigns.UpdateCampaign)
		r.Delete("/", c.Campaigns.DeleteCampaign)

		r.Post("/iniciar", c.Campaigns.StartCampaign)
		r.Get("/estatisticas", c.Campaigns.GetStatistics)

		r.Get("/{id}", c.Campaigns.GetCampaignDetails)
		r.Patch("/{id}", c.Campaigns.ChangeStatus)
		r.Put("/{id}", c.Campaigns.UpdateCampaignByID)
		r.Delete("/{id}", c.Campaigns.DeleteCampaignByID)
	})

	// Contact routes
	r.Route("/contatos", func(r chi.Router) {
		r.Get("/", c.Contacts.ListContacts)
		r.Post("/", c.Contacts.CreateContact)
		r.Get("/exportar", c.Contacts.ExportContacts)
		r.Get("/{id}", c.Contacts.GetContact)
		r.Put("/{id}", c.Contacts.UpdateContact)
		r.Delete("/{id}", c.Contacts.DeleteContact)
	})

	r.Get("/configuracoes", c.Configuration.GetConfiguration)
	r.Post("/configuracoes", c.Configuration.UpdateConfiguration)

	r.Post("/webhook", c.Webhook.Receive)

	r.Post("/whatsapp", c.WhatsApp.SendMessage)
	r.Get("/whatsapp/status", c.WhatsApp.GetStatus)
	r.Post("/whatsapp/status", c.WhatsApp.FetchQRCode)

	return r
}
