package controller

import (
	"io"
	"net/http"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/service"
)

const webhookSecretHeader = "X-Webhook-Secret"

type WebhookController struct {
	WebhookService *service.WebhookService
}

// Receive answers a gateway callback. The reply in the response body is the
// message the gateway delivers back to the sender.
func (c *WebhookController) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, r, appErrors.Validation("invalid request body: %v", err))
		return
	}

	res, err := c.WebhookService.Handle(r.Context(), body, r.Header.Get(webhookSecretHeader))
	if err != nil {
		respondError(w, r, err)
		return
	}

	message := "message processed"
	if res.Ignored {
		message = "message ignored"
	}
	respondOK(w, message, res)
}
