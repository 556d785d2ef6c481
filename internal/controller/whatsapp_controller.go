package controller

import (
	"encoding/base64"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/gateway"
	"github.com/unclebandit/zapcampanhas/internal/service"
)

type WhatsAppController struct {
	Messaging *service.MessagingService
	Instance  gateway.Instance
}

type connectionStatus struct {
	Instance  string `json:"instancia"`
	State     string `json:"estado"`
	Connected bool   `json:"conectado"`
}

type qrCodeResponse struct {
	Code        string `json:"code"`
	PairingCode string `json:"pairingCode,omitempty"`
	Image       string `json:"qrcode"`
}

// SendMessage handles POST /whatsapp.
func (c *WhatsAppController) SendMessage(w http.ResponseWriter, r *http.Request) {
	var body service.DirectMessage
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	msg, err := c.Messaging.Send(r.Context(), body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, "message sent", msg)
}

// GetStatus handles GET /whatsapp/status.
func (c *WhatsAppController) GetStatus(w http.ResponseWriter, r *http.Request) {
	state, err := c.Instance.ConnectionState(r.Context())
	if err != nil {
		respondError(w, r, appErrors.GatewayUnavailable("gateway unavailable", err))
		return
	}
	respondOK(w, "", connectionStatus{
		Instance:  state.Instance,
		State:     state.State,
		Connected: state.Connected(),
	})
}

// FetchQRCode handles POST /whatsapp/status. The code is rendered as a PNG
// data URL ready for an <img> tag.
func (c *WhatsAppController) FetchQRCode(w http.ResponseWriter, r *http.Request) {
	qr, err := c.Instance.QRCode(r.Context())
	if err != nil {
		respondError(w, r, appErrors.GatewayUnavailable("gateway unavailable", err))
		return
	}
	if qr.Code == "" {
		respondOK(w, "instance already connected", qrCodeResponse{PairingCode: qr.PairingCode})
		return
	}

	png, err := qrcode.Encode(qr.Code, qrcode.Medium, 256)
	if err != nil {
		respondError(w, r, appErrors.Internal(err))
		return
	}
	respondOK(w, "", qrCodeResponse{
		Code:        qr.Code,
		PairingCode: qr.PairingCode,
		Image:       "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
}
