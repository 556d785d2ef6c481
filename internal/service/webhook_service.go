package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/metrics"
	"github.com/unclebandit/zapcampanhas/internal/utils"
)

type Intent string

const (
	IntentGreeting  Intent = "greeting"
	IntentHelp      Intent = "help"
	IntentPrice     Intent = "price"
	IntentPromotion Intent = "promotion"
	IntentHours     Intent = "hours"
	IntentDefault   Intent = "default"
)

// keywordTable is matched in order; the first intent with a keyword
// contained in the lower-cased text wins.
var keywordTable = []struct {
	intent   Intent
	keywords []string
}{
	{IntentGreeting, []string{"oi", "olá", "ola", "bom dia", "boa tarde", "boa noite"}},
	{IntentHelp, []string{"ajuda", "help", "suporte"}},
	{IntentPrice, []string{"preço", "preco", "valor", "quanto custa"}},
	{IntentPromotion, []string{"promoção", "promocao", "desconto", "oferta"}},
	{IntentHours, []string{"horário", "horario", "funcionamento"}},
}

var replyTemplates = map[Intent]string{
	IntentGreeting:  "Olá! 👋 Bem-vindo à {empresa}. Como podemos ajudar você hoje?",
	IntentHelp:      "Claro, estamos aqui para ajudar! Conte pra gente o que você precisa que um atendente da {empresa} vai te responder em breve.",
	IntentPrice:     "Nossos valores variam conforme o produto. Diga qual item te interessa que enviamos o preço atualizado.",
	IntentPromotion: "Temos ofertas especiais esta semana! 🎉 Responda com o produto desejado para receber o desconto.",
	IntentHours:     "Nosso horário de funcionamento é de segunda a sexta, das 8h às 18h, e aos sábados, das 8h às 12h.",
	IntentDefault:   "Obrigado pela mensagem! A equipe da {empresa} vai te responder o mais breve possível.",
}

func DetectIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, entry := range keywordTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.intent
			}
		}
	}
	return IntentDefault
}

// ReplyFor renders the canned reply of an intent for the given company.
func ReplyFor(intent Intent, company string) string {
	tmpl, ok := replyTemplates[intent]
	if !ok {
		tmpl = replyTemplates[IntentDefault]
	}
	return RenderTemplate(tmpl, map[string]string{"empresa": company})
}

// InboundMessage is the normalised form of both accepted payload shapes.
type InboundMessage struct {
	Event  string
	From   string
	Name   string
	Text   string
	FromMe bool
}

type webhookPayload struct {
	// gateway envelope
	Event string `json:"event"`
	Data  *struct {
		Key struct {
			RemoteJid string `json:"remoteJid"`
			FromMe    bool   `json:"fromMe"`
		} `json:"key"`
		PushName string `json:"pushName"`
		Message  struct {
			Conversation        string `json:"conversation"`
			ExtendedTextMessage *struct {
				Text string `json:"text"`
			} `json:"extendedTextMessage"`
			ImageMessage *struct {
				Caption string `json:"caption"`
			} `json:"imageMessage"`
			VideoMessage *struct {
				Caption string `json:"caption"`
			} `json:"videoMessage"`
		} `json:"message"`
	} `json:"data"`

	// simplified shape
	From    string `json:"from"`
	Message string `json:"message"`
	Name    string `json:"name"`
	FromMe  bool   `json:"fromMe"`
}

func ParseWebhookPayload(body []byte) (*InboundMessage, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, appErrors.Validation("invalid webhook payload: %v", err)
	}

	if p.Data != nil {
		msg := &InboundMessage{
			Event:  p.Event,
			From:   p.Data.Key.RemoteJid,
			Name:   strings.TrimSpace(p.Data.PushName),
			FromMe: p.Data.Key.FromMe,
		}
		m := p.Data.Message
		switch {
		case m.Conversation != "":
			msg.Text = m.Conversation
		case m.ExtendedTextMessage != nil && m.ExtendedTextMessage.Text != "":
			msg.Text = m.ExtendedTextMessage.Text
		case m.ImageMessage != nil && m.ImageMessage.Caption != "":
			msg.Text = m.ImageMessage.Caption
		case m.VideoMessage != nil:
			msg.Text = m.VideoMessage.Caption
		}
		msg.Text = strings.TrimSpace(msg.Text)
		return msg, nil
	}

	if p.From != "" {
		return &InboundMessage{
			From:   p.From,
			Name:   strings.TrimSpace(p.Name),
			Text:   strings.TrimSpace(p.Message),
			FromMe: p.FromMe,
		}, nil
	}
	return nil, appErrors.Validation("unsupported webhook payload")
}

type WebhookResult struct {
	Ignored bool   `json:"ignored"`
	Reason  string `json:"reason,omitempty"`
	From    string `json:"from,omitempty"`
	Intent  Intent `json:"intent,omitempty"`
	Reply   string `json:"reply,omitempty"`

	// Upserted yields the outcome of the contact upsert. Nil when none was submitted.
	Upserted <-chan error `json:"-"`
}

type WebhookService struct {
	Config   *ConfigurationService
	Upserter *ContactUpserter
}

// Handle derives the auto-reply for an inbound message and submits the
// sender upsert without waiting for it.
func (s *WebhookService) Handle(ctx context.Context, body []byte, secret string) (*WebhookResult, error) {
	cfg, err := s.Config.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.WebhookSecret != "" && subtle.ConstantTimeCompare([]byte(cfg.WebhookSecret), []byte(secret)) != 1 {
		return nil, appErrors.Unauthorized("invalid webhook secret")
	}

	msg, err := ParseWebhookPayload(body)
	if err != nil {
		return nil, err
	}

	phone := utils.Digits(msg.From)
	switch {
	case msg.FromMe:
		return &WebhookResult{Ignored: true, Reason: "fromMe"}, nil
	case msg.Text == "":
		return &WebhookResult{Ignored: true, Reason: "empty message"}, nil
	case utils.IsGroupJID(msg.From):
		return &WebhookResult{Ignored: true, Reason: "group message"}, nil
	case !utils.ValidPhone(phone):
		return &WebhookResult{Ignored: true, Reason: "invalid sender"}, nil
	}

	res := &WebhookResult{From: phone, Intent: DetectIntent(msg.Text)}
	if cfg.AutoReplyEnabled {
		res.Reply = ReplyFor(res.Intent, cfg.CompanyName)
		metrics.WebhookReplies.WithLabelValues(string(res.Intent)).Inc()
	}
	if s.Upserter != nil {
		res.Upserted = s.Upserter.Submit(UpsertRequest{Phone: phone, Name: msg.Name})
	}

	zap.L().Info("webhook message handled",
		zap.String("phone", phone),
		zap.String("intent", string(res.Intent)),
		zap.Bool("replied", res.Reply != ""))
	return res, nil
}
