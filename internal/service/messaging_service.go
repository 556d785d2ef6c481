package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/gateway"
	"github.com/unclebandit/zapcampanhas/internal/model"
	"github.com/unclebandit/zapcampanhas/internal/repository"
	"github.com/unclebandit/zapcampanhas/internal/utils"
)

// outbound is one message ready for the gateway.
type outbound struct {
	CampaignID string
	Phone      string
	Body       string
	Type       model.MessageType
	MediaURL   string
	FileName   string
}

// dispatch sends o as text or media and returns the log record of the
// attempt. err is the transport error, if any; a rejected message has a nil
// err and a failed status.
func dispatch(ctx context.Context, gw gateway.Sender, o outbound) (*model.OutboundMessage, error) {
	var (
		res *gateway.SendResult
		err error
	)
	if o.Type.IsMedia() {
		res, err = gw.SendMedia(ctx, gateway.MediaMessage{
			Phone:    o.Phone,
			Type:     o.Type,
			URL:      o.MediaURL,
			Caption:  o.Body,
			FileName: o.FileName,
		})
	} else {
		res, err = gw.SendText(ctx, o.Phone, o.Body)
	}

	msg := &model.OutboundMessage{
		CampaignID: o.CampaignID,
		Phone:      o.Phone,
		Body:       o.Body,
		Type:       o.Type,
	}
	switch {
	case err != nil:
		msg.Status = model.OutboundFailed
		msg.LastError = err.Error()
	case !res.Accepted():
		msg.Status = model.OutboundFailed
		msg.GatewayID = res.ID
		msg.LastError = fmt.Sprintf("gateway rejected message with status %q", res.Status)
	default:
		msg.Status = strings.ToLower(res.Status)
		msg.GatewayID = res.ID
	}
	return msg, err
}

// DirectMessage is a single message sent outside any campaign.
type DirectMessage struct {
	Phone    string            `json:"telefone" validate:"required"`
	Message  string            `json:"mensagem" validate:"max=4096"`
	Type     model.MessageType `json:"tipo" validate:"omitempty,oneof=text image video document"`
	MediaURL string            `json:"mediaUrl" validate:"omitempty,url"`
	FileName string            `json:"nomeArquivo" validate:"max=255"`
}

type MessagingService struct {
	Gateway  gateway.Sender
	Messages repository.OutboundMessageRepositoryInterface
	Contacts repository.ContactRepositoryInterface
	Config   *ConfigurationService
}

// Send renders and delivers one message, logging it like a campaign send.
func (s *MessagingService) Send(ctx context.Context, in DirectMessage) (*model.OutboundMessage, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	typ := in.Type
	if typ == "" {
		typ = model.MessageText
	}
	if typ.IsMedia() && in.MediaURL == "" {
		return nil, appErrors.Validation("mediaUrl is required for %s messages", typ)
	}
	if !typ.IsMedia() && strings.TrimSpace(in.Message) == "" {
		return nil, appErrors.Validation("mensagem is required")
	}
	phone := utils.Digits(in.Phone)
	if !utils.ValidPhone(phone) {
		return nil, appErrors.Validation("telefone must have between 10 and 15 digits")
	}

	cfg, err := s.Config.Get(ctx)
	if err != nil {
		return nil, err
	}
	contact, err := s.Contacts.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	msg, sendErr := dispatch(ctx, s.Gateway, outbound{
		Phone:    phone,
		Body:     RenderCampaignMessage(in.Message, contact, cfg),
		Type:     typ,
		MediaURL: in.MediaURL,
		FileName: in.FileName,
	})
	if err := s.Messages.Create(ctx, msg); err != nil {
		zap.L().Warn("failed to record outbound message", zap.String("phone", phone), zap.Error(err))
	}

	if sendErr != nil {
		return nil, appErrors.GatewayUnavailable("gateway unavailable", sendErr)
	}
	if msg.Status == model.OutboundFailed {
		return nil, appErrors.GatewayUnavailable(msg.LastError, nil)
	}
	return msg, nil
}
