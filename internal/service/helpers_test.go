package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unclebandit/zapcampanhas/internal/gateway"
	"github.com/unclebandit/zapcampanhas/internal/model"
	"github.com/unclebandit/zapcampanhas/internal/repository"
	"github.com/unclebandit/zapcampanhas/internal/service"
)

type sentMessage struct {
	Phone string
	Text  string
	Media *gateway.MediaMessage
}

// fakeGateway accepts everything unless Reply says otherwise.
type fakeGateway struct {
	mu    sync.Mutex
	sent  []sentMessage
	Reply func(n int, phone string) (*gateway.SendResult, error)
	// OnSend runs after the n-th (1-based) send was recorded.
	OnSend func(n int)
}

func (g *fakeGateway) record(m sentMessage) (*gateway.SendResult, error) {
	g.mu.Lock()
	g.sent = append(g.sent, m)
	n := len(g.sent)
	g.mu.Unlock()

	if g.OnSend != nil {
		g.OnSend(n)
	}
	if g.Reply != nil {
		return g.Reply(n, m.Phone)
	}
	return &gateway.SendResult{ID: "msg-" + m.Phone, Status: "queued"}, nil
}

func (g *fakeGateway) SendText(ctx context.Context, phone, text string) (*gateway.SendResult, error) {
	return g.record(sentMessage{Phone: phone, Text: text})
}

func (g *fakeGateway) SendMedia(ctx context.Context, msg gateway.MediaMessage) (*gateway.SendResult, error) {
	return g.record(sentMessage{Phone: msg.Phone, Text: msg.Caption, Media: &msg})
}

func (g *fakeGateway) Sent() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage{}, g.sent...)
}

var errGateway = errors.New("gateway unreachable")

type harness struct {
	store        *repository.Store
	messages     *repository.MemoryOutboundMessageRepository
	gateway      *fakeGateway
	config       *service.ConfigurationService
	campaigns    *service.CampaignService
	orchestrator *service.Orchestrator
	sleeps       []time.Duration
}

func newHarness() *harness {
	messages := repository.NewMemoryOutboundMessageRepository()
	store := repository.NewMemoryStore()
	store.Messages = messages

	h := &harness{
		store:    store,
		messages: messages,
		gateway:  &fakeGateway{},
		config:   &service.ConfigurationService{Repo: store.Configuration},
	}
	h.campaigns = &service.CampaignService{CampaignRepo: store.Campaigns}
	h.orchestrator = &service.Orchestrator{
		Campaigns: store.Campaigns,
		Contacts:  store.Contacts,
		Messages:  messages,
		Config:    h.config,
		Gateway:   h.gateway,
		Sleep: func(ctx context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return ctx.Err()
		},
	}
	return h
}

func (h *harness) campaign(status model.CampaignStatus, recipients ...string) *model.Campaign {
	c := &model.Campaign{
		Name:       "Promo",
		Message:    "Olá {nome}, bem-vindo à {empresa}!",
		Type:       model.MessageText,
		Recipients: recipients,
		Status:     status,
	}
	if err := h.store.Campaigns.Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

func (h *harness) contact(name, phone string) *model.Contact {
	c := &model.Contact{Name: name, Phone: phone}
	if err := h.store.Contacts.Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

func (h *harness) reload(id string) *model.Campaign {
	c, err := h.store.Campaigns.GetByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return c
}

// staleTransitions loses every conditional status update, as if another
// writer changed the status first.
type staleTransitions struct {
	repository.CampaignRepositoryInterface
}

func (staleTransitions) TransitionStatus(ctx context.Context, id string, from []model.CampaignStatus, to model.CampaignStatus) (bool, error) {
	return false, nil
}
