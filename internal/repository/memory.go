package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/model"
)

// MemoryCampaignRepository keeps campaigns in process memory. Records are
// copied on the way in and out so callers never share state with the store.
type MemoryCampaignRepository struct {
	mu        sync.RWMutex
	campaigns map[string]*model.Campaign
}

func NewMemoryCampaignRepository() *MemoryCampaignRepository {
	return &MemoryCampaignRepository{campaigns: map[string]*model.Campaign{}}
}

func cloneCampaign(c *model.Campaign) *model.Campaign {
	cp := *c
	cp.Recipients = append([]string{}, c.Recipients...)
	if c.ScheduledAt != nil {
		t := *c.ScheduledAt
		cp.ScheduledAt = &t
	}
	if c.StartedAt != nil {
		t := *c.StartedAt
		cp.StartedAt = &t
	}
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func (r *MemoryCampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	if c.Recipients == nil {
		c.Recipients = []string{}
	}
	r.campaigns[c.ID] = cloneCampaign(c)
	return nil
}

func (r *MemoryCampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.campaigns[c.ID]
	if !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	c.UpdatedAt = time.Now()
	next := cloneCampaign(c)
	next.Status = cur.Status
	next.Stats = cur.Stats
	next.Progress = cur.Progress
	next.StartedAt = cur.StartedAt
	next.CompletedAt = cur.CompletedAt
	next.CreatedAt = cur.CreatedAt
	r.campaigns[c.ID] = next
	return nil
}

func (r *MemoryCampaignRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(r.campaigns, id)
	return nil
}

func (r *MemoryCampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return cloneCampaign(c), nil
}

func (r *MemoryCampaignRepository) sorted(keep func(*model.Campaign) bool) []*model.Campaign {
	out := []*model.Campaign{}
	for _, c := range r.campaigns {
		if keep(c) {
			out = append(out, cloneCampaign(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryCampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.sorted(func(c *model.Campaign) bool {
		return status == "" || string(c.Status) == status
	})
	return page(all, offset, limit), len(all), nil
}

func (r *MemoryCampaignRepository) ListDue(ctx context.Context, before time.Time) ([]*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	due := r.sorted(func(c *model.Campaign) bool {
		return c.Status == model.StatusScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(before)
	})
	sort.SliceStable(due, func(i, j int) bool { return due[i].ScheduledAt.Before(*due[j].ScheduledAt) })
	return due, nil
}

func (r *MemoryCampaignRepository) setStatus(c *model.Campaign, status model.CampaignStatus) {
	now := time.Now()
	c.Status = status
	c.UpdatedAt = now
	switch status {
	case model.StatusRunning:
		if c.StartedAt == nil {
			c.StartedAt = &now
		}
	case model.StatusCompleted:
		c.CompletedAt = &now
	}
}

func (r *MemoryCampaignRepository) UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	started := c.StartedAt
	r.setStatus(c, status)
	c.StartedAt = started
	return nil
}

func (r *MemoryCampaignRepository) TransitionStatus(ctx context.Context, id string, from []model.CampaignStatus, to model.CampaignStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if c.Status == s {
			r.setStatus(c, to)
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryCampaignRepository) ResetCounters(ctx context.Context, id string, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.Stats = model.Counters{Total: total}
	c.Progress = 0
	c.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryCampaignRepository) IncrementCounters(ctx context.Context, id string, delta model.Counters) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.Stats = c.Stats.Add(delta)
	c.Progress += delta.Sent + delta.Failed
	c.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryCampaignRepository) SumCounters(ctx context.Context) (model.Counters, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum model.Counters
	for _, c := range r.campaigns {
		sum = sum.Add(c.Stats)
	}
	return sum, nil
}

func (r *MemoryCampaignRepository) CountByStatus(ctx context.Context) (map[model.CampaignStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[model.CampaignStatus]int{}
	for _, c := range r.campaigns {
		counts[c.Status]++
	}
	return counts, nil
}

// MemoryContactRepository keeps contacts in process memory.
type MemoryContactRepository struct {
	mu       sync.RWMutex
	contacts map[string]*model.Contact
}

func NewMemoryContactRepository() *MemoryContactRepository {
	return &MemoryContactRepository{contacts: map[string]*model.Contact{}}
}

func cloneContact(c *model.Contact) *model.Contact {
	cp := *c
	cp.Groups = append([]string{}, c.Groups...)
	cp.Tags = append([]string{}, c.Tags...)
	return &cp
}

func (r *MemoryContactRepository) Create(ctx context.Context, c *model.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	normalizeContact(c)
	r.contacts[c.ID] = cloneContact(c)
	return nil
}

func (r *MemoryContactRepository) Update(ctx context.Context, c *model.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.contacts[c.ID]
	if !ok {
		return appErrors.NewNotFound("contact", c.ID)
	}
	c.UpdatedAt = time.Now()
	c.CreatedAt = cur.CreatedAt
	normalizeContact(c)
	r.contacts[c.ID] = cloneContact(c)
	return nil
}

func (r *MemoryContactRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contacts[id]; !ok {
		return appErrors.NewNotFound("contact", id)
	}
	delete(r.contacts, id)
	return nil
}

func (r *MemoryContactRepository) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contacts[id]
	if !ok {
		return nil, appErrors.NewNotFound("contact", id)
	}
	return cloneContact(c), nil
}

// oldestFirst lists matching contacts by creation time.
func (r *MemoryContactRepository) oldestFirst(keep func(*model.Contact) bool) []*model.Contact {
	out := []*model.Contact{}
	for _, c := range r.contacts {
		if keep(c) {
			out = append(out, cloneContact(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryContactRepository) List(ctx context.Context, offset, limit int, search string) ([]*model.Contact, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(search)
	all := r.oldestFirst(func(c *model.Contact) bool {
		return needle == "" || strings.Contains(strings.ToLower(c.Name), needle) || strings.Contains(c.Phone, search)
	})
	// newest first, like the database backends
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return page(all, offset, limit), len(all), nil
}

func (r *MemoryContactRepository) ListAll(ctx context.Context) ([]*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.oldestFirst(func(*model.Contact) bool { return true })
	sort.SliceStable(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (r *MemoryContactRepository) FindByPhone(ctx context.Context, phone string) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := r.oldestFirst(func(c *model.Contact) bool { return c.Phone == phone })
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *MemoryContactRepository) FindByPhones(ctx context.Context, phones []string) ([]*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]struct{}, len(phones))
	for _, p := range phones {
		set[p] = struct{}{}
	}
	return r.oldestFirst(func(c *model.Contact) bool {
		_, ok := set[c.Phone]
		return ok
	}), nil
}

func (r *MemoryContactRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contacts), nil
}

// MemoryOutboundMessageRepository appends messages to a slice.
type MemoryOutboundMessageRepository struct {
	mu       sync.Mutex
	messages []model.OutboundMessage
}

func NewMemoryOutboundMessageRepository() *MemoryOutboundMessageRepository {
	return &MemoryOutboundMessageRepository{}
}

func (r *MemoryOutboundMessageRepository) Create(ctx context.Context, msg *model.OutboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, *msg)
	return nil
}

// Messages returns a snapshot of everything written so far.
func (r *MemoryOutboundMessageRepository) Messages() []model.OutboundMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.OutboundMessage{}, r.messages...)
}

type MemoryConfigurationRepository struct {
	mu  sync.RWMutex
	cfg *model.Configuration
}

func NewMemoryConfigurationRepository() *MemoryConfigurationRepository {
	return &MemoryConfigurationRepository{}
}

func (r *MemoryConfigurationRepository) Get(ctx context.Context) (*model.Configuration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cfg == nil {
		return nil, nil
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *MemoryConfigurationRepository) Save(ctx context.Context, c *model.Configuration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = model.ConfigurationID
	c.UpdatedAt = time.Now()
	cp := *c
	r.cfg = &cp
	return nil
}

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

var (
	_ CampaignRepositoryInterface        = (*MemoryCampaignRepository)(nil)
	_ ContactRepositoryInterface         = (*MemoryContactRepository)(nil)
	_ OutboundMessageRepositoryInterface = (*MemoryOutboundMessageRepository)(nil)
	_ ConfigurationRepositoryInterface   = (*MemoryConfigurationRepository)(nil)
)
