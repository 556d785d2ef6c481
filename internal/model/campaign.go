// internal/model/campaign.go
package model

import "time"

type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusScheduled CampaignStatus = "scheduled"
	StatusRunning   CampaignStatus = "running"
	StatusPaused    CampaignStatus = "paused"
	StatusCompleted CampaignStatus = "completed"
	StatusCancelled CampaignStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s CampaignStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageVideo    MessageType = "video"
	MessageDocument MessageType = "document"
)

func (t MessageType) IsMedia() bool {
	return t == MessageImage || t == MessageVideo || t == MessageDocument
}

// Counters is the per-campaign outcome tally.
type Counters struct {
	Total     int `bson:"total" json:"total"`
	Sent      int `bson:"sent" json:"sent"`
	Delivered int `bson:"delivered" json:"delivered"`
	Read      int `bson:"read" json:"read"`
	Responded int `bson:"responded" json:"responded"`
	Failed    int `bson:"failed" json:"failed"`
}

func (c Counters) Add(o Counters) Counters {
	return Counters{
		Total:     c.Total + o.Total,
		Sent:      c.Sent + o.Sent,
		Delivered: c.Delivered + o.Delivered,
		Read:      c.Read + o.Read,
		Responded: c.Responded + o.Responded,
		Failed:    c.Failed + o.Failed,
	}
}

type Campaign struct {
	ID          string         `bson:"_id" json:"id"`
	Name        string         `bson:"nome" json:"nome"`
	Message     string         `bson:"mensagem" json:"mensagem"`
	Type        MessageType    `bson:"tipo" json:"tipo"`
	MediaURL    string         `bson:"mediaUrl,omitempty" json:"mediaUrl,omitempty"`
	FileName    string         `bson:"nomeArquivo,omitempty" json:"nomeArquivo,omitempty"`
	Recipients  []string       `bson:"destinatarios" json:"destinatarios"`
	ScheduledAt *time.Time     `bson:"agendamento,omitempty" json:"agendamento,omitempty"`
	Status      CampaignStatus `bson:"status" json:"status"`
	Stats       Counters       `bson:"estatisticas" json:"estatisticas"`
	Progress    int            `bson:"progresso" json:"progresso"`
	StartedAt   *time.Time     `bson:"iniciadaEm,omitempty" json:"iniciadaEm,omitempty"`
	CompletedAt *time.Time     `bson:"concluidaEm,omitempty" json:"concluidaEm,omitempty"`
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time      `bson:"updatedAt" json:"updatedAt"`
}
