// internal/model/outbound_message.go
package model

import "time"

// OutboundMessage is written once per gateway send and never read back by the app.
type OutboundMessage struct {
	ID         string      `bson:"_id" json:"id"`
	CampaignID string      `bson:"campanhaId,omitempty" json:"campanhaId,omitempty"`
	Phone      string      `bson:"telefone" json:"telefone"`
	Body       string      `bson:"mensagem" json:"mensagem"`
	Type       MessageType `bson:"tipo" json:"tipo"`
	Status     string      `bson:"status" json:"status"` // queued, sent, failed
	GatewayID  string      `bson:"gatewayId,omitempty" json:"gatewayId,omitempty"`
	LastError  string      `bson:"erro,omitempty" json:"erro,omitempty"`
	CreatedAt  time.Time   `bson:"createdAt" json:"createdAt"`
}

const OutboundFailed = "failed"
