// internal/model/contact.go
package model

import "time"

// Contact is a message recipient. Phone is a natural key but is not unique.
type Contact struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"nome" json:"nome"`
	Phone     string    `bson:"telefone" json:"telefone"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	Groups    []string  `bson:"grupos" json:"grupos"`
	Tags      []string  `bson:"tags" json:"tags"`
	Notes     string    `bson:"observacoes,omitempty" json:"observacoes,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
