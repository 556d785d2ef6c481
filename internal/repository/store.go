package repository

import (
	"database/sql"

	"go.mongodb.org/mongo-driver/mongo"
)

// Store bundles the repositories of one backend.
type Store struct {
	Campaigns     CampaignRepositoryInterface
	Contacts      ContactRepositoryInterface
	Messages      OutboundMessageRepositoryInterface
	Configuration ConfigurationRepositoryInterface
}

func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Campaigns:     &CampaignRepository{DB: db},
		Contacts:      &ContactRepository{DB: db},
		Messages:      &OutboundMessageRepository{DB: db},
		Configuration: &ConfigurationRepository{DB: db},
	}
}

func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Campaigns:     NewMongoCampaignRepository(db),
		Contacts:      NewMongoContactRepository(db),
		Messages:      NewMongoOutboundMessageRepository(db),
		Configuration: NewMongoConfigurationRepository(db),
	}
}

func NewMemoryStore() *Store {
	return &Store{
		Campaigns:     NewMemoryCampaignRepository(),
		Contacts:      NewMemoryContactRepository(),
		Messages:      NewMemoryOutboundMessageRepository(),
		Configuration: NewMemoryConfigurationRepository(),
	}
}
