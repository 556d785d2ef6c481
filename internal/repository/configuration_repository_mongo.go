package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unclebandit/zapcampanhas/internal/model"
)

type MongoConfigurationRepository struct {
	Coll *mongo.Collection
}

func NewMongoConfigurationRepository(db *mongo.Database) *MongoConfigurationRepository {
	return &MongoConfigurationRepository{Coll: db.Collection(CollectionConfiguration)}
}

func (r *MongoConfigurationRepository) Get(ctx context.Context) (*model.Configuration, error) {
	var c model.Configuration
	if err := r.Coll.FindOne(ctx, bson.M{"_id": model.ConfigurationID}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, wrapErr(err, "get configuration")
	}
	return &c, nil
}

func (r *MongoConfigurationRepository) Save(ctx context.Context, c *model.Configuration) error {
	c.ID = model.ConfigurationID
	c.UpdatedAt = time.Now()
	_, err := r.Coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
	return wrapErr(err, "save configuration")
}

var _ ConfigurationRepositoryInterface = (*MongoConfigurationRepository)(nil)
