package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/unclebandit/zapcampanhas/internal/model"
)

type MongoOutboundMessageRepository struct {
	Coll *mongo.Collection
}

func NewMongoOutboundMessageRepository(db *mongo.Database) *MongoOutboundMessageRepository {
	return &MongoOutboundMessageRepository{Coll: db.Collection(CollectionMessages)}
}

func (r *MongoOutboundMessageRepository) Create(ctx context.Context, msg *model.OutboundMessage) error {
	if msg.ID == "" {
		msg.ID = primitive.NewObjectID().Hex()
	}
	msg.CreatedAt = time.Now()
	_, err := r.Coll.InsertOne(ctx, msg)
	return wrapErr(err, "insert outbound message")
}

var _ OutboundMessageRepositoryInterface = (*MongoOutboundMessageRepository)(nil)
