package repository

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/model"
)

type MongoContactRepository struct {
	Coll *mongo.Collection
}

func NewMongoContactRepository(db *mongo.Database) *MongoContactRepository {
	return &MongoContactRepository{Coll: db.Collection(CollectionContacts)}
}

func (r *MongoContactRepository) Create(ctx context.Context, c *model.Contact) error {
	now := time.Now()
	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	normalizeContact(c)
	_, err := r.Coll.InsertOne(ctx, c)
	return wrapErr(err, "insert contact")
}

func (r *MongoContactRepository) Update(ctx context.Context, c *model.Contact) error {
	c.UpdatedAt = time.Now()
	normalizeContact(c)
	set := bson.M{
		"nome":        c.Name,
		"telefone":    c.Phone,
		"email":       c.Email,
		"grupos":      c.Groups,
		"tags":        c.Tags,
		"observacoes": c.Notes,
		"updatedAt":   c.UpdatedAt,
	}
	res, err := r.Coll.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": set})
	if err != nil {
		return wrapErr(err, "update contact")
	}
	if res.MatchedCount == 0 {
		return appErrors.NewNotFound("contact", c.ID)
	}
	return nil
}

func (r *MongoContactRepository) Delete(ctx context.Context, id string) error {
	res, err := r.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapErr(err, "delete contact")
	}
	if res.DeletedCount == 0 {
		return appErrors.NewNotFound("contact", id)
	}
	return nil
}

func (r *MongoContactRepository) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	var c model.Contact
	if err := r.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, appErrors.NewNotFound("contact", id)
		}
		return nil, wrapErr(err, "get contact")
	}
	normalizeContact(&c)
	return &c, nil
}

func (r *MongoContactRepository) List(ctx context.Context, offset, limit int, search string) ([]*model.Contact, int, error) {
	filter := bson.M{}
	if search != "" {
		pattern := regexp.QuoteMeta(search)
		filter["$or"] = []bson.M{
			{"nome": primitive.Regex{Pattern: pattern, Options: "i"}},
			{"telefone": primitive.Regex{Pattern: pattern}},
		}
	}

	total, err := r.Coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapErr(err, "count contacts")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	contacts, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return contacts, int(total), nil
}

func (r *MongoContactRepository) ListAll(ctx context.Context) ([]*model.Contact, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "nome", Value: 1}}))
}

func (r *MongoContactRepository) FindByPhone(ctx context.Context, phone string) (*model.Contact, error) {
	var c model.Contact
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if err := r.Coll.FindOne(ctx, bson.M{"telefone": phone}, opts).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, wrapErr(err, "find contact by phone")
	}
	normalizeContact(&c)
	return &c, nil
}

func (r *MongoContactRepository) FindByPhones(ctx context.Context, phones []string) ([]*model.Contact, error) {
	if len(phones) == 0 {
		return []*model.Contact{}, nil
	}
	return r.find(ctx, bson.M{"telefone": bson.M{"$in": phones}}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *MongoContactRepository) Count(ctx context.Context) (int, error) {
	n, err := r.Coll.CountDocuments(ctx, bson.M{})
	return int(n), wrapErr(err, "count contacts")
}

func (r *MongoContactRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Contact, error) {
	cur, err := r.Coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapErr(err, "find contacts")
	}
	contacts := []*model.Contact{}
	if err := cur.All(ctx, &contacts); err != nil {
		return nil, wrapErr(err, "decode contacts")
	}
	for _, c := range contacts {
		normalizeContact(c)
	}
	return contacts, nil
}

func normalizeContact(c *model.Contact) {
	if c.Groups == nil {
		c.Groups = []string{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
}

var _ ContactRepositoryInterface = (*MongoContactRepository)(nil)
