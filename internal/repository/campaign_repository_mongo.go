package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/model"
)

const (
	CollectionCampaigns     = "campaigns"
	CollectionContacts      = "contacts"
	CollectionMessages      = "messages"
	CollectionConfiguration = "configuration"
)

// MongoCampaignRepository stores campaigns as documents.
type MongoCampaignRepository struct {
	Coll *mongo.Collection
}

func NewMongoCampaignRepository(db *mongo.Database) *MongoCampaignRepository {
	return &MongoCampaignRepository{Coll: db.Collection(CollectionCampaigns)}
}

func (r *MongoCampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	now := time.Now()
	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	if c.Recipients == nil {
		c.Recipients = []string{}
	}
	_, err := r.Coll.InsertOne(ctx, c)
	return wrapErr(err, "insert campaign")
}

func (r *MongoCampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	c.UpdatedAt = time.Now()
	set := bson.M{
		"nome":          c.Name,
		"mensagem":      c.Message,
		"tipo":          c.Type,
		"mediaUrl":      c.MediaURL,
		"nomeArquivo":   c.FileName,
		"destinatarios": c.Recipients,
		"agendamento":   c.ScheduledAt,
		"updatedAt":     c.UpdatedAt,
	}
	res, err := r.Coll.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": set})
	if err != nil {
		return wrapErr(err, "update campaign")
	}
	if res.MatchedCount == 0 {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	return nil
}

func (r *MongoCampaignRepository) Delete(ctx context.Context, id string) error {
	res, err := r.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapErr(err, "delete campaign")
	}
	if res.DeletedCount == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

func (r *MongoCampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	if err := r.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, wrapErr(err, "get campaign")
	}
	if c.Recipients == nil {
		c.Recipients = []string{}
	}
	return &c, nil
}

func (r *MongoCampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.Coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapErr(err, "count campaigns")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := r.Coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrapErr(err, "list campaigns")
	}
	campaigns := []*model.Campaign{}
	if err := cur.All(ctx, &campaigns); err != nil {
		return nil, 0, wrapErr(err, "decode campaigns")
	}
	return campaigns, int(total), nil
}

func (r *MongoCampaignRepository) ListDue(ctx context.Context, before time.Time) ([]*model.Campaign, error) {
	filter := bson.M{
		"status":      model.StatusScheduled,
		"agendamento": bson.M{"$lte": before},
	}
	cur, err := r.Coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "agendamento", Value: 1}}))
	if err != nil {
		return nil, wrapErr(err, "list due campaigns")
	}
	due := []*model.Campaign{}
	if err := cur.All(ctx, &due); err != nil {
		return nil, wrapErr(err, "decode due campaigns")
	}
	return due, nil
}

func statusSet(status model.CampaignStatus, now time.Time) bson.M {
	set := bson.M{"status": status, "updatedAt": now}
	switch status {
	case model.StatusRunning:
		// resumes keep the first start time
		set["iniciadaEm"] = bson.M{"$ifNull": bson.A{"$iniciadaEm", now}}
	case model.StatusCompleted:
		set["concluidaEm"] = now
	}
	return set
}

func (r *MongoCampaignRepository) UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	set := statusSet(status, time.Now())
	delete(set, "iniciadaEm")
	res, err := r.Coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return wrapErr(err, "update campaign status")
	}
	if res.MatchedCount == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

func (r *MongoCampaignRepository) TransitionStatus(ctx context.Context, id string, from []model.CampaignStatus, to model.CampaignStatus) (bool, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$in": from}}
	// pipeline form so $ifNull can read the stored iniciadaEm
	update := bson.A{bson.M{"$set": statusSet(to, time.Now())}}
	res, err := r.Coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, wrapErr(err, "transition campaign status")
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoCampaignRepository) ResetCounters(ctx context.Context, id string, total int) error {
	update := bson.M{"$set": bson.M{
		"estatisticas": model.Counters{Total: total},
		"progresso":    0,
		"updatedAt":    time.Now(),
	}}
	res, err := r.Coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return wrapErr(err, "reset campaign counters")
	}
	if res.MatchedCount == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

func (r *MongoCampaignRepository) IncrementCounters(ctx context.Context, id string, delta model.Counters) error {
	update := bson.M{
		"$inc": bson.M{
			"estatisticas.total":     delta.Total,
			"estatisticas.sent":      delta.Sent,
			"estatisticas.delivered": delta.Delivered,
			"estatisticas.read":      delta.Read,
			"estatisticas.responded": delta.Responded,
			"estatisticas.failed":    delta.Failed,
			"progresso":              delta.Sent + delta.Failed,
		},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	res, err := r.Coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return wrapErr(err, "increment campaign counters")
	}
	if res.MatchedCount == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

func (r *MongoCampaignRepository) SumCounters(ctx context.Context) (model.Counters, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$estatisticas.total"}}},
			{Key: "sent", Value: bson.D{{Key: "$sum", Value: "$estatisticas.sent"}}},
			{Key: "delivered", Value: bson.D{{Key: "$sum", Value: "$estatisticas.delivered"}}},
			{Key: "read", Value: bson.D{{Key: "$sum", Value: "$estatisticas.read"}}},
			{Key: "responded", Value: bson.D{{Key: "$sum", Value: "$estatisticas.responded"}}},
			{Key: "failed", Value: bson.D{{Key: "$sum", Value: "$estatisticas.failed"}}},
		}}},
	}
	cur, err := r.Coll.Aggregate(ctx, pipeline)
	if err != nil {
		return model.Counters{}, wrapErr(err, "sum campaign counters")
	}
	var rows []model.Counters
	if err := cur.All(ctx, &rows); err != nil {
		return model.Counters{}, wrapErr(err, "decode campaign counters")
	}
	if len(rows) == 0 {
		return model.Counters{}, nil
	}
	return rows[0], nil
}

func (r *MongoCampaignRepository) CountByStatus(ctx context.Context) (map[model.CampaignStatus]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := r.Coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr(err, "count campaigns by status")
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, wrapErr(err, "decode campaign status counts")
	}
	counts := map[model.CampaignStatus]int{}
	for _, row := range rows {
		counts[model.CampaignStatus(row.Status)] = row.Count
	}
	return counts, nil
}

var _ CampaignRepositoryInterface = (*MongoCampaignRepository)(nil)
