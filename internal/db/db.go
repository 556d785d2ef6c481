package db

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/unclebandit/zapcampanhas/internal/repository"
)

//go:embed schema.sql
var schema string

const connectTimeout = 10 * time.Second

// InitPostgres opens the pool, pings it and applies the schema.
func InitPostgres(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	if _, err = conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "apply schema")
	}

	zap.L().Info("connected to postgres")
	return conn, nil
}

// InitMongo connects, pings and ensures the indexes the repositories rely on.
func InitMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect mongo")
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "ping mongo")
	}

	database := client.Database(dbName)
	indexes := map[string][]mongo.IndexModel{
		repository.CollectionContacts: {
			{Keys: bson.D{{Key: "telefone", Value: 1}}},
		},
		repository.CollectionCampaigns: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "agendamento", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		repository.CollectionMessages: {
			{Keys: bson.D{{Key: "campanhaId", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err = database.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, errors.Wrapf(err, "create indexes on %s", coll)
		}
	}

	zap.L().Info("connected to mongo", zap.String("database", dbName))
	return client, database, nil
}
