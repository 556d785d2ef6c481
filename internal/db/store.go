package db

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/unclebandit/zapcampanhas/internal/config"
	"github.com/unclebandit/zapcampanhas/internal/repository"
)

// OpenStore connects the backend selected by cfg.DBDriver. The returned
// close func releases the connection and is never nil.
func OpenStore(ctx context.Context, cfg *config.Config) (*repository.Store, func(), error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		client, database, err := InitMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, func() {}, err
		}
		return repository.NewMongoStore(database), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				zap.L().Warn("mongo disconnect failed", zap.Error(err))
			}
		}, nil
	case config.DriverPostgres:
		conn, err := InitPostgres(cfg.PostgresDSN())
		if err != nil {
			return nil, func() {}, err
		}
		return repository.NewPostgresStore(conn), func() { _ = conn.Close() }, nil
	case config.DriverMemory:
		zap.L().Warn("using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	default:
		return nil, func() {}, errors.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}
