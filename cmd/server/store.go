package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/swarnim921/Smart-Resume/internal/config"
	"github.com/swarnim921/Smart-Resume/internal/database"
	"github.com/swarnim921/Smart-Resume/internal/repository"
)

// openStore returns the user store selected by STORE_DRIVER and a func that
// releases its connection.
func openStore(ctx context.Context, cfg config.Config, svc config.Services, lg *slog.Logger) (repository.UserStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		db, err := database.OpenMySQL(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("mysql: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("mysql migrate: %w", err)
		}
		return repository.NewUserRepo(db), func() { _ = db.Close() }, nil
	case config.StoreMemory:
		lg.Warn("using in-memory user store; accounts are lost on restart")
		return repository.NewMemoryUserStore(), func() {}, nil
	default:
		db, err := database.OpenMongo(ctx, svc.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo: %w", err)
		}
		repo := repository.NewMongoUserRepo(db)
		closeFn := func() { _ = db.Client().Disconnect(context.Background()) }
		if err := ensureIndexes(ctx, repo, closeFn); err != nil {
			return nil, nil, err
		}
		return repo, closeFn, nil
	}
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// ensureIndexes refuses to serve without the unique email and TTL indexes
// and releases the connection when they cannot be built.
func ensureIndexes(ctx context.Context, ix indexer, closeFn func()) error {
	if err := ix.EnsureIndexes(ctx); err != nil {
		closeFn()
		return fmt.Errorf("mongo indexes: %w", err)
	}
	return nil
}
