// Package docstore defines the document store contract the inventory is persisted through
// and opens the configured backend.
package docstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/config"
	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/repository/firestore"
	"github.com/mamadbah2/pantry/internal/repository/memory"
	"github.com/mamadbah2/pantry/internal/repository/mongodb"
	"github.com/mamadbah2/pantry/internal/repository/redis"
)

// Store is a keyed collection of documents with per-document read, upsert and delete plus
// a full-collection listing.
type Store interface {
	ListAll(ctx context.Context, collection string) ([]models.Document, error)
	// Get returns found=false when the document does not exist.
	Get(ctx context.Context, collection, key string) (models.Fields, bool, error)
	Put(ctx context.Context, collection, key string, fields models.Fields) error
	Delete(ctx context.Context, collection, key string) error
	Close(ctx context.Context) error
}

// Adjuster is implemented by stores that can change a quantity atomically, following
// models.ApplyDelta.
type Adjuster interface {
	Adjust(ctx context.Context, collection, key string, delta int) (models.Adjustment, error)
}

var (
	_ Store    = (*memory.Store)(nil)
	_ Adjuster = (*memory.Store)(nil)
	_ Store    = (*mongodb.Store)(nil)
	_ Adjuster = (*mongodb.Store)(nil)
	_ Store    = (*firestore.Store)(nil)
	_ Adjuster = (*firestore.Store)(nil)
	_ Store    = (*redis.Store)(nil)
	_ Adjuster = (*redis.Store)(nil)
)

// Open connects to the backend selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		store Store
		err   error
	)
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory document store, data is lost on restart")
		return memory.New(), nil
	case config.BackendMongoDB:
		store, err = orNil(mongodb.New(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, logger.Named("mongodb")))
	case config.BackendFirestore:
		store, err = orNil(firestore.New(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsPath, logger.Named("firestore")))
	case config.BackendRedis:
		store, err = orNil(redis.New(ctx, cfg.Redis, logger.Named("redis")))
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	return store, nil
}

// orNil keeps a failed constructor from yielding a non-nil Store holding a nil pointer.
func orNil[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
