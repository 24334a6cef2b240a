package database

import (
	"aula-booking/config"
	"context"
	"fmt"
)

// OpenStore connects the blob store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (BlobStore, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.FileDir)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "mongo":
		return DBInit(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case "redis":
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TLS:      cfg.RedisTLS,
		})
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
