package database

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// RedisStore keeps each blob as a plain string value without expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings the server with a short timeout.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	addr := opts.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	var tlsConf *tls.Config
	if opts.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: tlsConf,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis at %v is not available: %w", addr, err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading blob %v: %w", key, err)
	}
	return blob, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, blob []byte) error {
	if err := s.client.Set(ctx, key, blob, 0).Err(); err != nil {
		return fmt.Errorf("error writing blob %v: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
