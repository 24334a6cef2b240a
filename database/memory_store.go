package database

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string][]byte{}}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = append([]byte(nil), blob...)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
