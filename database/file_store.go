package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps every blob as <dir>/<key>.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create store directory %v: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	fileBytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBlobNotFound
	} else if err != nil {
		return nil, err
	}

	return fileBytes, nil
}

// Put writes to a temporary file first and renames it over the old blob so a
// crash never leaves a half-written collection behind.
func (s *FileStore) Put(ctx context.Context, key string, blob []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) Close() error {
	return nil
}
