package database

import (
	"context"
	"errors"
)

// ErrBlobNotFound is returned by a BlobStore when nothing was ever written
// under the requested key.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is a key-value store of opaque blobs. The booking collection is
// kept under a single key and is only read at load and written at save.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, blob []byte) error
	Close() error
}
