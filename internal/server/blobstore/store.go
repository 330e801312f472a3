// Package blobstore keeps the raw bytes of uploaded files, addressed by an
// opaque server-generated key. Missing blobs are reported as
// common.ErrorNotFound; every other failure wraps common.ErrorStorage.
package blobstore

import (
	"context"
	"io"
)

type Store interface {
	// Put stores r under key and returns the number of bytes persisted.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
