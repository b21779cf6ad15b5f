// Package storage abstracts the object store that receives ledger exports.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/memberhub/apiserver/config"
)

// ObjectStorage is implemented by every supported object store.
type ObjectStorage interface {
	// EnsureBucket creates the configured bucket when it is missing.
	EnsureBucket(ctx context.Context) error
	// Put uploads size bytes from r under key. A size of -1 streams until EOF.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// Open builds the object store selected by STORAGE_BACKEND and makes sure
// its bucket exists. It returns nil for the "none" backend.
func Open(ctx context.Context, cfg config.Config) (ObjectStorage, error) {
	var (
		store ObjectStorage
		err   error
	)
	switch cfg.Storage.Backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendMinio:
		store, err = NewMinioClient(cfg.Minio)
	case config.BackendGCS:
		store, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", store.Bucket(), err)
	}
	return store, nil
}
