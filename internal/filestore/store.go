// Package filestore keeps the original uploaded file bytes so a user's
// source documents can be re-ingested or audited later. Chunk text and
// vectors live elsewhere; this is provenance storage only.
package filestore

import (
	"context"
	"fmt"
	"io"

	"github.com/mnemo-dev/mnemo/internal/config"
)

type Store interface {
	Save(ctx context.Context, key string, r ReadSeekCloser, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type ReadSeekCloser interface {
	Read(p []byte) (n int, err error)
	Seek(offset int64, whence int) (int64, error)
	Close() error
}

// New builds the configured store. An empty type disables upload
// retention entirely and returns nil.
func New(cfg config.FileStoreConfig) (Store, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "local":
		return newLocalStore(cfg.Dir)
	case "s3":
		return newS3Store(cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported file store type: %s", cfg.Type)
	}
}
