// Package storage saves uploaded profile images and returns the path or URL
// they are served from.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/expense-tracker/backend/internal/config"
)

type FileStore interface {
	// Save stores body under name and returns the reference clients use to
	// fetch it.
	Save(ctx context.Context, name, contentType string, body io.Reader) (string, error)
	// Delete removes a file previously returned by Save. Unknown references
	// are ignored.
	Delete(ctx context.Context, ref string) error
}

func New(ctx context.Context, cfg config.StorageConfig) (FileStore, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.UploadDir), nil
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Backend)
	}
}
