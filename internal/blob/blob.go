// Package blob stores uploaded resume files on local disk or in S3.
package blob

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/khrees2412/mockly/internal/config"
	"github.com/khrees2412/mockly/internal/session"
)

// Store is the object storage used for resumes
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// New returns the store selected by blob_backend. Local files live under dataDir/blobs.
func New(ctx context.Context, cfg *config.Config, dataDir string) (Store, error) {
	switch cfg.BlobBackend {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "local", "":
		return NewLocalStore(filepath.Join(dataDir, "blobs"))
	default:
		return nil, fmt.Errorf("unsupported blob backend: %s", cfg.BlobBackend)
	}
}

// validateKey rejects keys that could escape the store root
func validateKey(key string) error {
	clean := filepath.ToSlash(filepath.Clean(key))
	if key == "" || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, "..") || clean != key {
		return &session.ValidationError{Field: "key", Reason: fmt.Sprintf("invalid object key %q", key)}
	}
	return nil
}
