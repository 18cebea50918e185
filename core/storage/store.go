package storage

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/sohosai/hyperdashi-server/core/apperror"
)

// Store persists uploaded images and addresses them by public URL.
type Store interface {
	// Upload writes data and returns the public URL of the new object.
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)
	// Delete removes the object a previous Upload returned url for.
	Delete(ctx context.Context, url string) error
	// MaxFileSizeBytes is the largest upload the store accepts.
	MaxFileSizeBytes() int64
}

// NewStore builds the backend selected by cfg.Type. publicURL is the
// server's externally reachable base, used by the local backend.
func NewStore(ctx context.Context, cfg Config, publicURL string) (Store, error) {
	switch cfg.Type {
	case TypeLocal, "":
		s, err := NewLocalStore(cfg.Local.Path, strings.TrimRight(publicURL, "/")+"/uploads", cfg.MaxFileSizeBytes())
		if err != nil {
			return nil, err
		}
		return s, nil
	case TypeS3:
		s, err := NewS3Store(ctx, cfg.S3, cfg.MaxFileSizeBytes())
		if err != nil {
			return nil, err
		}
		return s, nil
	case TypeMinio:
		client, err := NewClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		s, err := NewMinioStore(ctx, client, cfg.Minio, cfg.MaxFileSizeBytes())
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, apperror.Config("Unknown storage type %q", cfg.Type)
	}
}

// objectKey places each upload in its own uuid directory so client
// filenames never collide.
func objectKey(filename string) string {
	return path.Join("images", uuid.NewString(), path.Base(filename))
}

// keyFromURL strips base from url, rejecting URLs the store did not issue.
func keyFromURL(url, base string) (string, error) {
	key, ok := strings.CutPrefix(url, strings.TrimRight(base, "/")+"/")
	if !ok || key == "" || strings.Contains(key, "..") {
		return "", apperror.BadRequest("Invalid image URL: %s", url)
	}
	return key, nil
}
