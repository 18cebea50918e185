package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"

	"github.com/spf13/afero"

	"github.com/sohosai/hyperdashi-server/core/apperror"
)

// LocalStore writes uploads below a directory on the local filesystem.
type LocalStore struct {
	fs      afero.Fs
	baseURL string
	maxSize int64
}

// NewLocalStore roots a store at dir. URLs are baseURL + "/" + key.
func NewLocalStore(dir, baseURL string, maxSize int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperror.IO(err, "Failed to create upload directory %s", dir)
	}
	return NewLocalStoreFs(afero.NewBasePathFs(afero.NewOsFs(), dir), baseURL, maxSize), nil
}

// NewLocalStoreFs uses an arbitrary afero filesystem as the root.
func NewLocalStoreFs(fsys afero.Fs, baseURL string, maxSize int64) *LocalStore {
	return &LocalStore{fs: fsys, baseURL: baseURL, maxSize: maxSize}
}

func (s *LocalStore) Upload(_ context.Context, data []byte, filename, _ string) (string, error) {
	key := objectKey(filename)
	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return "", apperror.IO(err, "Failed to create image directory")
	}
	if err := afero.WriteFile(s.fs, key, data, 0o644); err != nil {
		return "", apperror.IO(err, "Failed to write image")
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes the file and its now-empty uuid directory. A missing file
// is not an error.
func (s *LocalStore) Delete(_ context.Context, url string) error {
	key, err := keyFromURL(url, s.baseURL)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperror.IO(err, "Failed to delete image")
	}
	if empty, _ := afero.IsEmpty(s.fs, path.Dir(key)); empty {
		_ = s.fs.Remove(path.Dir(key))
	}
	return nil
}

func (s *LocalStore) MaxFileSizeBytes() int64 { return s.maxSize }
