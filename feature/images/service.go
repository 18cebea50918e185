package images

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/storage"
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadResponse describes a stored image.
type UploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Service validates images and hands them to the blob store.
type Service struct {
	store  storage.Store
	logger *zap.Logger
}

// NewService creates a new image service.
func NewService(store storage.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// MaxFileSizeBytes is the upload limit of the underlying store.
func (s *Service) MaxFileSizeBytes() int64 {
	return s.store.MaxFileSizeBytes()
}

// Upload stores data when its declared type or its extension names an
// image format and the bytes decode as one. The stored content type is the
// decoded format.
func (s *Service) Upload(ctx context.Context, filename, contentType string, data []byte) (*UploadResponse, error) {
	if limit := s.store.MaxFileSizeBytes(); int64(len(data)) > limit {
		return nil, apperror.BadRequest("File size exceeds %dMB limit", limit/(1024*1024))
	}
	if filename == "" {
		filename = "image.jpg"
	}
	ext := strings.ToLower(path.Ext(filename))
	mediaType, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	if !allowedTypes[strings.TrimSpace(mediaType)] && !allowedExtensions[ext] {
		return nil, apperror.BadRequest(
			"Only image files are allowed (JPEG, PNG, GIF, WebP). Got content-type: %s, filename: %s", contentType, filename)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.BadRequest("File is not a valid image")
	}

	url, err := s.store.Upload(ctx, data, filename, "image/"+format)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Image uploaded",
		zap.String("url", url),
		zap.String("format", format),
		zap.Int("size", len(data)))
	return &UploadResponse{
		URL:      url,
		Filename: path.Base(url),
		Size:     len(data),
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}

// Delete removes an image previously returned by Upload.
func (s *Service) Delete(ctx context.Context, url string) error {
	if url == "" {
		return apperror.BadRequest("url is required")
	}
	if err := s.store.Delete(ctx, url); err != nil {
		return err
	}
	s.logger.Info("Image deleted", zap.String("url", url))
	return nil
}
