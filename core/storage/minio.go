package storage

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sohosai/hyperdashi-server/core/apperror"
)

// Client defines the MinIO operations the store needs.
type Client interface {
	// BucketExists checks if a bucket exists.
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	// MakeBucket creates a new bucket.
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	// PutObject uploads an object.
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	// RemoveObject deletes an object from a bucket.
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	// EndpointURL returns the server URL objects are addressed under.
	EndpointURL() *url.URL
}

// NewClient creates a MinIO client with bounded connection timeouts.
func NewClient(cfg MinioConfig) (Client, error) {
	if cfg.Endpoint == "" {
		return nil, apperror.Config("MinIO storage requires an endpoint")
	}
	// MinIO expects the endpoint without scheme.
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, apperror.Storage(err, "Failed to create minio client")
	}
	return client, nil
}

// MinioStore keeps uploads in one bucket of an S3-compatible server.
type MinioStore struct {
	client  Client
	bucket  string
	baseURL string
	maxSize int64
}

// NewMinioStore wraps client and creates the bucket when it is missing.
func NewMinioStore(ctx context.Context, client Client, cfg MinioConfig, maxSize int64) (*MinioStore, error) {
	if cfg.Bucket == "" {
		return nil, apperror.Config("MinIO storage requires a bucket")
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, apperror.Storage(err, "Failed to check bucket %s", cfg.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, apperror.Storage(err, "Failed to create bucket %s", cfg.Bucket)
		}
	}
	base := strings.TrimRight(client.EndpointURL().String(), "/") + "/" + cfg.Bucket
	return &MinioStore{client: client, bucket: cfg.Bucket, baseURL: base, maxSize: maxSize}, nil
}

func (s *MinioStore) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	key := objectKey(filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", apperror.Storage(err, "Failed to upload to MinIO")
	}
	return s.baseURL + "/" + key, nil
}

func (s *MinioStore) Delete(ctx context.Context, url string) error {
	key, err := keyFromURL(url, s.baseURL)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return apperror.Storage(err, "Failed to delete from MinIO")
	}
	return nil
}

func (s *MinioStore) MaxFileSizeBytes() int64 { return s.maxSize }
