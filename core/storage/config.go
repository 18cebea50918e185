package storage

// Backend names accepted in Config.Type.
const (
	TypeLocal = "local"
	TypeS3    = "s3"
	TypeMinio = "minio"
)

// Config holds configuration for the image blob store.
type Config struct {
	// Type selects the backend: local, s3 or minio.
	Type string `mapstructure:"type" default:"local"`
	// MaxFileSizeMB caps a single upload.
	MaxFileSizeMB int `mapstructure:"max_file_size_mb" default:"5"`
	// Local configures the filesystem backend.
	Local LocalConfig `mapstructure:"local"`
	// S3 configures the AWS S3 backend.
	S3 S3Config `mapstructure:"s3"`
	// Minio configures the S3-compatible backend.
	Minio MinioConfig `mapstructure:"minio"`
}

// LocalConfig holds configuration for the filesystem backend.
type LocalConfig struct {
	// Path is the directory uploads are written under.
	Path string `mapstructure:"path" default:"./uploads"`
}

// S3Config holds configuration for AWS S3.
type S3Config struct {
	Bucket string `mapstructure:"bucket" default:""`
	Region string `mapstructure:"region" default:""`
	// AccessKeyID and SecretAccessKey fall back to the default AWS
	// credentials chain when empty.
	AccessKeyID     string `mapstructure:"access_key_id" default:""`
	SecretAccessKey string `mapstructure:"secret_access_key" default:""`
	// Endpoint overrides the AWS endpoint and enables path-style addressing.
	Endpoint string `mapstructure:"endpoint" default:""`
}

// MinioConfig holds configuration for a MinIO server.
type MinioConfig struct {
	// Endpoint is the host:port of the server, with or without scheme.
	Endpoint string `mapstructure:"endpoint" default:""`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:""`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:""`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket is the name of the bucket images are stored in.
	Bucket string `mapstructure:"bucket" default:"hyperdashi"`
	// Region is the location of the bucket.
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// MaxFileSizeBytes converts MaxFileSizeMB, defaulting to 5 MB.
func (c Config) MaxFileSizeBytes() int64 {
	mb := c.MaxFileSizeMB
	if mb <= 0 {
		mb = 5
	}
	return int64(mb) * 1024 * 1024
}
