package config

import (
	"reflect"
	"strings"

	"github.com/sohosai/hyperdashi-server/core/apperror"
	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/logger"
	"github.com/sohosai/hyperdashi-server/core/server"
	"github.com/sohosai/hyperdashi-server/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the image store.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. STORAGE_S3_BUCKET -> storage.s3.bucket)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, apperror.Config("Failed to parse configuration: %v", err)
	}

	return &config, nil
}

// Validate rejects settings that would only fail later at connection time.
func (c *Config) Validate() error {
	if _, _, err := database.ParseURL(c.Database.URL); err != nil {
		return err
	}

	switch c.Storage.Type {
	case storage.TypeLocal:
		if c.Storage.Local.Path == "" {
			return apperror.Config("Local storage requires storage.local.path")
		}
	case storage.TypeS3:
		if c.Storage.S3.Bucket == "" || c.Storage.S3.Region == "" {
			return apperror.Config("S3 storage requires storage.s3.bucket and storage.s3.region")
		}
	case storage.TypeMinio:
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			return apperror.Config("MinIO storage requires storage.minio.endpoint and storage.minio.bucket")
		}
	default:
		return apperror.Config("Unknown storage type %q: must be local, s3 or minio", c.Storage.Type)
	}

	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
