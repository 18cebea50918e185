// Package config provides configuration management for HyperDashi.
//
// It loads an optional .env file with godotenv, then reads environment
// variables through Viper. Defaults come from the `default` struct tags of
// each section.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: bind address, public URL and CORS origins (SERVER_HOST, SERVER_PORT, ...)
//   - Database: connection URL and pool settings (DATABASE_URL, DATABASE_MAX_CONNECTIONS, ...)
//   - Storage: image backend selection and credentials (STORAGE_TYPE, STORAGE_S3_BUCKET, ...)
//   - Log: logging level and format (LOG_LEVEL, LOG_FORMAT)
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
