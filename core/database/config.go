package database

// Config holds configuration for the database connection.
type Config struct {
	// URL selects the dialect by scheme (postgres://, postgresql://, sqlite://).
	URL string `mapstructure:"url" default:"sqlite://hyperdashi.db"`
	// MaxConnections is the fixed pool size.
	MaxConnections int `mapstructure:"max_connections" default:"10"`
	// TimeoutSeconds bounds the initial ping and the SQLite busy wait.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

func (c Config) maxConnections() int {
	if c.MaxConnections <= 0 {
		return 10
	}
	return c.MaxConnections
}

func (c Config) timeoutSeconds() int {
	if c.TimeoutSeconds <= 0 {
		return 30
	}
	return c.TimeoutSeconds
}
