package server

import "fmt"

// Config holds configuration for the HTTP server.
type Config struct {
	// Host is the interface the server binds to.
	Host string `mapstructure:"host" default:"127.0.0.1"`
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// PublicURL is the externally reachable base URL. Derived from host and
	// port when empty.
	PublicURL string `mapstructure:"public_url" default:""`
	// CORSOrigins is a comma-separated list of allowed origins.
	CORSOrigins string `mapstructure:"cors_origins" default:"*"`
}

// Addr returns host:port for Listen.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// BaseURL returns PublicURL, or http://host:port when it is unset.
func (c Config) BaseURL() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	return fmt.Sprintf("http://%s:%s", c.Host, c.Port)
}
