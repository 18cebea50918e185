// Package server holds the HTTP server configuration.
//
// While the cmd package handles the server startup, this package defines the
// bind address, the public base URL used to build upload URLs, and the CORS
// origins.
package server
