// Package api provides an HTTP API server for searching the subtitle index.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8484")
	ListenAddr string
}
