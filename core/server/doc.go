// Package server holds the HTTP server configuration.
//
// While the main application entry point handles the server startup, this package
// defines the configuration structure for server settings: the HTTP port, the
// API key protecting the read endpoints, and the default content source name
// used when a request does not name one.
package server
