// Package server holds the HTTP server configuration.
//
// While the start command handles the server startup, this package defines the
// configuration structure for server settings: the listen port and the API key
// that protects every route.
package server
