package server

import (
	"context"
	"net/http"
)

// Service is the HTTP network layer.
type Service interface {
	// Start listens and serves. It blocks until a fatal error occurs or the
	// context is canceled.
	Start(ctx context.Context) error

	// Stop initiates a graceful shutdown, waiting for active requests to
	// drain or for the context to expire.
	Stop(ctx context.Context) error

	// RegisterHTTPHandler registers a handler for a pattern.
	// This must be called BEFORE Start().
	RegisterHTTPHandler(pattern string, handler http.Handler)

	// HTTPMux returns the underlying ServeMux for direct route registration.
	// This must be called BEFORE Start().
	HTTPMux() *http.ServeMux

	// Addr returns the listening address once started, "" before.
	Addr() string
}
