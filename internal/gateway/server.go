// Package gateway assembles the HTTP API of gemex.
package gateway

import (
	"log/slog"
	"net/http"

	"github.com/gemexbase/gemex/internal/gateway/rest"
	"github.com/gemexbase/gemex/internal/session"
)

// Server is a route registrar for the API layer.
type Server struct {
	rest *rest.Handler
}

// ServerOption is a function that configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	logger *slog.Logger
	limits rest.PageLimits
}

// WithLogger sets the logger of the API handlers.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = logger
	}
}

// WithPageLimits sets the default and maximum page sizes.
func WithPageLimits(defaultSize, maxSize int) ServerOption {
	return func(c *serverConfig) {
		c.limits = rest.PageLimits{DefaultPageSize: defaultSize, MaxPageSize: maxSize}
	}
}

// NewServer creates a new API Server (route registrar) over a session store.
func NewServer(sessions *session.Store, opts ...ServerOption) *Server {
	cfg := &serverConfig{
		limits: rest.PageLimits{DefaultPageSize: 20, MaxPageSize: 200},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Server{
		rest: rest.NewHandler(sessions, cfg.limits, cfg.logger),
	}
}

// RegisterRoutes registers all API routes to the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	s.rest.RegisterRoutes(mux)
}
