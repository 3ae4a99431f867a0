// Package services wires the gemex components together and runs them.
package services

import (
	"log/slog"
	"sync"

	"github.com/gemexbase/gemex/internal/backend"
	"github.com/gemexbase/gemex/internal/codec"
	"github.com/gemexbase/gemex/internal/config"
	"github.com/gemexbase/gemex/internal/searchconf"
	"github.com/gemexbase/gemex/internal/server"
	"github.com/gemexbase/gemex/internal/session"
)

type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	registry *searchconf.Registry
	codec    *codec.Codec
	client   *backend.Client
	sessions *session.Store
	server   server.Service

	wg sync.WaitGroup
}

func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger.With("component", "services"),
	}
}

// Registry returns the search schema, nil before Init.
func (m *Manager) Registry() *searchconf.Registry {
	return m.registry
}

// Sessions returns the session store, nil before Init.
func (m *Manager) Sessions() *session.Store {
	return m.sessions
}

// Addr returns the HTTP listen address once started.
func (m *Manager) Addr() string {
	if m.server == nil {
		return ""
	}
	return m.server.Addr()
}
