package services

import (
	"context"
	"fmt"

	"github.com/gemexbase/gemex/internal/backend"
	"github.com/gemexbase/gemex/internal/codec"
	"github.com/gemexbase/gemex/internal/gateway"
	"github.com/gemexbase/gemex/internal/metadata"
	"github.com/gemexbase/gemex/internal/searchconf"
	"github.com/gemexbase/gemex/internal/server"
	"github.com/gemexbase/gemex/internal/session"
)

// LoadRegistry returns the schema named by schemaFile, the embedded one when empty.
func LoadRegistry(schemaFile string) (*searchconf.Registry, error) {
	if schemaFile == "" {
		return searchconf.Default()
	}
	return searchconf.LoadFile(schemaFile)
}

func (m *Manager) Init(ctx context.Context) error {
	registry, err := LoadRegistry(m.cfg.Search.SchemaFile)
	if err != nil {
		return fmt.Errorf("failed to load search schema: %w", err)
	}
	m.registry = registry
	m.logger.Info("Search schema loaded",
		"file", m.cfg.Search.SchemaFile,
		"entities", len(registry.Entities()),
	)

	client, err := backend.NewClient(m.cfg.Backend, registry)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}
	m.client = client

	m.codec = codec.New(registry, m.logger)
	deps := session.Deps{
		Codec:    m.codec,
		Backend:  client,
		Resolver: metadata.NewResolver(registry, client, m.cfg.Search.Resolver, m.logger),
		Logger:   m.logger,
	}
	m.sessions = session.NewStore(deps, m.cfg.Sessions)

	m.server = server.New(m.cfg.Server, m.logger)
	api := gateway.NewServer(m.sessions,
		gateway.WithLogger(m.logger),
		gateway.WithPageLimits(m.cfg.Search.DefaultPageSize, m.cfg.Search.MaxPageSize),
	)
	api.RegisterRoutes(m.server.HTTPMux())

	return ctx.Err()
}
