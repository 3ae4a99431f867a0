package services

import (
	"context"
	"errors"
)

// Start runs the HTTP server and the session sweeper in the background until
// bgCtx is canceled or Shutdown is called.
func (m *Manager) Start(bgCtx context.Context) error {
	if m.server == nil {
		return errors.New("services: Start called before Init")
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.server.Start(bgCtx); err != nil {
			m.logger.Error("HTTP server stopped with error", "error", err)
		}
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.sessions.Run(bgCtx)
	}()
	return nil
}
