package services

import (
	"context"
)

// Shutdown stops the HTTP server, waits for the background tasks and
// releases the backend client. The context passed to Start must be canceled
// first for the sweeper to return.
func (m *Manager) Shutdown(ctx context.Context) {
	if m.server != nil {
		if err := m.server.Stop(ctx); err != nil {
			m.logger.Warn("Error shutting down HTTP server", "error", err)
		}
	}

	m.logger.Info("Waiting for background tasks to finish")
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Background tasks finished")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for background tasks")
	}

	if m.client != nil {
		if err := m.client.Close(); err != nil {
			m.logger.Warn("Error closing backend client", "error", err)
		}
	}
}
