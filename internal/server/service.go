package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
)

type serverImpl struct {
	cfg    Config
	logger *slog.Logger
	mux    *http.ServeMux
	cors   *corsPolicy

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// New creates the HTTP service. Routes are registered on HTTPMux before
// Start.
func New(cfg Config, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &serverImpl{
		cfg:    cfg,
		logger: logger.With("component", "server"),
		mux:    http.NewServeMux(),
		cors:   newCORSPolicy(cfg),
	}
}

// listen binds the configured address and prepares the http.Server.
func (s *serverImpl) listen() (*http.Server, net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return nil, nil, errors.New("server already started")
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.HTTPPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("http listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.wrapMiddleware(s.mux),
		ReadTimeout:  s.cfg.HTTPReadTimeout,
		WriteTimeout: s.cfg.HTTPWriteTimeout,
		IdleTimeout:  s.cfg.HTTPIdleTimeout,
	}
	return s.httpServer, ln, nil
}

func (s *serverImpl) Start(ctx context.Context) error {
	srv, ln, err := s.listen()
	if err != nil {
		return err
	}

	served := make(chan error, 1)
	go func() {
		s.logger.Info("Serving search API", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			served <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (s *serverImpl) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logger.Info("Stopping HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *serverImpl) RegisterHTTPHandler(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

func (s *serverImpl) HTTPMux() *http.ServeMux {
	return s.mux
}

func (s *serverImpl) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
