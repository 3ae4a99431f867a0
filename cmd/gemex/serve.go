package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gemexbase/gemex/internal/config"
	"github.com/gemexbase/gemex/internal/logging"
	"github.com/gemexbase/gemex/internal/services"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "Start the HTTP API",
		GroupID: "server",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configDir)
			if err != nil {
				return err
			}
			if opts.schemaFile != "" {
				cfg.Search.SchemaFile = opts.schemaFile
			}

			if err := logging.Initialize(cfg.Logging); err != nil {
				return err
			}
			defer func() { _ = logging.Shutdown() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mgr := services.NewManager(cfg, slog.Default())
			if err := mgr.Init(ctx); err != nil {
				return err
			}
			if err := mgr.Start(ctx); err != nil {
				return err
			}
			slog.Info("GEMEX started", "host", cfg.Server.Host, "port", cfg.Server.HTTPPort, "backend", cfg.Backend.BaseURL)

			<-ctx.Done()
			slog.Info("Shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			mgr.Shutdown(shutdownCtx)
			slog.Info("GEMEX stopped")
			return nil
		},
	}
}
