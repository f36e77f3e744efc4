package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/surfcat/gasdb/internal/app"
	"github.com/surfcat/gasdb/internal/metrics"
	chiTransport "github.com/surfcat/gasdb/internal/transport/chi"
	"github.com/surfcat/gasdb/internal/version"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var noPurge bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := root.start(cmd, true)
			if err != nil {
				return err
			}
			return s.finish(runServe(s, !noPurge))
		},
	}
	cmd.Flags().BoolVar(&noPurge, "no-purge", false, "disable POST /v1/purge")
	return cmd
}

func runServe(s *session, allowPurge bool) error {
	cfg := s.cfg
	s.logger.Info("Starting gasdb API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	a, err := app.Open(s.ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	metrics.Register()

	var purge chiTransport.PurgeService
	if allowPurge {
		purge = a.Purge
	}
	server := chiTransport.NewServer(a.Catalog, a.Coverage, purge, a.Health, chiTransport.Defaults{
		Calculator: cfg.Reconcile.Calculator,
		Model:      cfg.Reconcile.Model,
		Rotations:  a.Rotations(),
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chiTransport.NewRouter(server, cfg.Auth.APIKeys, s.logger),
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-s.ctx.Done():
		s.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("Server stopped gracefully")
	return nil
}
