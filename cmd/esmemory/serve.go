package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/esmemory/internal/transport/chi"
	"github.com/kailas-cloud/esmemory/internal/version"
)

func serveCmd(env *string) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(*env)
			if err != nil {
				return err
			}
			defer a.Close()
			if port > 0 {
				a.cfg.HTTP.Port = port
			}
			return serve(cmd.Context(), a, *env)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "override http.port from config")
	return cmd
}

func serve(ctx context.Context, a *app, env string) error {
	logger := a.logger
	cfg := a.cfg
	logger.Info("Starting esmemory API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("index_prefix", cfg.Elasticsearch.IndexPrefix),
	)

	if err := a.wire(ctx); err != nil {
		return err
	}

	handler := chiTransport.NewRouter(chiTransport.RouterConfig{
		Memory:  a.memory,
		Batch:   a.batch,
		Health:  a.health,
		APIKeys: cfg.Auth.APIKeys,
		Logger:  logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
