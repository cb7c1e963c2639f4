package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"aegis/internal/api"
	"aegis/internal/banner"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			banner.Print(os.Stderr, version)

			// Create a context that is canceled on SIGINT or SIGTERM.
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			cfg := a.Config
			if port != "" {
				cfg.HTTPPort = port
			}
			log.Printf("history store ready (%s)", cfg.DatabaseDriver)

			server := api.NewServer(cfg.HTTPPort, a.Engine, api.RouterOptions{
				Metrics:      a.Metrics.Handler(),
				BatchWorkers: cfg.MaxConcurrency,
				HistoryLimit: cfg.HistoryLimit,
			})
			errc := server.Start()

			select {
			case <-ctx.Done():
			case err := <-errc:
				if err != nil {
					return fmt.Errorf("could not start HTTP server: %w", err)
				}
			}

			log.Println("shutdown signal received, starting graceful shutdown...")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
			defer shutdownCancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http server shutdown error: %w", err)
			}
			log.Println("application shut down gracefully")
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (env HTTP_PORT)")
	return cmd
}
