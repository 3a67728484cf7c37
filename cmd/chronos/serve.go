package main

import (
	"context"
	"net/http"
	"time"

	"chronos-reconciler/internal/infrastructure/router"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		log := a.log
		log.Info("Starting Chronos reconciler", "version", a.cfg.AppVersion, "store", a.cfg.StoreDriver)

		api := router.NewAPIRouter(a.reconciler, a.executor, a.runs, a.registry, a.cfg.AppVersion, log)

		server := &http.Server{
			Addr:         ":" + a.cfg.Port,
			Handler:      api,
			ReadTimeout:  a.cfg.ReadTimeout,
			WriteTimeout: a.cfg.WriteTimeout,
		}

		// Start HTTP server in a goroutine
		serverErr := make(chan error, 1)
		go func() {
			log.Info("Starting HTTP server", "port", a.cfg.Port)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErr <- err
			}
		}()

		// Wait for interrupt signal
		select {
		case err := <-serverErr:
			log.Error("HTTP server error", "error", err)
			return err
		case <-ctx.Done():
			log.Info("Shutdown requested")
		}

		// Graceful shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", "error", err)
		}

		log.Info("Chronos reconciler stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
