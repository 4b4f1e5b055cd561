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

	"villamedia/internal/config"
	"villamedia/internal/database"
	"villamedia/internal/email"
	"villamedia/internal/handlers"
	"villamedia/pkg/cache"
	"villamedia/pkg/logger"
)

var quietStartup bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&quietStartup, "quiet", os.Getenv("STARTUP_LOG_ACTIVE") == "false", "Skip the startup banner")
}

func runServe(cmd *cobra.Command, args []string) error {
	if !quietStartup {
		printSignature()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	go database.StartMaintenance(ctx, a.db, a.cfg.Database.Path,
		config.Duration(a.cfg.Database.MaintenanceInterval, time.Hour))

	appCache := cache.New(cache.Options{
		Enabled:   a.cfg.Cache.Enabled,
		MaxSizeMB: a.cfg.Cache.MaxCapacity,
		TTL:       config.Duration(a.cfg.Cache.TTL, cache.DefaultTTL),
	})
	defer appCache.Stop()

	relay := email.NewRelay(a.cfg.Email, nil)
	if !relay.Configured() {
		logger.LogWarn("RESEND_API_KEY is not set; /api/send-email will answer 500")
	}

	h := handlers.New(handlers.Deps{
		Config:     a.cfg,
		Reconciler: a.reconciler,
		Files:      a.files,
		Content:    a.content,
		Relay:      relay,
		Cache:      appCache,
		DB:         a.db,
	})
	defer h.Close()

	port := a.cfg.Server.Port
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      h.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.LogServerStart(port, a.cfg.GetBaseUrl())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.LogInfo("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		config.Duration(a.cfg.Server.ShutdownTimeout, 15*time.Second))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogWarn("graceful shutdown incomplete: %v", err)
	}
	logger.LogSuccess("Server stopped")
	return nil
}
