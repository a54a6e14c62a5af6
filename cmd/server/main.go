package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/ndewijer/invest-tracker/internal/api"
	"github.com/ndewijer/invest-tracker/internal/app"
	"github.com/ndewijer/invest-tracker/internal/config"
	"github.com/ndewijer/invest-tracker/internal/logger"
	"github.com/ndewijer/invest-tracker/internal/scheduler"
	"github.com/ndewijer/invest-tracker/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	zlog.Logger = log
	log.Info().Str("version", version.AppVersion).Msg("Starting invest-tracker")

	ctx := context.Background()
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	if cfg.Server.APIKey == "" {
		log.Warn().Msg("INTERNAL_API_KEY is not set, import, refresh and invalidate will be rejected")
	}

	// Daily refresh
	sched := scheduler.New(log)
	refreshJob := scheduler.NewRefreshJob(application.Refresh, time.Hour, log)
	if err := sched.AddJob(cfg.Refresh.Cron, refreshJob); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Refresh.Cron).Msg("Failed to register refresh job")
	}
	sched.Start()

	// Create router
	router := api.NewRouter(api.Services{
		System:   application.System,
		Accounts: application.Accounts,
		Ledger:   application.Ledger,
		Refresh:  application.Refresh,
	}, cfg, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // refresh runs synchronously
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	sched.Stop()

	log.Info().Msg("Server exited")
}
