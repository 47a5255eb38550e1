package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cueline/cueline/internal/config"
	"github.com/cueline/cueline/internal/db"
	"github.com/cueline/cueline/internal/logger"
	"github.com/cueline/cueline/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet, fall back to stderr
		println("failed to load configuration:", err.Error())
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)
	logger.Log.Info().Msg("Starting cueline")

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("Failed to open database")
	}

	sqlDB, err := database.GetSQLDB()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to access underlying database connection")
	}
	if err := db.RunMigrations(sqlDB, "file://./migrations"); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	srv, err := server.New(cfg, database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Log.Error().Err(err).Msg("Server exited with error")
		}
	case sig := <-quit:
		logger.Log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	if err := database.Close(); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to close database")
	}

	logger.Log.Info().Msg("cueline stopped")
}
