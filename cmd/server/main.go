package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bankline/config"
	"bankline/internal/adapter/storage/jsonfile"
	pgStorage "bankline/internal/adapter/storage/postgres"
	"bankline/internal/adapter/tcp"
	"bankline/internal/core/ports"
	"bankline/internal/service"
	"bankline/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("addr", cfg.Server.Addr()).
		Str("backend", cfg.Storage.Backend).
		Msg("Starting bankline server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize persistence collaborator
	var store ports.Persistence
	switch cfg.Storage.Backend {
	case config.BackendJSONFile:
		store = jsonfile.NewStore(cfg.Storage.AccountsFile, cfg.Storage.JournalFile)
		log.Info().
			Str("accounts", cfg.Storage.AccountsFile).
			Str("journal", cfg.Storage.JournalFile).
			Msg("using JSON file storage")
	case config.BackendPostgres:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()

		pg := pgStorage.NewStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		store = pg
	}

	// Load accounts and build the shared ledger
	verifier := service.NewPlainTextVerifier()
	ledger, err := service.NewLedgerService(ctx, store, verifier, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger")
	}

	// Accept loop: one session goroutine per connection, all sharing the
	// ledger. Runs until SIGINT/SIGTERM, then drains active sessions.
	srv := tcp.NewServer(cfg.Server.Addr(), ledger, cfg.Server.ReadTimeout, cfg.Server.MaxFrameBytes, log)
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("Server exited")
}
