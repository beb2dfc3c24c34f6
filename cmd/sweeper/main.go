package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/budgetbook/backend/internal/config"
	identityFB "github.com/budgetbook/backend/internal/identity/firebase"
	"github.com/budgetbook/backend/internal/lifecycle"
	"github.com/budgetbook/backend/internal/logger"
	storeFS "github.com/budgetbook/backend/internal/store/firestore"
)

func main() {
	cfg := config.Load()

	once := flag.Bool("once", false, "run a single sweep cycle and exit (for external schedulers)")
	flag.Parse()

	// Initialize logger
	log := logger.New("sweeper")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the document store
	st, err := storeFS.New(ctx, cfg.ProjectID, cfg.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Firestore store")
	}
	defer st.Close()

	// Initialize the identity service
	ids, err := identityFB.New(ctx, cfg.ProjectID, cfg.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Firebase identity service")
	}

	svc := lifecycle.New(st, ids, log)
	sweeper := lifecycle.NewSweeper(svc, cfg.InactivityWindow, cfg.SweepConcurrency, log)

	log.Info().
		Dur("window", cfg.InactivityWindow).
		Int("concurrency", cfg.SweepConcurrency).
		Msg("Starting inactivity sweeper")

	if *once {
		sweeper.Run(ctx)
		return
	}

	// Run one cycle immediately, then on the configured cadence. Run never
	// returns an error, so a bad cycle cannot stop the schedule.
	sweeper.Run(ctx)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			sweeper.Run(ctx)
		case <-quit:
			log.Info().Msg("Shutting down sweeper...")
			cancel()
			log.Info().Msg("Sweeper exited")
			return
		}
	}
}
