package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"pajal/api"
	"pajal/auth"
	"pajal/internal"
	"pajal/projection"
	"pajal/repositories"
	"pajal/runtime"
	"pajal/runtime/workers"
	"pajal/services"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns their lifecycle, so deferred cleanup
// runs before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	location, err := config.Location()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// 2. Storage (BadgerDB, or memory when no path is set)
	var store repositories.IStore = repositories.NewMemoryStore()
	if config.BadgerFilepath != "" {
		db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		store = repositories.NewBadgerStore(db)
	} else {
		log.Warn("BADGER_FILEPATH not set, state will not survive a restart")
	}
	repository := repositories.NewStateRepository(store, log)

	index, err := repositories.NewClassIndex(config.SearchLimit)
	if err != nil {
		return fmt.Errorf("search index failed: %w", err)
	}
	defer func() { _ = index.Close() }()

	// 3. Core
	hasher := auth.NewHasher(auth.DefaultParams)
	registry := runtime.NewRegistry(log, config.LeadTime, config.SoonWindow, location)
	accounts := services.NewAccountService(log, hasher, repository, registry)
	feed := projection.NewNotificationFeed(log)
	clock := runtime.NewClock(time.Now().In(location))
	orchestrator := runtime.NewOrchestrator(log, clock, registry, feed, accounts, index, repository)

	loader := runtime.NewStateLoader(log, repository, hasher, config.SeedOnEmpty, config.SoonWindow)
	orchestrator.Load(loader.Load(clock.Now()))
	// Catch up on transitions that happened while the service was down.
	orchestrator.Tick(context.Background(), 0)
	if err = orchestrator.Persist(context.Background()); err != nil {
		log.Error("Initial save failed", "error", err)
	}

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewClockWorker(log, orchestrator, config.TickInterval, config.TickStep),
		workers.NewPersistWorker(log, orchestrator, config.PersistDebounce),
	)
	supervised := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supervised)
	}()

	// 6. HTTP Server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           api.NewServer(log, orchestrator).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", clock.Now())
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err = <-errChan:
		sup.Stop()
		<-supervised
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown failed", "error", err)
	}
	sup.Stop()
	<-supervised
	log.Info("Program stopped cleanly")
	return nil
}
