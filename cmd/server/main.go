package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tripmate/ledger/internal/api"
	"github.com/tripmate/ledger/internal/config"
	"github.com/tripmate/ledger/internal/policy"
	"github.com/tripmate/ledger/internal/service"
	"github.com/tripmate/ledger/internal/storage"
	"github.com/tripmate/ledger/internal/storage/postgres"
	"github.com/tripmate/ledger/internal/storage/sqlite"
	"github.com/tripmate/ledger/internal/trips"
	"github.com/tripmate/ledger/pkg/logging"
)

func main() {
	logging.Setup()
	cfg := config.Load()

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	directory := trips.New(store)
	clock := policy.SystemClock{}
	pol := policy.New(directory, clock).WithVoidWindow(cfg.VoidWindow)

	expenses := service.NewExpenseService(store, directory, pol, clock)
	settlements := service.NewSettlementService(store, pol, clock)
	queries := service.NewQueryService(store, directory, pol)

	router := api.NewRouter(api.NewHandlers(expenses, settlements, queries))

	addr := fmt.Sprintf(":%s", cfg.Port)
	slog.Info("Ledger server starting", "address", addr)
	if err := router.Run(addr); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// openStore picks Postgres when DATABASE_URL is set, sqlite otherwise.
func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.DatabaseURL != "" {
		slog.Info("Using Postgres storage")
		return postgres.New(cfg.DatabaseURL)
	}
	slog.Info("Using SQLite storage", "database", cfg.DBPath)
	return sqlite.New(cfg.DBPath)
}
