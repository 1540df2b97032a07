package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appinv "github.com/Zhima-Mochi/minishop-batches/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-batches/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-batches/internal/config"
	dominv "github.com/Zhima-Mochi/minishop-batches/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/seed"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-batches/internal/presentation/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadInventory(os.Getenv)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, cfg.Common)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.Logger()

	var repo dominv.Repository = memory.NewBatchRepository()
	if cfg.PGURL != "" {
		pool, err := postgres.Connect(ctx, cfg.PGURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.MigrateInventory(ctx, pool); err != nil {
			return err
		}
		repo = postgres.NewBatchRepository(pool)
		log.Info("batch_store_postgres")
	}

	if cfg.SeedFile != "" {
		n, err := seed.LoadFile(ctx, cfg.SeedFile, repo)
		if err != nil {
			return err
		}
		log.Info("inventory_seeded",
			observability.F("file", cfg.SeedFile),
			observability.F("batches", n),
		)
	}

	selectors := dominv.NewRegistry()
	if !selectors.Has(cfg.SelectionStrategy) {
		log.Warn("selection_strategy_unknown",
			observability.F("strategy", cfg.SelectionStrategy),
			observability.F("fallback", dominv.StrategyFIFO),
			observability.F("available", selectors.Names()),
		)
	}

	router := httppresentation.NewRouter(cfg.ServiceName, rt.Tel)
	httppresentation.NewInventoryHandler(
		appinv.NewGetInventoryUseCase(repo, rt.Tel),
		appinv.NewReserveInventoryUseCase(repo, selectors, cfg.SelectionStrategy, rt.Bus, rt.Tel),
	).Register(router)

	return rt.Serve(ctx, router)
}
