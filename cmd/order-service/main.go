package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	apporder "github.com/Zhima-Mochi/minishop-batches/internal/application/order"
	"github.com/Zhima-Mochi/minishop-batches/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-batches/internal/config"
	domorder "github.com/Zhima-Mochi/minishop-batches/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/idempotency"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/inventoryclient"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/postgres"
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
	cfg, err := config.LoadOrder(os.Getenv)
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

	var orders domorder.Repository = memory.NewOrderRepository()
	if cfg.PGURL != "" {
		pool, err := postgres.Connect(ctx, cfg.PGURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.MigrateOrders(ctx, pool); err != nil {
			return err
		}
		orders = postgres.NewOrderRepository(pool)
		log.Info("order_store_postgres")
	}

	var guard apporder.IdempotencyGuard = idempotency.NewMemoryGuard(cfg.IdempotencyTTL)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		guard = idempotency.NewRedisGuard(rdb, cfg.IdempotencyTTL)
		log.Info("idempotency_guard_redis", observability.F("addr", cfg.RedisAddr))
	}

	inventory := inventoryclient.New(cfg.InventoryURL, cfg.InventoryTimeout)

	router := httppresentation.NewRouter(cfg.ServiceName, rt.Tel)
	httppresentation.NewOrderHandler(
		apporder.NewPlaceOrderUseCase(orders, inventory, guard, rt.Bus, rt.Tel),
		apporder.NewGetOrderUseCase(orders, rt.Tel),
	).Register(router)

	return rt.Serve(ctx, router)
}
