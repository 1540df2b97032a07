package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const inventorySchema = `
CREATE TABLE IF NOT EXISTS inventory_batch (
	batch_id     BIGINT PRIMARY KEY,
	product_id   BIGINT NOT NULL,
	product_name TEXT NOT NULL,
	quantity     INTEGER NOT NULL CHECK (quantity >= 0),
	expiry_date  DATE NOT NULL
);
CREATE INDEX IF NOT EXISTS inventory_batch_product_expiry_idx
	ON inventory_batch (product_id, expiry_date, batch_id);
`

const orderSchema = `
CREATE TABLE IF NOT EXISTS orders (
	order_id           BIGSERIAL PRIMARY KEY,
	product_id         BIGINT NOT NULL,
	product_name       TEXT NOT NULL,
	quantity           INTEGER NOT NULL,
	status             TEXT NOT NULL,
	order_date         DATE NOT NULL,
	reserved_batch_ids BIGINT[] NOT NULL DEFAULT '{}',
	idempotency_key    TEXT UNIQUE,
	created_at         TIMESTAMPTZ NOT NULL
);
`

// querier is implemented by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connect opens a pool and verifies the server is reachable.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

func MigrateInventory(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, inventorySchema); err != nil {
		return fmt.Errorf("postgres: migrate inventory_batch: %w", err)
	}
	return nil
}

func MigrateOrders(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, orderSchema); err != nil {
		return fmt.Errorf("postgres: migrate orders: %w", err)
	}
	return nil
}
