package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/Zhima-Mochi/minishop-batches/internal/domain/order"
)

const (
	orderColumns    = `order_id, product_id, product_name, quantity, status, order_date, reserved_batch_ids, idempotency_key, created_at`
	uniqueViolation = "23505"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	if o == nil {
		return fmt.Errorf("order repository: order is required")
	}
	var key *string
	if o.IdempotencyKey != "" {
		key = &o.IdempotencyKey
	}
	batchIDs := o.ReservedBatchIDs
	if batchIDs == nil {
		batchIDs = []int64{}
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO orders (product_id, product_name, quantity, status, order_date, reserved_batch_ids, idempotency_key, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING order_id`,
		o.ProductID, o.ProductName, o.Quantity, string(o.Status), o.OrderDate, batchIDs, key, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrConflict
		}
		return fmt.Errorf("postgres: insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id)
}

func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key)
}

func (r *OrderRepository) findOne(ctx context.Context, sql string, arg any) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
		key    *string
	)
	err := r.pool.QueryRow(ctx, sql, arg).Scan(
		&o.ID, &o.ProductID, &o.ProductName, &o.Quantity, &status,
		&o.OrderDate, &o.ReservedBatchIDs, &key, &o.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find order: %w", err)
	}
	o.Status = domain.Status(status)
	if key != nil {
		o.IdempotencyKey = *key
	}
	return &o, nil
}
