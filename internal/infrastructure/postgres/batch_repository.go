package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/Zhima-Mochi/minishop-batches/internal/domain/inventory"
)

const batchColumns = `batch_id, product_id, product_name, quantity, expiry_date`

type BatchRepository struct {
	pool *pgxpool.Pool
	batchStore
}

func NewBatchRepository(pool *pgxpool.Pool) *BatchRepository {
	return &BatchRepository{pool: pool, batchStore: batchStore{q: pool}}
}

func (r *BatchRepository) Add(ctx context.Context, b *domain.Batch) error {
	if b == nil {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO inventory_batch (`+batchColumns+`) VALUES ($1,$2,$3,$4,$5) ON CONFLICT (batch_id) DO NOTHING`,
		b.ID, b.ProductID, b.ProductName, b.Quantity, b.ExpiryDate)
	if err != nil {
		return fmt.Errorf("postgres: insert batch %d: %w", b.ID, err)
	}
	return nil
}

// Atomically runs fn in a transaction at the default isolation level. Batches read with
// Get inside fn are row-locked until commit, so the deduction check sees the current quantity.
func (r *BatchRepository) Atomically(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, batchStore{q: tx, forUpdate: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// batchStore implements domain.Store over a pool or a transaction.
type batchStore struct {
	q querier
	// forUpdate locks rows returned by Get; only valid inside a transaction.
	forUpdate bool
}

func (s batchStore) ListByProduct(ctx context.Context, productID int64) ([]domain.Batch, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+batchColumns+` FROM inventory_batch WHERE product_id = $1 ORDER BY expiry_date, batch_id`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list batches: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Batch, 0)
	for rows.Next() {
		var b domain.Batch
		if err := rows.Scan(&b.ID, &b.ProductID, &b.ProductName, &b.Quantity, &b.ExpiryDate); err != nil {
			return nil, fmt.Errorf("postgres: scan batch: %w", err)
		}
		b.ExpiryDate = domain.DateOf(b.ExpiryDate)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list batches: %w", err)
	}
	return out, nil
}

func (s batchStore) Get(ctx context.Context, batchID int64) (*domain.Batch, error) {
	sql := `SELECT ` + batchColumns + ` FROM inventory_batch WHERE batch_id = $1`
	if s.forUpdate {
		sql += ` FOR UPDATE`
	}
	var b domain.Batch
	err := s.q.QueryRow(ctx, sql, batchID).
		Scan(&b.ID, &b.ProductID, &b.ProductName, &b.Quantity, &b.ExpiryDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrBatchNotFound, batchID)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get batch %d: %w", batchID, err)
	}
	b.ExpiryDate = domain.DateOf(b.ExpiryDate)
	return &b, nil
}

// Save writes the quantity only; the other columns never change after seeding.
func (s batchStore) Save(ctx context.Context, b *domain.Batch) error {
	if b == nil {
		return nil
	}
	tag, err := s.q.Exec(ctx, `UPDATE inventory_batch SET quantity = $2 WHERE batch_id = $1`, b.ID, b.Quantity)
	if err != nil {
		return fmt.Errorf("postgres: update batch %d: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", domain.ErrBatchNotFound, b.ID)
	}
	return nil
}
