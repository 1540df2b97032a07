package inventory

import (
	"context"
)

// Store reads and writes batches. ListByProduct returns batches ordered by expiry, then id,
// and an empty slice for unknown products.
type Store interface {
	ListByProduct(ctx context.Context, productID int64) ([]Batch, error)
	Get(ctx context.Context, batchID int64) (*Batch, error)
	Save(ctx context.Context, b *Batch) error
}

// Repository is the batch store plus a unit of work. Writes made through the Store passed
// to fn are kept only when fn returns nil.
type Repository interface {
	Store
	Atomically(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	// Add inserts b unless a batch with the same id already exists.
	Add(ctx context.Context, b *Batch) error
}
