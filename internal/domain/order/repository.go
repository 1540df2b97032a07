package order

import "context"

type Repository interface {
	// Insert assigns o.ID. It returns ErrConflict when o.IdempotencyKey is already stored.
	Insert(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id int64) (*Order, error)
	// FindByIdempotencyKey returns ErrNotFound when no order carries key.
	FindByIdempotencyKey(ctx context.Context, key string) (*Order, error)
}
