package order

import (
	"context"
	"errors"
	"time"
)

// Errors returned by InventoryPort implementations.
var (
	ErrInventoryNotFound    = errors.New("inventory port: product not found")
	ErrInventoryRejected    = errors.New("inventory port: request rejected")
	ErrInventoryUnavailable = errors.New("inventory port: service unavailable")
)

type InventoryBatch struct {
	BatchID    int64
	Quantity   int
	ExpiryDate time.Time
}

type InventoryView struct {
	ProductID   int64
	ProductName string
	Batches     []InventoryBatch
}

func (v *InventoryView) Total() int {
	total := 0
	for _, b := range v.Batches {
		total += b.Quantity
	}
	return total
}

type Reservation struct {
	BatchIDs []int64
	Message  string
}

// InventoryPort is the order service's view of the inventory service.
type InventoryPort interface {
	Inventory(ctx context.Context, productID int64) (*InventoryView, error)
	Reserve(ctx context.Context, productID int64, quantity int) (*Reservation, error)
}

// IdempotencyGuard keeps two concurrent requests with the same key from both placing an order.
type IdempotencyGuard interface {
	// Claim returns false when key is already held.
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
