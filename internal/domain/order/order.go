package order

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
	ErrInvalidProduct  = errors.New("order: product id must be greater than zero")
	ErrConflict        = errors.New("order: idempotency key already used")
)

type Status string

const (
	StatusPlaced Status = "PLACED"
)

type Order struct {
	ID               int64
	ProductID        int64
	ProductName      string
	Quantity         int
	Status           Status
	ReservedBatchIDs []int64
	IdempotencyKey   string
	OrderDate        time.Time
	CreatedAt        time.Time
}

// NewPlaced builds an order for a reservation that has already succeeded. The id is
// assigned by the repository on insert.
func NewPlaced(productID int64, productName string, quantity int, batchIDs []int64, now time.Time) (*Order, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidProduct, productID)
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	now = now.UTC()
	y, m, d := now.Date()
	return &Order{
		ProductID:        productID,
		ProductName:      productName,
		Quantity:         quantity,
		Status:           StatusPlaced,
		ReservedBatchIDs: append([]int64(nil), batchIDs...),
		OrderDate:        time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		CreatedAt:        now,
	}, nil
}

func (o *Order) Clone() *Order {
	c := *o
	c.ReservedBatchIDs = append([]int64(nil), o.ReservedBatchIDs...)
	return &c
}
