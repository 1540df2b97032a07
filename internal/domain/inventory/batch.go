package inventory

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrProductNotFound       = errors.New("inventory: product not found")
	ErrBatchNotFound         = errors.New("inventory: batch not found")
	ErrInvalidBatch          = errors.New("inventory: invalid batch")
	ErrInvalidQuantity       = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientInventory = errors.New("inventory: insufficient inventory")
	ErrInsufficientQuantity  = errors.New("inventory: insufficient quantity in batch")
)

// InsufficientInventoryError reports a request the product's batches cannot cover in full.
type InsufficientInventoryError struct {
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("Insufficient inventory. Required: %d, Available: %d", e.Requested, e.Available)
}

func (e *InsufficientInventoryError) Is(target error) bool { return target == ErrInsufficientInventory }

// InsufficientQuantityError reports a batch that shrank below its planned deduction.
type InsufficientQuantityError struct {
	BatchID   int64
	Available int
	Requested int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("Insufficient quantity in batch %d: available %d, requested %d", e.BatchID, e.Available, e.Requested)
}

func (e *InsufficientQuantityError) Is(target error) bool { return target == ErrInsufficientQuantity }

// Batch is a quantity of one product sharing an expiry date.
type Batch struct {
	ID          int64
	ProductID   int64
	ProductName string
	Quantity    int
	ExpiryDate  time.Time
}

func NewBatch(id, productID int64, productName string, quantity int, expiry time.Time) (*Batch, error) {
	switch {
	case id <= 0:
		return nil, fmt.Errorf("%w: batch id %d", ErrInvalidBatch, id)
	case productID <= 0:
		return nil, fmt.Errorf("%w: product id %d", ErrInvalidBatch, productID)
	case quantity < 0:
		return nil, fmt.Errorf("%w: negative quantity %d", ErrInvalidBatch, quantity)
	case expiry.IsZero():
		return nil, fmt.Errorf("%w: missing expiry date", ErrInvalidBatch)
	}
	return &Batch{
		ID:          id,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		ExpiryDate:  DateOf(expiry),
	}, nil
}

// Deduct removes quantity from the batch, leaving it untouched on error.
func (b *Batch) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > b.Quantity {
		return &InsufficientQuantityError{BatchID: b.ID, Available: b.Quantity, Requested: quantity}
	}
	b.Quantity -= quantity
	return nil
}

func (b *Batch) Clone() *Batch {
	c := *b
	return &c
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortByExpiry orders batches by expiry date ascending, ties broken by batch id.
func SortByExpiry(batches []Batch) {
	slices.SortStableFunc(batches, func(a, b Batch) int {
		if c := a.ExpiryDate.Compare(b.ExpiryDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// TotalQuantity sums the non-negative quantities of batches.
func TotalQuantity(batches []Batch) int {
	total := 0
	for _, b := range batches {
		if b.Quantity > 0 {
			total += b.Quantity
		}
	}
	return total
}
