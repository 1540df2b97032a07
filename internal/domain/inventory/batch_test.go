package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_DeductReducesQuantity(t *testing.T) {
	b := &Batch{ID: 1, Quantity: 50}

	require.NoError(t, b.Deduct(20))
	assert.Equal(t, 30, b.Quantity)
}

func TestBatch_DeductBeyondQuantityLeavesBatchUntouched(t *testing.T) {
	b := &Batch{ID: 2, Quantity: 5}

	err := b.Deduct(6)

	assert.ErrorIs(t, err, ErrInsufficientQuantity)
	var insufficient *InsufficientQuantityError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(2), insufficient.BatchID)
	assert.Equal(t, 5, b.Quantity)
}

func TestBatch_DeductRejectsNonPositive(t *testing.T) {
	b := &Batch{ID: 3, Quantity: 5}

	assert.ErrorIs(t, b.Deduct(0), ErrInvalidQuantity)
	assert.Equal(t, 5, b.Quantity)
}

func TestNewBatch_Validates(t *testing.T) {
	expiry := time.Date(2026, 6, 25, 15, 4, 0, 0, time.FixedZone("X", 3600))

	b, err := NewBatch(1, 1001, "Laptop", 50, expiry)
	require.NoError(t, err)
	assert.Equal(t, date(2026, 6, 25), b.ExpiryDate)

	_, err = NewBatch(1, 1001, "Laptop", -1, expiry)
	assert.ErrorIs(t, err, ErrInvalidBatch)
	_, err = NewBatch(0, 1001, "Laptop", 1, expiry)
	assert.ErrorIs(t, err, ErrInvalidBatch)
	_, err = NewBatch(1, 1001, "Laptop", 1, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidBatch)
}

func TestSortByExpiry_TiesBrokenByID(t *testing.T) {
	batches := []Batch{
		{ID: 9, ExpiryDate: date(2026, 7, 1)},
		{ID: 4, ExpiryDate: date(2026, 7, 1)},
		{ID: 5, ExpiryDate: date(2026, 5, 1)},
	}

	SortByExpiry(batches)

	ids := []int64{batches[0].ID, batches[1].ID, batches[2].ID}
	assert.Equal(t, []int64{5, 4, 9}, ids)
}
