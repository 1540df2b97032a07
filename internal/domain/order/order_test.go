package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlaced_SetsStatusAndDate(t *testing.T) {
	now := time.Date(2025, 3, 9, 23, 30, 0, 0, time.FixedZone("PST", -8*3600))
	ids := []int64{1, 2}

	o, err := NewPlaced(1001, "Laptop", 60, ids, now)

	require.NoError(t, err)
	assert.Equal(t, StatusPlaced, o.Status)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), o.OrderDate)
	assert.Equal(t, []int64{1, 2}, o.ReservedBatchIDs)

	ids[0] = 99
	assert.Equal(t, int64(1), o.ReservedBatchIDs[0])
}

func TestNewPlaced_Validates(t *testing.T) {
	_, err := NewPlaced(0, "", 1, nil, time.Now())
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = NewPlaced(1001, "Laptop", 0, nil, time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestOrder_CloneCopiesBatchIDs(t *testing.T) {
	o := &Order{ID: 1, ReservedBatchIDs: []int64{3}}

	c := o.Clone()
	c.ReservedBatchIDs[0] = 4

	assert.Equal(t, int64(3), o.ReservedBatchIDs[0])
}
