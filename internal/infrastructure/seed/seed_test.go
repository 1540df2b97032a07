package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dominv "github.com/Zhima-Mochi/minishop-batches/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/memory"
)

func TestLoad_AddsBatches(t *testing.T) {
	repo := memory.NewBatchRepository()
	csv := `batch_id,product_id,product_name,quantity,expiry_date
# laptops
1,1001,Laptop,50,2026-06-25
2,1001,Laptop,30,2026-07-15
3,1002,"Smartphone, 128GB",12,2026-03-31
`

	n, err := Load(context.Background(), strings.NewReader(csv), repo)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	batches, err := repo.ListByProduct(context.Background(), 1001)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC), batches[0].ExpiryDate)

	phones, err := repo.ListByProduct(context.Background(), 1002)
	require.NoError(t, err)
	assert.Equal(t, "Smartphone, 128GB", phones[0].ProductName)
}

func TestLoad_RejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"bad header":   "id,product,name,qty,expiry\n",
		"bad date":     "batch_id,product_id,product_name,quantity,expiry_date\n1,1001,Laptop,5,25/06/2026\n",
		"negative qty": "batch_id,product_id,product_name,quantity,expiry_date\n1,1001,Laptop,-5,2026-06-25\n",
		"short row":    "batch_id,product_id,product_name,quantity,expiry_date\n1,1001,Laptop\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(context.Background(), strings.NewReader(input), memory.NewBatchRepository())
			assert.Error(t, err)
		})
	}
}

func TestLoad_NegativeQuantityIsInvalidBatch(t *testing.T) {
	input := "batch_id,product_id,product_name,quantity,expiry_date\n1,1001,Laptop,-5,2026-06-25\n"

	_, err := Load(context.Background(), strings.NewReader(input), memory.NewBatchRepository())

	assert.ErrorIs(t, err, dominv.ErrInvalidBatch)
}

func TestLoad_EmptyInput(t *testing.T) {
	n, err := Load(context.Background(), strings.NewReader(""), memory.NewBatchRepository())

	require.NoError(t, err)
	assert.Zero(t, n)
}
