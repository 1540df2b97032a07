package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	dominv "github.com/Zhima-Mochi/minishop-batches/internal/domain/inventory"
)

var header = []string{"batch_id", "product_id", "product_name", "quantity", "expiry_date"}

// Adder receives parsed batches; dominv.Repository satisfies it.
type Adder interface {
	Add(ctx context.Context, b *dominv.Batch) error
}

// LoadFile reads a seed CSV from path. See Load for the format.
func LoadFile(ctx context.Context, path string, into Adder) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(ctx, f, into)
}

// Load parses CSV rows of batch_id,product_id,product_name,quantity,expiry_date (YYYY-MM-DD)
// after a header row and adds each batch. Existing batch ids are left unchanged.
func Load(ctx context.Context, r io.Reader, into Adder) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("seed: read header: %w", err)
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(head[i]), col) {
			return 0, fmt.Errorf("seed: column %d is %q, want %q", i+1, head[i], col)
		}
	}

	n := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("seed: read: %w", err)
		}
		line, _ := cr.FieldPos(0)

		b, err := parse(rec)
		if err != nil {
			return n, fmt.Errorf("seed: line %d: %w", line, err)
		}
		if err := into.Add(ctx, b); err != nil {
			return n, fmt.Errorf("seed: line %d: %w", line, err)
		}
		n++
	}
}

func parse(rec []string) (*dominv.Batch, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("batch_id: %w", err)
	}
	productID, err := strconv.ParseInt(strings.TrimSpace(rec[1]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("product_id: %w", err)
	}
	qty, err := strconv.Atoi(strings.TrimSpace(rec[3]))
	if err != nil {
		return nil, fmt.Errorf("quantity: %w", err)
	}
	expiry, err := time.Parse(time.DateOnly, strings.TrimSpace(rec[4]))
	if err != nil {
		return nil, fmt.Errorf("expiry_date: %w", err)
	}
	return dominv.NewBatch(id, productID, strings.TrimSpace(rec[2]), qty, expiry)
}
