package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-batches/internal/domain/inventory"
)

// batchSet is the unlocked batch map shared by the repository and its units of work.
type batchSet map[int64]*domain.Batch

func (s batchSet) listByProduct(productID int64) []domain.Batch {
	out := make([]domain.Batch, 0)
	for _, b := range s {
		if b.ProductID == productID {
			out = append(out, *b)
		}
	}
	domain.SortByExpiry(out)
	return out
}

func (s batchSet) get(id int64) (*domain.Batch, error) {
	b, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrBatchNotFound, id)
	}
	return b.Clone(), nil
}

func (s batchSet) save(b *domain.Batch) error {
	if b == nil {
		return nil
	}
	if _, ok := s[b.ID]; !ok {
		return fmt.Errorf("%w: %d", domain.ErrBatchNotFound, b.ID)
	}
	s[b.ID] = b.Clone()
	return nil
}

func (s batchSet) clone() batchSet {
	c := make(batchSet, len(s))
	for id, b := range s {
		c[id] = b.Clone()
	}
	return c
}

type BatchRepository struct {
	mu      sync.RWMutex
	batches batchSet
}

func NewBatchRepository() *BatchRepository {
	return &BatchRepository{
		batches: make(batchSet),
	}
}

func (r *BatchRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.Batch, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.batches.listByProduct(productID), nil
}

func (r *BatchRepository) Get(ctx context.Context, batchID int64) (*domain.Batch, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.batches.get(batchID)
}

func (r *BatchRepository) Save(ctx context.Context, b *domain.Batch) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.batches.save(b)
}

func (r *BatchRepository) Add(ctx context.Context, b *domain.Batch) error {
	_ = ctx
	if b == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.batches[b.ID]; exists {
		return nil
	}
	r.batches[b.ID] = b.Clone()
	return nil
}

// Atomically runs fn against a working copy and swaps it in only when fn succeeds.
func (r *BatchRepository) Atomically(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	work := r.batches.clone()
	if err := fn(ctx, batchTx{set: work}); err != nil {
		return err
	}
	r.batches = work
	return nil
}

type batchTx struct{ set batchSet }

func (t batchTx) ListByProduct(_ context.Context, productID int64) ([]domain.Batch, error) {
	return t.set.listByProduct(productID), nil
}

func (t batchTx) Get(_ context.Context, batchID int64) (*domain.Batch, error) {
	return t.set.get(batchID)
}

func (t batchTx) Save(_ context.Context, b *domain.Batch) error {
	return t.set.save(b)
}
