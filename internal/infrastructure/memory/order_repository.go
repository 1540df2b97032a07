package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-batches/internal/domain/order"
)

type OrderRepository struct {
	mu          sync.RWMutex
	seq         int64
	orders      map[int64]*domain.Order
	idempotency map[string]int64
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:      make(map[int64]*domain.Order),
		idempotency: make(map[string]int64),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil {
		return fmt.Errorf("order repository: order is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if key := order.IdempotencyKey; key != "" {
		if _, exists := r.idempotency[key]; exists {
			return domain.ErrConflict
		}
	}

	r.seq++
	order.ID = r.seq
	r.orders[order.ID] = order.Clone()
	if key := order.IdempotencyKey; key != "" {
		r.idempotency[key] = order.ID
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	_ = ctx
	if key == "" {
		return nil, domain.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.idempotency[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.orders[id].Clone(), nil
}
