package inventory

import (
	"sort"
	"strings"
	"sync"
)

// StrategyFIFO names the earliest-expiry-first selector.
const StrategyFIFO = "FIFO"

// Selector decides how much to take from each batch to satisfy required.
// Batches must already be in expiry order; selectors never reorder or mutate them.
type Selector interface {
	Select(batches []Batch, required int) (ReservationPlan, error)
}

type SelectorFunc func(batches []Batch, required int) (ReservationPlan, error)

func (f SelectorFunc) Select(batches []Batch, required int) (ReservationPlan, error) {
	return f(batches, required)
}

// EarliestExpiryFirst drains batches in the given order. The plan covers required
// exactly or an *InsufficientInventoryError is returned.
var EarliestExpiryFirst Selector = SelectorFunc(selectEarliestExpiryFirst)

func selectEarliestExpiryFirst(batches []Batch, required int) (ReservationPlan, error) {
	if required <= 0 {
		return ReservationPlan{}, ErrInvalidQuantity
	}

	remaining := required
	var allocations []Allocation
	for _, b := range batches {
		if remaining == 0 {
			break
		}
		if b.Quantity <= 0 {
			continue
		}
		take := min(remaining, b.Quantity)
		allocations = append(allocations, Allocation{BatchID: b.ID, Quantity: take})
		remaining -= take
	}

	if remaining > 0 {
		return ReservationPlan{}, &InsufficientInventoryError{
			Requested: required,
			Available: required - remaining,
		}
	}
	return ReservationPlan{Allocations: allocations}, nil
}

// Registry maps strategy names to selectors. Unknown names resolve to FIFO.
type Registry struct {
	mu        sync.RWMutex
	selectors map[string]Selector
}

func NewRegistry() *Registry {
	return &Registry{
		selectors: map[string]Selector{StrategyFIFO: EarliestExpiryFirst},
	}
}

func (r *Registry) Register(name string, s Selector) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selectors[normalize(name)] = s
}

func (r *Registry) Get(name string) Selector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.selectors[normalize(name)]; ok {
		return s
	}
	return r.selectors[StrategyFIFO]
}

// Has reports whether name is registered, without the FIFO fallback.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.selectors[normalize(name)]
	return ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.selectors))
	for n := range r.selectors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
