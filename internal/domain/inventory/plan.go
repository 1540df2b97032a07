package inventory

// Allocation is the quantity planned to be taken from one batch.
type Allocation struct {
	BatchID  int64 `json:"batchId"`
	Quantity int   `json:"quantity"`
}

// ReservationPlan lists allocations in the order they are applied. It is never persisted.
type ReservationPlan struct {
	Allocations []Allocation
}

func (p ReservationPlan) Total() int {
	total := 0
	for _, a := range p.Allocations {
		total += a.Quantity
	}
	return total
}

// Quantity returns the amount planned for batchID, or zero.
func (p ReservationPlan) Quantity(batchID int64) int {
	for _, a := range p.Allocations {
		if a.BatchID == batchID {
			return a.Quantity
		}
	}
	return 0
}

func (p ReservationPlan) AsMap() map[int64]int {
	m := make(map[int64]int, len(p.Allocations))
	for _, a := range p.Allocations {
		m[a.BatchID] = a.Quantity
	}
	return m
}

func (p ReservationPlan) BatchIDs() []int64 {
	ids := make([]int64, 0, len(p.Allocations))
	for _, a := range p.Allocations {
		ids = append(ids, a.BatchID)
	}
	return ids
}
