package inventory

import (
	"strconv"
	"time"
)

// InventoryReservedEvent is emitted after a reservation has been applied to the batches.
type InventoryReservedEvent struct {
	ProductID   int64        `json:"productId"`
	Quantity    int          `json:"quantity"`
	Allocations []Allocation `json:"allocations"`
	Strategy    string       `json:"strategy"`
	OccurredAt  time.Time    `json:"occurredAt"`
}

func (InventoryReservedEvent) EventName() string { return "inventory.reserved" }

func (e InventoryReservedEvent) EventKey() string { return strconv.FormatInt(e.ProductID, 10) }

func NewInventoryReservedEvent(productID int64, strategy string, plan ReservationPlan, at time.Time) InventoryReservedEvent {
	return InventoryReservedEvent{
		ProductID:   productID,
		Quantity:    plan.Total(),
		Allocations: append([]Allocation(nil), plan.Allocations...),
		Strategy:    strategy,
		OccurredAt:  at.UTC(),
	}
}
