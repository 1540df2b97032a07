package order

import (
	"strconv"
	"time"
)

// OrderPlacedEvent is emitted once a placed order has been persisted.
type OrderPlacedEvent struct {
	OrderID          int64     `json:"orderId"`
	ProductID        int64     `json:"productId"`
	Quantity         int       `json:"quantity"`
	ReservedBatchIDs []int64   `json:"reservedBatchIds"`
	OccurredAt       time.Time `json:"occurredAt"`
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func (e OrderPlacedEvent) EventKey() string { return strconv.FormatInt(e.OrderID, 10) }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:          o.ID,
		ProductID:        o.ProductID,
		Quantity:         o.Quantity,
		ReservedBatchIDs: append([]int64(nil), o.ReservedBatchIDs...),
		OccurredAt:       o.CreatedAt,
	}
}
