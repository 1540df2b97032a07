package httppresentation

import (
	"errors"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-batches/internal/application"
	apporder "github.com/Zhima-Mochi/minishop-batches/internal/application/order"
	domorder "github.com/Zhima-Mochi/minishop-batches/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-batches/internal/pkg/validate"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	// headerReplayed marks a response answered from an order stored under the same key.
	headerReplayed = "Idempotent-Replayed"
)

type placeOrderRequest struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

type placeOrderResponse struct {
	OrderID              int64   `json:"orderId"`
	ProductID            int64   `json:"productId"`
	ProductName          string  `json:"productName"`
	Quantity             int     `json:"quantity"`
	Status               string  `json:"status"`
	ReservedFromBatchIDs []int64 `json:"reservedFromBatchIds"`
	Message              string  `json:"message"`
}

type orderResponse struct {
	OrderID              int64   `json:"orderId"`
	ProductID            int64   `json:"productId"`
	ProductName          string  `json:"productName"`
	Quantity             int     `json:"quantity"`
	Status               string  `json:"status"`
	ReservedFromBatchIDs []int64 `json:"reservedFromBatchIds"`
	OrderDate            string  `json:"orderDate"`
}

type OrderHandler struct {
	place application.UseCase[apporder.PlaceOrderInput, *apporder.PlaceOrderResult]
	get   application.UseCase[int64, *domorder.Order]
}

func NewOrderHandler(
	place application.UseCase[apporder.PlaceOrderInput, *apporder.PlaceOrderResult],
	get application.UseCase[int64, *domorder.Order],
) *OrderHandler {
	return &OrderHandler{place: place, get: get}
}

func (h *OrderHandler) Register(rt *Router) {
	rt.Handle(http.MethodPost, "/order", h.handlePlace)
	rt.Handle(http.MethodGet, "/order/{orderId}", h.handleGet)
}

func (h *OrderHandler) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.place.Execute(r.Context(), apporder.PlaceOrderInput{
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		IdempotencyKey: r.Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	if res.Replayed {
		w.Header().Set(headerReplayed, "true")
	}
	o := res.Order
	writeJSON(w, http.StatusOK, placeOrderResponse{
		OrderID:              o.ID,
		ProductID:            o.ProductID,
		ProductName:          o.ProductName,
		Quantity:             o.Quantity,
		Status:               string(o.Status),
		ReservedFromBatchIDs: nonNil(res.ReservedBatchIDs),
		Message:              res.Message,
	})
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.get.Execute(r.Context(), id)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{
		OrderID:              o.ID,
		ProductID:            o.ProductID,
		ProductName:          o.ProductName,
		Quantity:             o.Quantity,
		Status:               string(o.Status),
		ReservedFromBatchIDs: nonNil(o.ReservedBatchIDs),
		OrderDate:            o.OrderDate.Format(time.DateOnly),
	})
}

// writeOrderError maps order use case errors to HTTP statuses.
func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apporder.ErrInvalidRequest),
		errors.Is(err, validate.ErrInvalid),
		errors.Is(err, apporder.ErrProductNotFound),
		errors.Is(err, apporder.ErrInsufficientInventory):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apporder.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apporder.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apporder.ErrReservationFailed),
		errors.Is(err, apporder.ErrDownstreamUnavailable):
		logServerError(r, err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		logServerError(r, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
