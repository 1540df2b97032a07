package httppresentation

import (
	"errors"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-batches/internal/application"
	appinv "github.com/Zhima-Mochi/minishop-batches/internal/application/inventory"
	dominv "github.com/Zhima-Mochi/minishop-batches/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-batches/internal/pkg/validate"
)

type batchResponse struct {
	BatchID    int64  `json:"batchId"`
	Quantity   int    `json:"quantity"`
	ExpiryDate string `json:"expiryDate"`
}

type inventoryResponse struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Batches     []batchResponse `json:"batches"`
}

type updateInventoryRequest struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

type updateInventoryResponse struct {
	ReservedBatchIDs []int64 `json:"reservedBatchIds"`
	Message          string  `json:"message"`
}

type InventoryHandler struct {
	get     application.UseCase[appinv.GetInventoryQuery, *appinv.InventoryView]
	reserve application.UseCase[appinv.ReserveInventoryInput, *appinv.ReserveInventoryResult]
}

func NewInventoryHandler(
	get application.UseCase[appinv.GetInventoryQuery, *appinv.InventoryView],
	reserve application.UseCase[appinv.ReserveInventoryInput, *appinv.ReserveInventoryResult],
) *InventoryHandler {
	return &InventoryHandler{get: get, reserve: reserve}
}

func (h *InventoryHandler) Register(rt *Router) {
	rt.Handle(http.MethodGet, "/inventory/{productId}", h.handleGet)
	rt.Handle(http.MethodPost, "/inventory/update", h.handleUpdate)
}

func (h *InventoryHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.get.Execute(r.Context(), appinv.GetInventoryQuery{ProductID: productID})
	if err != nil {
		writeInventoryError(w, r, err)
		return
	}

	resp := inventoryResponse{
		ProductID:   view.ProductID,
		ProductName: view.ProductName,
		Batches:     make([]batchResponse, 0, len(view.Batches)),
	}
	for _, b := range view.Batches {
		resp.Batches = append(resp.Batches, batchResponse{
			BatchID:    b.ID,
			Quantity:   b.Quantity,
			ExpiryDate: b.ExpiryDate.Format(time.DateOnly),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *InventoryHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.reserve.Execute(r.Context(), appinv.ReserveInventoryInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeInventoryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updateInventoryResponse{
		ReservedBatchIDs: nonNil(res.BatchIDs),
		Message:          res.Message,
	})
}

// writeInventoryError maps inventory use case errors to HTTP statuses.
func writeInventoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, dominv.ErrProductNotFound):
		status := http.StatusBadRequest
		if r.Method == http.MethodGet {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
	case errors.Is(err, dominv.ErrInsufficientInventory),
		errors.Is(err, dominv.ErrInsufficientQuantity),
		errors.Is(err, dominv.ErrBatchNotFound),
		errors.Is(err, dominv.ErrInvalidQuantity),
		errors.Is(err, validate.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logServerError(r, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
