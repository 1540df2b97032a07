package inventoryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	apporder "github.com/Zhima-Mochi/minishop-batches/internal/application/order"
)

const maxErrorBody = 4 << 10

type batchDTO struct {
	BatchID    int64  `json:"batchId"`
	Quantity   int    `json:"quantity"`
	ExpiryDate string `json:"expiryDate"`
}

type inventoryDTO struct {
	ProductID   int64      `json:"productId"`
	ProductName string     `json:"productName"`
	Batches     []batchDTO `json:"batches"`
}

type updateRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type updateResponse struct {
	ReservedBatchIDs []int64 `json:"reservedBatchIds"`
	Message          string  `json:"message"`
}

type errorDTO struct {
	Error string `json:"error"`
}

var _ apporder.InventoryPort = (*Client)(nil)

// Client calls the inventory service over HTTP. Each call is a single attempt.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

func (c *Client) Inventory(ctx context.Context, productID int64) (*apporder.InventoryView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/inventory/"+strconv.FormatInt(productID, 10), nil)
	if err != nil {
		return nil, fmt.Errorf("inventory client: build request: %w", err)
	}

	var body inventoryDTO
	if err := c.do(req, &body); err != nil {
		return nil, err
	}

	view := &apporder.InventoryView{
		ProductID:   body.ProductID,
		ProductName: body.ProductName,
		Batches:     make([]apporder.InventoryBatch, 0, len(body.Batches)),
	}
	for _, b := range body.Batches {
		expiry, err := time.Parse(time.DateOnly, b.ExpiryDate)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d expiry %q: %w", apporder.ErrInventoryRejected, b.BatchID, b.ExpiryDate, err)
		}
		view.Batches = append(view.Batches, apporder.InventoryBatch{
			BatchID:    b.BatchID,
			Quantity:   b.Quantity,
			ExpiryDate: expiry,
		})
	}
	return view, nil
}

func (c *Client) Reserve(ctx context.Context, productID int64, quantity int) (*apporder.Reservation, error) {
	payload, err := json.Marshal(updateRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return nil, fmt.Errorf("inventory client: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inventory/update", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("inventory client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var body updateResponse
	if err := c.do(req, &body); err != nil {
		return nil, err
	}
	return &apporder.Reservation{BatchIDs: body.ReservedBatchIDs, Message: body.Message}, nil
}

// do sends req with the caller's trace context and decodes a 200 body into out.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", apporder.ErrInventoryUnavailable, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", apporder.ErrInventoryNotFound, errorMessage(resp.Body))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: status %d: %s", apporder.ErrInventoryRejected, resp.StatusCode, errorMessage(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty response body", apporder.ErrInventoryRejected)
		}
		return fmt.Errorf("%w: decode response: %w", apporder.ErrInventoryRejected, err)
	}
	return nil
}

func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var e errorDTO
	if err := json.Unmarshal(raw, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(raw))
}
