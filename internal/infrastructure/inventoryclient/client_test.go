package inventoryclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	apporder "github.com/Zhima-Mochi/minishop-batches/internal/application/order"
)

func TestClient_InventoryDecodesView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory/1001", r.URL.Path)
		_, _ = w.Write([]byte(`{"productId":1001,"productName":"Laptop","batches":[
			{"batchId":1,"quantity":50,"expiryDate":"2026-06-25"},
			{"batchId":2,"quantity":30,"expiryDate":"2026-07-15"}]}`))
	}))
	defer srv.Close()

	view, err := New(srv.URL, time.Second).Inventory(context.Background(), 1001)

	require.NoError(t, err)
	assert.Equal(t, "Laptop", view.ProductName)
	require.Len(t, view.Batches, 2)
	assert.Equal(t, time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC), view.Batches[0].ExpiryDate)
	assert.Equal(t, 80, view.Total())
}

func TestClient_InventoryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"inventory: product not found: 9999"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Inventory(context.Background(), 9999)

	assert.ErrorIs(t, err, apporder.ErrInventoryNotFound)
	assert.Contains(t, err.Error(), "product not found: 9999")
}

func TestClient_ReserveSendsRequestAndTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	var got updateRequest
	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/inventory/update", r.URL.Path)
		traceparent = r.Header.Get("traceparent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"reservedBatchIds":[1,2],"message":"Inventory updated successfully"}`))
	}))
	defer srv.Close()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	res, err := New(srv.URL+"/", time.Second).Reserve(ctx, 1001, 60)

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, res.BatchIDs)
	assert.Equal(t, "Inventory updated successfully", res.Message)
	assert.Equal(t, updateRequest{ProductID: 1001, Quantity: 60}, got)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", traceparent)
}

func TestClient_ReserveRejected(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"Insufficient inventory. Required: 100, Available: 80"}`))
		}))

		_, err := New(srv.URL, time.Second).Reserve(context.Background(), 1001, 100)
		srv.Close()

		assert.ErrorIs(t, err, apporder.ErrInventoryRejected)
		assert.Contains(t, err.Error(), "Required: 100, Available: 80")
	}
}

func TestClient_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Inventory(context.Background(), 1001)

	assert.ErrorIs(t, err, apporder.ErrInventoryUnavailable)
}

func TestClient_TimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, 50*time.Millisecond).Reserve(context.Background(), 1001, 1)

	assert.ErrorIs(t, err, apporder.ErrInventoryUnavailable)
}
