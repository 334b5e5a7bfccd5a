package snipcart_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cartbridge/fulfillment/pkg/snipcart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ordersHandler serves a fixed set of fake orders with offset/limit
// pagination, the way the upstream orders endpoint does.
func ordersHandler(total, pageSize int, calls *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		items := make([]map[string]any, 0, pageSize)
		for i := offset; i < total && len(items) < pageSize; i++ {
			items = append(items, map[string]any{
				"token":         fmt.Sprintf("tok-%03d", i),
				"invoiceNumber": fmt.Sprintf("INV-%03d", i),
			})
		}

		json.NewEncoder(w).Encode(map[string]any{
			"items":      items,
			"totalItems": total,
			"offset":     offset,
			"limit":      pageSize,
		})
	})
}

func TestOrderService_AllOrders(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, ordersHandler(37, 10, &calls))
	svc := snipcart.NewOrderService(client, nil)

	orders, err := svc.AllOrders(context.Background(), map[string]any{"cache": false})
	require.NoError(t, err)

	require.Len(t, orders, 37)
	assert.Equal(t, int64(4), calls.Load(), "37 items at 10 per page should take 4 fetches")

	// No duplicates and no gaps: the offset must advance by the number of
	// items received.
	seen := make(map[string]bool, len(orders))
	for _, o := range orders {
		assert.False(t, seen[o.Token], "duplicate order %s", o.Token)
		seen[o.Token] = true
	}
	assert.Equal(t, "tok-000", orders[0].Token)
	assert.Equal(t, "tok-036", orders[36].Token)
}

func TestOrderService_AllOrders_SinglePage(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, ordersHandler(5, 10, &calls))
	svc := snipcart.NewOrderService(client, nil)

	orders, err := svc.AllOrders(context.Background(), map[string]any{"cache": false})
	require.NoError(t, err)
	assert.Len(t, orders, 5)
	assert.Equal(t, int64(1), calls.Load())
}

func TestOrderService_AllOrders_Empty(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, ordersHandler(0, 10, &calls))
	svc := snipcart.NewOrderService(client, nil)

	orders, err := svc.AllOrders(context.Background(), map[string]any{"cache": false})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, int64(1), calls.Load())
}

func TestOrderService_AllOrders_StopsOnEmptyPage(t *testing.T) {
	// The upstream claims more items than it ever returns. The loop must
	// terminate anyway.
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		items := []map[string]any{}
		if offset == 0 {
			items = append(items, map[string]any{"token": "tok-0"})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items":      items,
			"totalItems": 100,
			"offset":     offset,
		})
	}))
	svc := snipcart.NewOrderService(client, nil)

	orders, err := svc.AllOrders(context.Background(), map[string]any{"cache": false})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, int64(2), calls.Load())
}

func TestOrderService_ListOrders(t *testing.T) {
	client, _ := newTestClient(t, ordersHandler(37, 10, nil))
	svc := snipcart.NewOrderService(client, nil)

	list, err := svc.ListOrders(context.Background(), 2, 10, map[string]any{"cache": false})
	require.NoError(t, err)

	assert.Equal(t, 37, list.TotalItems)
	assert.Equal(t, 10, list.Offset, "page 2 with limit 10 starts at offset 10")
	require.Len(t, list.Items, 10)
	assert.Equal(t, "tok-010", list.Items[0].Token)
}

func TestOrderService_ListOrders_UpstreamFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	svc := snipcart.NewOrderService(client, nil)

	list, err := svc.ListOrders(context.Background(), 1, 25, nil)
	require.NoError(t, err, "soft upstream failure must not surface")
	assert.Empty(t, list.Items)
	assert.Zero(t, list.TotalItems)
}

func TestOrderService_ListOrders_ParamWhitelist(t *testing.T) {
	var query map[string][]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	}))
	svc := snipcart.NewOrderService(client, nil)

	from := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	_, err := svc.ListOrders(context.Background(), 1, 25, map[string]any{
		"status":  "Processed",
		"from":    from,
		"cache":   false,
		"dropMe":  "x",
		"another": 42,
	})
	require.NoError(t, err)

	assert.Equal(t, "Processed", query["status"][0])
	assert.Equal(t, "2024-03-01T08:30:00+00:00", query["from"][0])
	assert.Equal(t, "0", query["offset"][0])
	assert.Equal(t, "25", query["limit"][0])
	assert.NotContains(t, query, "dropMe")
	assert.NotContains(t, query, "another")
	assert.NotContains(t, query, "cache", "the cache switch is local, never transmitted")
}

func TestOrderService_AllOrders_SkipsBadItems(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"items": [
				{"token": "tok-good", "invoiceNumber": "INV-1"},
				{"invoiceNumber": "INV-missing-token"},
				{"token": 123}
			],
			"totalItems": 3,
			"offset": 0
		}`))
	}))
	svc := snipcart.NewOrderService(client, nil)

	orders, err := svc.AllOrders(context.Background(), map[string]any{"cache": false})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "tok-good", orders[0].Token)
}

func TestOrderService_GetOrder(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/tok-42", r.URL.Path)
		w.Write([]byte(`{"token":"tok-42","invoiceNumber":"INV-42","email":"a@b.test"}`))
	}))
	svc := snipcart.NewOrderService(client, nil)

	order, err := svc.GetOrder(context.Background(), "tok-42")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "INV-42", order.InvoiceNumber)
	assert.Equal(t, "a@b.test", order.Email)
}

func TestOrderService_GetOrder_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	svc := snipcart.NewOrderService(client, nil)

	order, err := svc.GetOrder(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestOrderService_OrderRefunds(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/tok-42/refunds", r.URL.Path)
		w.Write([]byte(`[{"orderToken":"tok-42","amount":10.5}]`))
	}))
	svc := snipcart.NewOrderService(client, nil)

	refunds, err := svc.OrderRefunds(context.Background(), "tok-42")
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, 10.5, refunds[0].Amount)
}

func TestOrderService_OrderRefunds_Envelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"orderToken":"tok-42","amount":3}]}`))
	}))
	svc := snipcart.NewOrderService(client, nil)

	refunds, err := svc.OrderRefunds(context.Background(), "tok-42")
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, float64(3), refunds[0].Amount)
}

func TestOrderService_CreateRefund(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders/tok-42/refunds", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 10.5, body["amount"])
		assert.Equal(t, "damaged in transit", body["comment"])
		assert.Equal(t, true, body["notifyCustomer"])

		w.Write([]byte(`{"id":"ref-1","amount":10.5}`))
	}))
	svc := snipcart.NewOrderService(client, nil)

	refund, err := svc.CreateRefund(context.Background(), "tok-42", 10.5, "damaged in transit", true)
	require.NoError(t, err)
	require.NotNil(t, refund)
	assert.Equal(t, "ref-1", refund.ID)
	assert.Equal(t, "tok-42", refund.OrderToken)
}
