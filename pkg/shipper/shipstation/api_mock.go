package shipstation

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// MockAPIClient is a deterministic APIClient for tests and for running
// the service without ShipStation credentials. Each operation can be
// overridden per test via its Fn field.
type MockAPIClient struct {
	GetRatesFn    func(ctx context.Context, req *RateRequest) ([]RateResponse, error)
	CreateOrderFn func(ctx context.Context, req *OrderRequest) (*OrderResponse, error)
	GetOrderFn    func(ctx context.Context, orderID string) (*OrderResponse, error)
	ListOrdersFn  func(ctx context.Context, params url.Values) (*OrdersResponse, error)

	mu            sync.Mutex
	createdOrders []*OrderRequest
}

// NewMockAPIClient creates a mock API client with canned responses.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// GetRates returns canned quotes unless overridden.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RateRequest) ([]RateResponse, error) {
	if m.GetRatesFn != nil {
		return m.GetRatesFn(ctx, req)
	}
	return []RateResponse{
		{ServiceName: "USPS Priority Mail", ServiceCode: "usps_priority_mail", ShipmentCost: 7.90, OtherCost: 0.40},
		{ServiceName: "USPS Priority Mail Express", ServiceCode: "usps_priority_mail_express", ShipmentCost: 24.10, OtherCost: 0.40},
	}, nil
}

// CreateOrder records the request and returns a canned order unless
// overridden.
func (m *MockAPIClient) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	if m.CreateOrderFn != nil {
		return m.CreateOrderFn(ctx, req)
	}
	m.mu.Lock()
	m.createdOrders = append(m.createdOrders, req)
	m.mu.Unlock()

	return &OrderResponse{
		OrderID:       time.Now().UnixNano() % 1_000_000,
		OrderNumber:   req.OrderNumber,
		OrderKey:      req.OrderKey,
		OrderStatus:   req.OrderStatus,
		CreateDate:    time.Now().Format(time.RFC3339),
		CustomerEmail: req.CustomerEmail,
	}, nil
}

// GetOrder returns a canned order unless overridden.
func (m *MockAPIClient) GetOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	if m.GetOrderFn != nil {
		return m.GetOrderFn(ctx, orderID)
	}
	return &OrderResponse{
		OrderID:     123456,
		OrderNumber: fmt.Sprintf("mock-%s", orderID),
		OrderStatus: "awaiting_shipment",
		CreateDate:  time.Now().Format(time.RFC3339),
	}, nil
}

// ListOrders returns an empty page unless overridden.
func (m *MockAPIClient) ListOrders(ctx context.Context, params url.Values) (*OrdersResponse, error) {
	if m.ListOrdersFn != nil {
		return m.ListOrdersFn(ctx, params)
	}
	return &OrdersResponse{Orders: []OrderResponse{}, Total: 0, Page: 1, Pages: 0}, nil
}

// CreatedOrders returns the order requests recorded by CreateOrder.
func (m *MockAPIClient) CreatedOrders() []*OrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*OrderRequest(nil), m.createdOrders...)
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
