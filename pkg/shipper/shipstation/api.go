package shipstation

import (
	"context"
	"net/url"
)

// APIClient defines the interface for ShipStation API operations. The
// abstraction allows a mock implementation during testing and the real
// HTTP implementation in production.
type APIClient interface {
	// GetRates fetches rate quotes for a shipment.
	GetRates(ctx context.Context, req *RateRequest) ([]RateResponse, error)

	// CreateOrder creates an order in ShipStation.
	CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error)

	// GetOrder fetches an order by ShipStation's own ID.
	GetOrder(ctx context.Context, orderID string) (*OrderResponse, error)

	// ListOrders fetches orders matching the query parameters.
	ListOrders(ctx context.Context, params url.Values) (*OrdersResponse, error)
}

// ============================================================================
// API Request/Response Types (match the ShipStation REST API)
// ============================================================================

// Weight is a weight with its unit ("grams", "ounces", "pounds").
type Weight struct {
	Value float64 `json:"value"`
	Units string  `json:"units"`
}

// Dimensions are package dimensions with their unit ("centimeters",
// "inches").
type Dimensions struct {
	Units  string  `json:"units"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RateRequest is the payload for POST /shipments/getrates.
type RateRequest struct {
	CarrierCode    string      `json:"carrierCode"`
	ServiceCode    string      `json:"serviceCode,omitempty"`
	PackageCode    string      `json:"packageCode,omitempty"`
	FromPostalCode string      `json:"fromPostalCode"`
	ToState        string      `json:"toState,omitempty"`
	ToCountry      string      `json:"toCountry"`
	ToPostalCode   string      `json:"toPostalCode"`
	ToCity         string      `json:"toCity,omitempty"`
	Weight         Weight      `json:"weight"`
	Dimensions     *Dimensions `json:"dimensions,omitempty"`
	Confirmation   string      `json:"confirmation,omitempty"`
	Residential    bool        `json:"residential"`
}

// RateResponse is one quote from POST /shipments/getrates.
type RateResponse struct {
	ServiceName  string  `json:"serviceName"`
	ServiceCode  string  `json:"serviceCode"`
	ShipmentCost float64 `json:"shipmentCost"`
	OtherCost    float64 `json:"otherCost"`
}

// Address is a ShipStation billing or shipping address.
type Address struct {
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// OrderItem is a line item on a ShipStation order.
type OrderItem struct {
	LineItemKey string  `json:"lineItemKey,omitempty"`
	SKU         string  `json:"sku,omitempty"`
	Name        string  `json:"name"`
	Weight      *Weight `json:"weight,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// OrderRequest is the payload for POST /orders/createorder. OrderKey is
// idempotent: resubmitting the same key updates rather than duplicates.
type OrderRequest struct {
	OrderNumber    string      `json:"orderNumber"`
	OrderKey       string      `json:"orderKey,omitempty"`
	OrderDate      string      `json:"orderDate"`
	PaymentDate    string      `json:"paymentDate,omitempty"`
	OrderStatus    string      `json:"orderStatus"`
	CustomerEmail  string      `json:"customerEmail,omitempty"`
	BillTo         Address     `json:"billTo"`
	ShipTo         Address     `json:"shipTo"`
	Items          []OrderItem `json:"items"`
	AmountPaid     float64     `json:"amountPaid,omitempty"`
	TaxAmount      float64     `json:"taxAmount,omitempty"`
	ShippingAmount float64     `json:"shippingAmount,omitempty"`
}

// OrderResponse is a ShipStation order.
type OrderResponse struct {
	OrderID       int64  `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	OrderKey      string `json:"orderKey"`
	OrderStatus   string `json:"orderStatus"`
	CreateDate    string `json:"createDate"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

// OrdersResponse is the envelope for GET /orders.
type OrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Pages  int             `json:"pages"`
}

// APIError represents an error from the ShipStation API.
type APIError struct {
	StatusCode int
	Message    string `json:"Message"`
}

func (e *APIError) Error() string {
	return e.Message
}
