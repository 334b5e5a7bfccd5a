package snipcart

import (
	"time"
)

// Address is a billing or shipping address attached to an order.
type Address struct {
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// OrderItem is a line item on an order. Dimensions are in centimeters and
// weight in grams, as reported by the platform's product definitions.
type OrderItem struct {
	UniqueID   string  `json:"uniqueId"`
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"totalPrice"`
	Weight     float64 `json:"weight"`
	Length     float64 `json:"length"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Shippable  bool    `json:"shippable"`
}

// Order is a completed or in-progress order fetched from the upstream
// platform. Orders are read-only; the one local mutation is the package
// the rate aggregator derives and discards per request.
type Order struct {
	Token              string      `json:"token"`
	InvoiceNumber      string      `json:"invoiceNumber"`
	Email              string      `json:"email"`
	Status             string      `json:"status"`
	PaymentMethod      string      `json:"paymentMethod,omitempty"`
	CreationDate       time.Time   `json:"creationDate"`
	ModificationDate   time.Time   `json:"modificationDate"`
	ShippingAddress    Address     `json:"shippingAddress"`
	BillingAddress     Address     `json:"billingAddress"`
	BillingAddressName string      `json:"billingAddressName,omitempty"`
	ShippingMethod     string      `json:"shippingMethod,omitempty"`
	ShippingFees       float64     `json:"shippingFees"`
	ItemsTotal         float64     `json:"itemsTotal"`
	TaxesTotal         float64     `json:"taxesTotal"`
	GrandTotal         float64     `json:"grandTotal"`
	Currency           string      `json:"currency,omitempty"`
	Items              []OrderItem `json:"items"`
}

// OrderList is one page of orders along with the upstream's pagination
// echo.
type OrderList struct {
	Items      []*Order `json:"items"`
	TotalItems int      `json:"totalItems"`
	Offset     int      `json:"offset"`
	Limit      int      `json:"limit"`
}

// Notification is a message Snipcart has sent regarding an order.
type Notification struct {
	ID             string    `json:"id"`
	CreationDate   time.Time `json:"creationDate"`
	Type           string    `json:"type"`
	DeliveryMethod string    `json:"deliveryMethod"`
	Message        string    `json:"message,omitempty"`
	SentOn         time.Time `json:"sentOn,omitempty"`
}

// Refund is a full or partial refund on an order.
type Refund struct {
	ID                       string    `json:"id,omitempty"`
	OrderToken               string    `json:"orderToken"`
	Amount                   float64   `json:"amount"`
	Comment                  string    `json:"comment,omitempty"`
	NotifyCustomer           bool      `json:"notifyCustomer"`
	RefundedByPaymentGateway bool      `json:"refundedByPaymentGateway,omitempty"`
	CreationDate             time.Time `json:"creationDate,omitempty"`
}
