// Package mock provides a mock shipping provider for testing and local
// runs without carrier credentials.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/cartbridge/fulfillment/pkg/shipper"
	"github.com/cartbridge/fulfillment/pkg/snipcart"
)

// Provider is a mock shipping provider.
type Provider struct {
	name string

	// RatesErr, when set, makes RatesForOrder fail. Used to exercise
	// per-provider isolation.
	RatesErr error

	// CreateErr, when set, makes CreateOrder fail.
	CreateErr error

	// Rates overrides the default quotes.
	Rates []shipper.Rate

	// Unconfigured makes IsConfigured report false.
	Unconfigured bool
}

// New creates a new mock provider.
func New(name string) *Provider {
	return &Provider{name: name}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return p.name
}

// IsConfigured reports whether the provider pretends to be configured.
func (p *Provider) IsConfigured() bool {
	return !p.Unconfigured
}

// RatesForOrder returns mock quotes for the package.
func (p *Provider) RatesForOrder(_ context.Context, _ *snipcart.Order, pkg *shipper.Package) ([]shipper.Rate, error) {
	if p.RatesErr != nil {
		return nil, p.RatesErr
	}
	if p.Rates != nil {
		return p.Rates, nil
	}

	base := 8.50 + pkg.Weight/1000
	return []shipper.Rate{
		{
			Cost:         base,
			Description:  fmt.Sprintf("%s Ground", p.name),
			ServiceCode:  "GROUND",
			DeliveryDays: 5,
			Provider:     p.name,
		},
		{
			Cost:         base * 2.2,
			Description:  fmt.Sprintf("%s Express", p.name),
			ServiceCode:  "EXPRESS",
			DeliveryDays: 2,
			Guaranteed:   true,
			Provider:     p.name,
		},
	}, nil
}

// CreateOrder creates a mock provider order.
func (p *Provider) CreateOrder(_ context.Context, order *snipcart.Order) (*shipper.ProviderOrder, error) {
	if p.CreateErr != nil {
		return nil, p.CreateErr
	}
	return &shipper.ProviderOrder{
		Provider:      p.name,
		ID:            fmt.Sprintf("%s-order-%d", p.name, time.Now().UnixNano()),
		OrderNumber:   order.InvoiceNumber,
		InvoiceNumber: order.InvoiceNumber,
		Status:        "awaiting_shipment",
		CreatedAt:     time.Now(),
	}, nil
}

// OrderByID returns a mock provider order.
func (p *Provider) OrderByID(_ context.Context, id string) (*shipper.ProviderOrder, error) {
	if id == "" {
		return nil, nil
	}
	return &shipper.ProviderOrder{
		Provider: p.name,
		ID:       id,
		Status:   "awaiting_shipment",
	}, nil
}

// OrderByInvoice returns a mock provider order.
func (p *Provider) OrderByInvoice(_ context.Context, invoice string) (*shipper.ProviderOrder, error) {
	if invoice == "" {
		return nil, nil
	}
	return &shipper.ProviderOrder{
		Provider:      p.name,
		ID:            fmt.Sprintf("%s-%s", p.name, invoice),
		InvoiceNumber: invoice,
		Status:        "awaiting_shipment",
	}, nil
}
