// Package shipper provides an abstraction layer for shipping and
// fulfillment providers that quote rates and receive completed orders.
package shipper

import (
	"context"

	"github.com/cartbridge/fulfillment/pkg/snipcart"
)

// Provider defines the interface every shipping provider integration must
// implement. Providers are stateless adapters; they hold configuration but
// no per-call state.
type Provider interface {
	// Name returns the provider identifier (e.g., "shipStation").
	Name() string

	// IsConfigured reports whether the provider's required settings are
	// present. Unconfigured providers never participate in aggregation.
	IsConfigured() bool

	// RatesForOrder returns zero or more quotes for shipping the package.
	// No applicable rate is an empty slice, not an error; an error means
	// the provider's own upstream is unreachable or rejected us, and the
	// caller isolates it per provider.
	RatesForOrder(ctx context.Context, order *snipcart.Order, pkg *Package) ([]Rate, error)

	// CreateOrder creates an equivalent order in the provider's system.
	// Validation problems are reported on the returned model's Errors
	// rather than as an error, so callers can report partial failure.
	CreateOrder(ctx context.Context, order *snipcart.Order) (*ProviderOrder, error)

	// OrderByID looks up a provider order by the provider's own ID.
	// Returns (nil, nil) when not found.
	OrderByID(ctx context.Context, id string) (*ProviderOrder, error)

	// OrderByInvoice looks up a provider order by the upstream invoice
	// number. Returns (nil, nil) when not found.
	OrderByInvoice(ctx context.Context, invoice string) (*ProviderOrder, error)
}
