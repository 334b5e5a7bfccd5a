package shipper

import (
	"time"
)

// Package is the shipping-relevant physical description derived from an
// order: weight in grams, dimensions in centimeters, declared value in the
// order's currency. It is owned by the rate-aggregation call that created
// it, mutable only through before-rate hooks, and discarded afterward.
type Package struct {
	Weight        float64
	Length        float64
	Width         float64
	Height        float64
	DeclaredValue float64
	Currency      string
}

// HasDimensions reports whether all three dimensions are set.
func (p *Package) HasDimensions() bool {
	return p.Length > 0 && p.Width > 0 && p.Height > 0
}

// Rate is a provider-quoted price for a service level. Immutable once
// constructed; Provider records where the quote came from so downstream
// consumers can disambiguate merged lists.
type Rate struct {
	Cost         float64
	Description  string
	ServiceCode  string
	DeliveryDays int
	Guaranteed   bool
	Provider     string
}

// ProviderOrder is an order as it exists in a provider's system. Errors
// accumulates validation and transport problems encountered while creating
// or fetching it, so one provider's failure can be reported without
// aborting work on another.
type ProviderOrder struct {
	Provider      string
	ID            string
	OrderNumber   string
	InvoiceNumber string
	Status        string
	CreatedAt     time.Time

	Errors []string
}

// AddError records a problem on the order.
func (o *ProviderOrder) AddError(msg string) {
	o.Errors = append(o.Errors, msg)
}

// HasErrors reports whether any problems were recorded.
func (o *ProviderOrder) HasErrors() bool {
	return len(o.Errors) > 0
}

// RateCollection is the outcome of one rate-aggregation cycle: the merged
// quotes from every responding provider plus the package they were quoted
// for.
type RateCollection struct {
	Rates   []Rate
	Package *Package
}

// DispatchResult is the outcome of relaying a completed order to every
// enabled provider, keyed by provider name. A provider appears in Errors
// when its order carries problems or its upstream failed outright.
type DispatchResult struct {
	Orders map[string]*ProviderOrder
	Errors map[string][]string
}
