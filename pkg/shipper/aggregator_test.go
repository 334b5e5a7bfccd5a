package shipper_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cartbridge/fulfillment/pkg/shipper"
	"github.com/cartbridge/fulfillment/pkg/shipper/mock"
	"github.com/cartbridge/fulfillment/pkg/snipcart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *snipcart.Order {
	return &snipcart.Order{
		Token:         "tok-1",
		InvoiceNumber: "INV-001",
		ItemsTotal:    49.90,
		Currency:      "usd",
		Items: []snipcart.OrderItem{
			{ID: "mug", Name: "Mug", Quantity: 2, Weight: 350},
			{ID: "poster", Name: "Poster", Quantity: 1, Weight: 120},
		},
	}
}

func newAggregator(providers ...shipper.Provider) *shipper.Aggregator {
	registry := shipper.NewRegistry()
	enabled := make([]string, 0, len(providers))
	for _, p := range providers {
		registry.Register(p)
		enabled = append(enabled, p.Name())
	}
	return shipper.NewAggregator(registry, enabled, shipper.Package{Length: 30, Width: 20, Height: 10}, nil)
}

func TestAggregator_CollectRatesForOrder(t *testing.T) {
	agg := newAggregator(mock.New("provider-a"), mock.New("provider-b"))

	collection := agg.CollectRatesForOrder(context.Background(), testOrder())

	require.NotNil(t, collection)
	assert.Len(t, collection.Rates, 4, "two quotes from each provider")

	providers := make(map[string]int)
	for _, rate := range collection.Rates {
		providers[rate.Provider]++
	}
	assert.Equal(t, 2, providers["provider-a"])
	assert.Equal(t, 2, providers["provider-b"])
}

func TestAggregator_CollectRatesForOrder_ProviderIsolation(t *testing.T) {
	healthy := mock.New("healthy")
	broken := mock.New("broken")
	broken.RatesErr = errors.New("upstream exploded")

	agg := newAggregator(healthy, broken)

	collection := agg.CollectRatesForOrder(context.Background(), testOrder())

	require.NotNil(t, collection)
	require.Len(t, collection.Rates, 2, "failing provider must not poison the others")
	for _, rate := range collection.Rates {
		assert.Equal(t, "healthy", rate.Provider)
	}
}

func TestAggregator_CollectRatesForOrder_AllFail(t *testing.T) {
	broken := mock.New("broken")
	broken.RatesErr = errors.New("upstream exploded")

	agg := newAggregator(broken)

	collection := agg.CollectRatesForOrder(context.Background(), testOrder())
	require.NotNil(t, collection)
	assert.Empty(t, collection.Rates)
}

func TestAggregator_CollectRatesForOrder_DerivesPackage(t *testing.T) {
	agg := newAggregator(mock.New("provider-a"))

	collection := agg.CollectRatesForOrder(context.Background(), testOrder())

	pkg := collection.Package
	require.NotNil(t, pkg)
	assert.Equal(t, 820.0, pkg.Weight, "2x350g + 1x120g")
	assert.Equal(t, 30.0, pkg.Length)
	assert.Equal(t, 49.90, pkg.DeclaredValue)
	assert.Equal(t, "usd", pkg.Currency)
}

func TestAggregator_CollectRatesForOrder_DefaultWeight(t *testing.T) {
	registry := shipper.NewRegistry()
	registry.Register(mock.New("provider-a"))
	agg := shipper.NewAggregator(registry, []string{"provider-a"}, shipper.Package{Weight: 500}, nil)

	order := testOrder()
	for i := range order.Items {
		order.Items[i].Weight = 0
	}

	collection := agg.CollectRatesForOrder(context.Background(), order)
	assert.Equal(t, 500.0, collection.Package.Weight, "weightless items fall back to the default")
}

func TestAggregator_PackageHooks_Chained(t *testing.T) {
	agg := newAggregator(mock.New("provider-a"))

	// First hook doubles the weight; second adds a handling allowance.
	// The second must observe the first's output.
	agg.OnPackage(func(_ *snipcart.Order, pkg *shipper.Package) *shipper.Package {
		replaced := *pkg
		replaced.Weight = pkg.Weight * 2
		return &replaced
	})
	agg.OnPackage(func(_ *snipcart.Order, pkg *shipper.Package) *shipper.Package {
		replaced := *pkg
		replaced.Weight = pkg.Weight + 100
		return &replaced
	})

	collection := agg.CollectRatesForOrder(context.Background(), testOrder())
	assert.Equal(t, 820.0*2+100, collection.Package.Weight)
}

func TestAggregator_PackageHooks_NilKeepsCurrent(t *testing.T) {
	agg := newAggregator(mock.New("provider-a"))

	agg.OnPackage(func(_ *snipcart.Order, _ *shipper.Package) *shipper.Package {
		return nil
	})

	collection := agg.CollectRatesForOrder(context.Background(), testOrder())
	assert.Equal(t, 820.0, collection.Package.Weight, "nil return keeps the derived package")
}

func TestAggregator_RateHooks_Chained(t *testing.T) {
	agg := newAggregator(mock.New("provider-a"))

	// First hook adds a flat-rate option; second drops everything above
	// $100. Order of registration is order of execution.
	agg.OnRates(func(rates []shipper.Rate, _ *snipcart.Order, _ *shipper.Package) []shipper.Rate {
		return append(rates, shipper.Rate{Cost: 5, Description: "Local pickup", Provider: "store"})
	})
	agg.OnRates(func(rates []shipper.Rate, _ *snipcart.Order, _ *shipper.Package) []shipper.Rate {
		kept := rates[:0]
		for _, r := range rates {
			if r.Cost <= 100 {
				kept = append(kept, r)
			}
		}
		return kept
	})

	collection := agg.CollectRatesForOrder(context.Background(), testOrder())

	var foundPickup bool
	for _, r := range collection.Rates {
		assert.LessOrEqual(t, r.Cost, 100.0)
		if r.Description == "Local pickup" {
			foundPickup = true
		}
	}
	assert.True(t, foundPickup, "second hook must see the first hook's addition")
}

func TestAggregator_RateHooks_CanReplaceAll(t *testing.T) {
	agg := newAggregator(mock.New("provider-a"))

	agg.OnRates(func(_ []shipper.Rate, _ *snipcart.Order, _ *shipper.Package) []shipper.Rate {
		return []shipper.Rate{{Cost: 0, Description: "Free shipping"}}
	})

	collection := agg.CollectRatesForOrder(context.Background(), testOrder())
	require.Len(t, collection.Rates, 1)
	assert.Equal(t, "Free shipping", collection.Rates[0].Description)
}

func TestAggregator_DispatchCompletedOrder(t *testing.T) {
	agg := newAggregator(mock.New("provider-a"), mock.New("provider-b"))

	result := agg.DispatchCompletedOrder(context.Background(), testOrder())

	require.NotNil(t, result)
	assert.Len(t, result.Orders, 2)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "INV-001", result.Orders["provider-a"].InvoiceNumber)
}

func TestAggregator_DispatchCompletedOrder_ErrorIsolation(t *testing.T) {
	healthy := mock.New("healthy")
	broken := mock.New("broken")
	broken.CreateErr = errors.New("credentials rejected")

	agg := newAggregator(healthy, broken)

	result := agg.DispatchCompletedOrder(context.Background(), testOrder())

	assert.Len(t, result.Orders, 1)
	assert.Contains(t, result.Orders, "healthy")

	require.Contains(t, result.Errors, "broken")
	assert.Contains(t, result.Errors["broken"][0], "credentials rejected")
}

func TestAggregator_DispatchCompletedOrder_InventoryHooks(t *testing.T) {
	agg := newAggregator(mock.New("provider-a"))

	deltas := make(map[string]int)
	agg.OnInventoryChange(func(productID string, quantityDelta int) {
		deltas[productID] += quantityDelta
	})

	agg.DispatchCompletedOrder(context.Background(), testOrder())

	assert.Equal(t, -2, deltas["mug"])
	assert.Equal(t, -1, deltas["poster"])
}

func TestAggregator_DispatchCompletedOrder_InventorySkipsEmptyItems(t *testing.T) {
	agg := newAggregator(mock.New("provider-a"))

	var calls int
	agg.OnInventoryChange(func(string, int) { calls++ })

	order := testOrder()
	order.Items = []snipcart.OrderItem{
		{ID: "", Quantity: 3},
		{ID: "free-sample", Quantity: 0},
	}

	agg.DispatchCompletedOrder(context.Background(), order)
	assert.Zero(t, calls)
}

func TestAggregator_UnconfiguredProviderExcluded(t *testing.T) {
	configured := mock.New("configured")
	unconfigured := mock.New("unconfigured")
	unconfigured.Unconfigured = true

	agg := newAggregator(configured, unconfigured)

	collection := agg.CollectRatesForOrder(context.Background(), testOrder())
	for _, rate := range collection.Rates {
		assert.Equal(t, "configured", rate.Provider)
	}

	result := agg.DispatchCompletedOrder(context.Background(), testOrder())
	assert.NotContains(t, result.Orders, "unconfigured")
}
