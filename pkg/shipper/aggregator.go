package shipper

import (
	"context"
	"sync"

	"github.com/cartbridge/fulfillment/pkg/snipcart"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PackageHook can replace the package derived for an order before any
// provider is asked for rates. Hooks are chained: each sees the previous
// hook's output. Returning nil keeps the current package.
type PackageHook func(order *snipcart.Order, pkg *Package) *Package

// RateHook can replace the merged rate list before it is returned to the
// caller. Same chaining rule as PackageHook.
type RateHook func(rates []Rate, order *snipcart.Order, pkg *Package) []Rate

// InventoryHook observes the quantity delta a completed order implies for
// a product. The adjustment itself is the listener's business.
type InventoryHook func(productID string, quantityDelta int)

// Aggregator orchestrates one rate-request cycle: derive a package from
// the order, run registered package hooks, query every enabled provider,
// merge the results, and run registered rate hooks. Provider failures are
// isolated per provider and never surface to the caller.
type Aggregator struct {
	registry *Registry
	enabled  []string
	defaults Package
	logger   *otelzap.Logger

	mu             sync.Mutex
	packageHooks   []PackageHook
	rateHooks      []RateHook
	inventoryHooks []InventoryHook
}

// NewAggregator creates an Aggregator. enabled selects which registered
// providers participate; defaults seed package fields the order cannot
// supply (box dimensions, fallback weight).
func NewAggregator(registry *Registry, enabled []string, defaults Package, logger *otelzap.Logger) *Aggregator {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &Aggregator{
		registry: registry,
		enabled:  enabled,
		defaults: defaults,
		logger:   logger,
	}
}

// OnPackage registers a before-rates package hook. Hooks run in
// registration order.
func (a *Aggregator) OnPackage(h PackageHook) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.packageHooks = append(a.packageHooks, h)
}

// OnRates registers an after-rates hook. Hooks run in registration order.
func (a *Aggregator) OnRates(h RateHook) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rateHooks = append(a.rateHooks, h)
}

// OnInventoryChange registers an observer for quantity deltas emitted on
// completed-order dispatch.
func (a *Aggregator) OnInventoryChange(h InventoryHook) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inventoryHooks = append(a.inventoryHooks, h)
}

// CollectRatesForOrder runs one aggregation cycle and returns the merged
// rates along with the package they were quoted for. Providers are
// queried in parallel; a provider that fails contributes zero rates and
// the failure is logged, not returned. No retries happen here — a caller
// that wants a retry re-invokes the whole cycle.
func (a *Aggregator) CollectRatesForOrder(ctx context.Context, order *snipcart.Order) *RateCollection {
	pkg := a.derivePackage(order)
	for _, hook := range a.snapshotPackageHooks() {
		if replaced := hook(order, pkg); replaced != nil {
			pkg = replaced
		}
	}

	providers := a.registry.Enabled(a.enabled)

	var mu sync.Mutex
	rates := make([]Rate, 0)

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range providers {
		g.Go(func() error {
			providerRates, err := p.RatesForOrder(gctx, order, pkg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Error("Provider rate request failed",
					zap.String("provider", p.Name()),
					zap.String("invoiceNumber", order.InvoiceNumber),
					zap.Error(err),
				)
				return nil // other providers keep going
			}
			rates = append(rates, providerRates...)
			return nil
		})
	}
	g.Wait()

	for _, hook := range a.snapshotRateHooks() {
		rates = hook(rates, order, pkg)
	}

	if len(rates) == 0 {
		a.logger.Warn("No shipping rates available for order",
			zap.String("invoiceNumber", order.InvoiceNumber),
		)
	}

	return &RateCollection{Rates: rates, Package: pkg}
}

// DispatchCompletedOrder relays a completed order to every enabled
// provider and emits inventory deltas for the order's line items. Results
// and errors are captured independently per provider, so one provider's
// outage never blocks dispatch to another.
func (a *Aggregator) DispatchCompletedOrder(ctx context.Context, order *snipcart.Order) *DispatchResult {
	result := &DispatchResult{
		Orders: make(map[string]*ProviderOrder),
		Errors: make(map[string][]string),
	}

	for _, p := range a.registry.Enabled(a.enabled) {
		providerOrder, err := p.CreateOrder(ctx, order)
		if err != nil {
			a.logger.Error("Provider order creation failed",
				zap.String("provider", p.Name()),
				zap.String("invoiceNumber", order.InvoiceNumber),
				zap.Error(err),
			)
			result.Errors[p.Name()] = []string{err.Error()}
			continue
		}
		if providerOrder == nil {
			continue
		}
		result.Orders[p.Name()] = providerOrder
		if providerOrder.HasErrors() {
			result.Errors[p.Name()] = providerOrder.Errors
		}
	}

	hooks := a.snapshotInventoryHooks()
	if len(hooks) > 0 {
		for _, item := range order.Items {
			if item.ID == "" || item.Quantity == 0 {
				continue
			}
			for _, hook := range hooks {
				hook(item.ID, -item.Quantity)
			}
		}
	}

	return result
}

// derivePackage builds the initial package from the order's line items
// and the configured defaults. Dimensions come from defaults; hooks are
// the place to size a box per order.
func (a *Aggregator) derivePackage(order *snipcart.Order) *Package {
	pkg := &Package{
		Length:        a.defaults.Length,
		Width:         a.defaults.Width,
		Height:        a.defaults.Height,
		DeclaredValue: order.ItemsTotal,
		Currency:      order.Currency,
	}
	for _, item := range order.Items {
		pkg.Weight += item.Weight * float64(item.Quantity)
	}
	if pkg.Weight == 0 {
		pkg.Weight = a.defaults.Weight
	}
	return pkg
}

func (a *Aggregator) snapshotPackageHooks() []PackageHook {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]PackageHook(nil), a.packageHooks...)
}

func (a *Aggregator) snapshotRateHooks() []RateHook {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]RateHook(nil), a.rateHooks...)
}

func (a *Aggregator) snapshotInventoryHooks() []InventoryHook {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]InventoryHook(nil), a.inventoryHooks...)
}
