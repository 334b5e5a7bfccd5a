// Package shipstation provides integration with the ShipStation
// fulfillment API as a shipping provider.
package shipstation

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/cartbridge/fulfillment/pkg/shipper"
	"github.com/cartbridge/fulfillment/pkg/snipcart"
	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ProviderName is the configuration key and rate tag for this provider.
const ProviderName = "shipStation"

// DefaultBaseURL is ShipStation's REST API base URL.
const DefaultBaseURL = "https://ssapi.shipstation.com"

// Config holds ShipStation configuration.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string

	// DefaultCarrierCode selects which carrier account quotes rates
	// (e.g., "stamps_com").
	DefaultCarrierCode string

	// FromPostalCode is the warehouse postal code rates are quoted from.
	FromPostalCode string

	// DefaultOrderConfirmation is the confirmation level sent with rate
	// requests ("none", "delivery", "signature").
	DefaultOrderConfirmation string

	// UseMock swaps in the mock API client.
	UseMock bool

	Timeout time.Duration
}

// Client is the ShipStation provider. It implements shipper.Provider and
// delegates API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
}

// New creates a new ShipStation provider. If cfg.UseMock is true, it uses
// a mock API client; otherwise the real HTTP client.
func New(cfg Config, logger *otelzap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.DefaultOrderConfirmation == "" {
		cfg.DefaultOrderConfirmation = "delivery"
	}
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}

	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			Timeout:   cfg.Timeout,
		})
	}

	return &Client{config: cfg, apiClient: apiClient, logger: logger}
}

// NewWithAPIClient creates a ShipStation provider with a custom API
// client. Useful for injecting mocks in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &Client{config: cfg, apiClient: apiClient, logger: logger}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// IsConfigured reports whether credentials are present (or the mock is in
// use).
func (c *Client) IsConfigured() bool {
	if c.config.UseMock {
		return true
	}
	return c.config.APIKey != "" && c.config.APISecret != ""
}

// RatesForOrder returns ShipStation quotes for shipping the package to
// the order's shipping address.
func (c *Client) RatesForOrder(ctx context.Context, order *snipcart.Order, pkg *shipper.Package) ([]shipper.Rate, error) {
	c.logger.Info("Getting ShipStation rates",
		zap.String("invoiceNumber", order.InvoiceNumber),
		zap.Float64("weight", pkg.Weight),
	)

	apiReq := &RateRequest{
		CarrierCode:    c.config.DefaultCarrierCode,
		FromPostalCode: c.config.FromPostalCode,
		ToState:        order.ShippingAddress.Province,
		ToCountry:      order.ShippingAddress.Country,
		ToPostalCode:   order.ShippingAddress.PostalCode,
		ToCity:         order.ShippingAddress.City,
		Weight:         Weight{Value: pkg.Weight, Units: "grams"},
		Confirmation:   c.config.DefaultOrderConfirmation,
	}
	if pkg.HasDimensions() {
		apiReq.Dimensions = &Dimensions{
			Units:  "centimeters",
			Length: pkg.Length,
			Width:  pkg.Width,
			Height: pkg.Height,
		}
	}

	apiRates, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		if errors.Is(err, shipper.ErrOrderNotFound) {
			return []shipper.Rate{}, nil
		}
		c.logger.Error("ShipStation API error", zap.Error(err))
		return nil, err
	}

	rates := make([]shipper.Rate, len(apiRates))
	for i, r := range apiRates {
		rates[i] = shipper.Rate{
			Cost:        r.ShipmentCost + r.OtherCost,
			Description: r.ServiceName,
			ServiceCode: r.ServiceCode,
			Provider:    ProviderName,
		}
	}
	return rates, nil
}

// CreateOrder creates an equivalent order in ShipStation. Validation
// problems come back on the returned model's Errors; only transport and
// authentication failures are returned as errors.
func (c *Client) CreateOrder(ctx context.Context, order *snipcart.Order) (*shipper.ProviderOrder, error) {
	c.logger.Info("Creating ShipStation order",
		zap.String("invoiceNumber", order.InvoiceNumber),
	)

	result := &shipper.ProviderOrder{
		Provider:      ProviderName,
		InvoiceNumber: order.InvoiceNumber,
	}

	if order.ShippingAddress.Name == "" || order.ShippingAddress.Address1 == "" {
		result.AddError("order is missing a shippable address")
		return result, nil
	}

	apiReq := orderToAPI(order)

	apiResp, err := c.apiClient.CreateOrder(ctx, apiReq)
	if err != nil {
		if errors.Is(err, shipper.ErrAuthenticationFailed) {
			return nil, err
		}
		c.logger.Error("ShipStation API error", zap.Error(err))
		result.AddError(err.Error())
		return result, nil
	}

	fillFromAPI(result, apiResp)
	return result, nil
}

// OrderByID fetches a ShipStation order by its numeric ID. Returns
// (nil, nil) when not found.
func (c *Client) OrderByID(ctx context.Context, id string) (*shipper.ProviderOrder, error) {
	apiResp, err := c.apiClient.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, shipper.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if apiResp == nil {
		return nil, nil
	}

	result := &shipper.ProviderOrder{Provider: ProviderName}
	fillFromAPI(result, apiResp)
	return result, nil
}

// OrderByInvoice fetches a ShipStation order by the upstream invoice
// number it was created with. Returns (nil, nil) when not found.
func (c *Client) OrderByInvoice(ctx context.Context, invoice string) (*shipper.ProviderOrder, error) {
	params := url.Values{}
	params.Set("orderNumber", invoice)

	apiResp, err := c.apiClient.ListOrders(ctx, params)
	if err != nil {
		if errors.Is(err, shipper.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if apiResp == nil || len(apiResp.Orders) == 0 {
		return nil, nil
	}

	result := &shipper.ProviderOrder{
		Provider:      ProviderName,
		InvoiceNumber: invoice,
	}
	fillFromAPI(result, &apiResp.Orders[0])
	return result, nil
}

// ============================================================================
// Conversion helpers
// ============================================================================

func orderToAPI(order *snipcart.Order) *OrderRequest {
	items := make([]OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		apiItem := OrderItem{
			LineItemKey: item.UniqueID,
			SKU:         item.ID,
			Name:        item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
		}
		if item.Weight > 0 {
			apiItem.Weight = &Weight{Value: item.Weight, Units: "grams"}
		}
		items = append(items, apiItem)
	}

	// OrderKey makes resubmission of the same order an update, not a
	// duplicate.
	orderKey := order.Token
	if orderKey == "" {
		orderKey = uuid.New().String()
	}

	return &OrderRequest{
		OrderNumber:    order.InvoiceNumber,
		OrderKey:       orderKey,
		OrderDate:      order.CreationDate.Format(time.RFC3339),
		PaymentDate:    order.CreationDate.Format(time.RFC3339),
		OrderStatus:    "awaiting_shipment",
		CustomerEmail:  order.Email,
		BillTo:         addressToAPI(order.BillingAddress),
		ShipTo:         addressToAPI(order.ShippingAddress),
		Items:          items,
		AmountPaid:     order.GrandTotal,
		TaxAmount:      order.TaxesTotal,
		ShippingAmount: order.ShippingFees,
	}
}

func addressToAPI(addr snipcart.Address) Address {
	return Address{
		Name:       addr.Name,
		Company:    addr.Company,
		Street1:    addr.Address1,
		Street2:    addr.Address2,
		City:       addr.City,
		State:      addr.Province,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
		Phone:      addr.Phone,
	}
}

func fillFromAPI(result *shipper.ProviderOrder, apiResp *OrderResponse) {
	result.ID = strconv.FormatInt(apiResp.OrderID, 10)
	result.OrderNumber = apiResp.OrderNumber
	result.Status = apiResp.OrderStatus
	if result.InvoiceNumber == "" {
		result.InvoiceNumber = apiResp.OrderNumber
	}
	if t, err := time.Parse(time.RFC3339, apiResp.CreateDate); err == nil {
		result.CreatedAt = t
	}
}

// Ensure Client implements the Provider interface
var _ shipper.Provider = (*Client)(nil)
