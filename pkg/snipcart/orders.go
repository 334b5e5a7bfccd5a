package snipcart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// filterTimeFormat renders date filters the way the orders endpoint
// expects them: ISO-8601 with a numeric zone offset.
const filterTimeFormat = "2006-01-02T15:04:05-07:00"

// orderListParams is the whitelist of query parameters the orders
// endpoint understands. Anything else is silently dropped.
var orderListParams = []string{
	"offset",
	"limit",
	"from",
	"to",
	"status",
	"invoiceNumber",
	"placedBy",
}

// OrderService fetches orders from the upstream platform as typed models,
// transparently assembling complete result sets across the API's
// per-request item ceiling.
type OrderService struct {
	api    *Client
	logger *otelzap.Logger
}

// NewOrderService creates an OrderService on top of the given API client.
func NewOrderService(api *Client, logger *otelzap.Logger) *OrderService {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &OrderService{api: api, logger: logger}
}

// ordersPage mirrors the orders endpoint's envelope. Items stay raw so a
// single malformed item cannot abort the page.
type ordersPage struct {
	Items      []json.RawMessage `json:"items"`
	TotalItems int               `json:"totalItems"`
	Offset     int               `json:"offset"`
	Limit      int               `json:"limit"`
}

// ListOrders fetches one page of orders. page is 1-based and translated
// into the offset/limit pair the upstream understands. Filter params
// follow the whitelist; time.Time values are formatted before
// transmission. A soft upstream failure yields an empty list.
func (s *OrderService) ListOrders(ctx context.Context, page, limit int, params map[string]any) (*OrderList, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 25
	}

	merged := make(map[string]any, len(params)+2)
	for k, v := range params {
		merged[k] = v
	}
	merged["offset"] = (page - 1) * limit
	merged["limit"] = limit

	result, err := s.fetchOrders(ctx, merged)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &OrderList{Limit: limit}, nil
	}

	return &OrderList{
		Items:      s.decodeOrders(result.Items),
		TotalItems: result.TotalItems,
		Offset:     result.Offset,
		Limit:      limit,
	}, nil
}

// AllOrders fetches every order matching the filters, issuing as many
// requests as the upstream's page ceiling requires. The offset advances by
// the number of items actually received, so successive requests never
// overlap, and the loop ends as soon as the accumulated count reaches the
// reported total or a fetch comes back empty. If the reported total
// fluctuates because of concurrent writes upstream, forward progress wins
// over exactness.
func (s *OrderService) AllOrders(ctx context.Context, params map[string]any) ([]*Order, error) {
	var all []*Order
	collected := 0
	offset := 0

	for {
		merged := make(map[string]any, len(params)+1)
		for k, v := range params {
			merged[k] = v
		}
		merged["offset"] = offset

		result, err := s.fetchOrders(ctx, merged)
		if err != nil {
			return all, err
		}
		if result == nil || len(result.Items) == 0 {
			break
		}

		all = append(all, s.decodeOrders(result.Items)...)
		collected += len(result.Items)

		if collected >= result.TotalItems {
			break
		}
		offset += len(result.Items)
	}

	return all, nil
}

// GetOrder fetches a single order by its token. Returns (nil, nil) when
// the order does not exist.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	data, err := s.api.Get(ctx, "orders/"+url.PathEscape(orderID), nil, true)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		s.logger.Warn("Discarding undecodable order",
			zap.String("orderId", orderID),
			zap.Error(err),
		)
		return nil, nil
	}
	return &order, nil
}

// OrderNotifications fetches the notifications Snipcart has sent for an
// order.
func (s *OrderService) OrderNotifications(ctx context.Context, orderID string) ([]*Notification, error) {
	data, err := s.api.Get(ctx, "orders/"+url.PathEscape(orderID)+"/notifications", nil, true)
	if err != nil || data == nil {
		return nil, err
	}

	var notifications []*Notification
	if err := decodeCollection(data, &notifications); err != nil {
		s.logger.Warn("Discarding undecodable notifications",
			zap.String("orderId", orderID),
			zap.Error(err),
		)
		return nil, nil
	}
	return notifications, nil
}

// OrderRefunds fetches an order's refunds.
func (s *OrderService) OrderRefunds(ctx context.Context, orderID string) ([]*Refund, error) {
	data, err := s.api.Get(ctx, "orders/"+url.PathEscape(orderID)+"/refunds", nil, true)
	if err != nil || data == nil {
		return nil, err
	}

	var refunds []*Refund
	if err := decodeCollection(data, &refunds); err != nil {
		s.logger.Warn("Discarding undecodable refunds",
			zap.String("orderId", orderID),
			zap.Error(err),
		)
		return nil, nil
	}
	return refunds, nil
}

// CreateRefund creates a refund for an order, optionally asking Snipcart
// to notify the customer.
func (s *OrderService) CreateRefund(ctx context.Context, orderID string, amount float64, comment string, notifyCustomer bool) (*Refund, error) {
	payload := map[string]any{
		"amount":         amount,
		"comment":        comment,
		"notifyCustomer": notifyCustomer,
	}

	data, err := s.api.Post(ctx, "orders/"+url.PathEscape(orderID)+"/refunds", payload)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var refund Refund
	if err := json.Unmarshal(data, &refund); err != nil {
		return nil, fmt.Errorf("decoding refund response: %w", err)
	}
	refund.OrderToken = orderID
	return &refund, nil
}

// fetchOrders queries the orders endpoint with whitelisted parameters.
// The special "cache" key (bool) controls response caching for this call
// and is never transmitted. Returns nil on a soft upstream failure.
func (s *OrderService) fetchOrders(ctx context.Context, params map[string]any) (*ordersPage, error) {
	useCache := true
	if v, ok := params["cache"].(bool); ok {
		useCache = v
	}

	query := url.Values{}
	for _, key := range orderListParams {
		value, ok := params[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case time.Time:
			query.Set(key, v.Format(filterTimeFormat))
		case *time.Time:
			if v != nil {
				query.Set(key, v.Format(filterTimeFormat))
			}
		case string:
			query.Set(key, v)
		case int:
			query.Set(key, strconv.Itoa(v))
		default:
			query.Set(key, fmt.Sprint(v))
		}
	}

	data, err := s.api.Get(ctx, "orders", query, useCache)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var page ordersPage
	if err := json.Unmarshal(data, &page); err != nil {
		s.logger.Warn("Discarding undecodable orders page", zap.Error(err))
		return nil, nil
	}
	return &page, nil
}

// decodeOrders turns raw order payloads into typed models, skipping any
// item that fails to decode or lacks a token.
func (s *OrderService) decodeOrders(items []json.RawMessage) []*Order {
	orders := make([]*Order, 0, len(items))
	for _, raw := range items {
		var order Order
		if err := json.Unmarshal(raw, &order); err != nil {
			s.logger.Warn("Skipping undecodable order item", zap.Error(err))
			continue
		}
		if order.Token == "" {
			s.logger.Warn("Skipping order item without a token")
			continue
		}
		orders = append(orders, &order)
	}
	return orders
}

// decodeCollection decodes either a bare JSON array or an {"items": []}
// envelope into out.
func decodeCollection(data json.RawMessage, out any) error {
	if err := json.Unmarshal(data, out); err == nil {
		return nil
	}
	var envelope struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	return json.Unmarshal(envelope.Items, out)
}
