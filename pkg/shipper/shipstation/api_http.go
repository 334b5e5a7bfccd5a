package shipstation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cartbridge/fulfillment/pkg/shipper"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetRates fetches rate quotes via POST /shipments/getrates.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RateRequest) ([]RateResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/shipments/getrates", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var rates []RateResponse
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return nil, fmt.Errorf("failed to decode rates response: %w", err)
	}
	return rates, nil
}

// CreateOrder creates an order via POST /orders/createorder.
func (c *HTTPAPIClient) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/orders/createorder", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var result OrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	return &result, nil
}

// GetOrder fetches an order via GET /orders/{orderId}.
func (c *HTTPAPIClient) GetOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result OrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	return &result, nil
}

// ListOrders fetches orders via GET /orders.
func (c *HTTPAPIClient) ListOrders(ctx context.Context, params url.Values) (*OrdersResponse, error) {
	path := "/orders"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result OrdersResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode orders response: %w", err)
	}
	return &result, nil
}

// doRequest performs an HTTP request with proper headers and basic
// authentication (API key and secret).
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.apiKey, c.apiSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "cartbridge-fulfillment/1.0")

	return c.httpClient.Do(req)
}

// parseError maps an HTTP failure to a typed provider error. 401 and 429
// carry sentinel causes so callers can branch with errors.Is.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	message := ""
	var body struct {
		Message      string `json:"Message"`
		ExceptionMsg string `json:"ExceptionMessage"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		message = body.Message
		if body.ExceptionMsg != "" {
			message = body.ExceptionMsg
		}
	}
	if message == "" {
		message = string(raw)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return shipper.NewProviderError(ProviderName, "AUTH_FAILED", message).
			WithStatusCode(resp.StatusCode).
			WithCause(shipper.ErrAuthenticationFailed)
	case http.StatusNotFound:
		return shipper.NewProviderError(ProviderName, "NOT_FOUND", message).
			WithStatusCode(resp.StatusCode).
			WithCause(shipper.ErrOrderNotFound)
	case http.StatusTooManyRequests:
		return shipper.NewProviderError(ProviderName, "RATE_LIMIT", message).
			WithStatusCode(resp.StatusCode).
			WithCause(shipper.ErrRateLimitExceeded).
			WithRetryable(true)
	default:
		code := fmt.Sprintf("HTTP_%d", resp.StatusCode)
		perr := shipper.NewProviderError(ProviderName, code, message).
			WithStatusCode(resp.StatusCode)
		if resp.StatusCode >= 500 {
			perr = perr.WithCause(shipper.ErrServiceUnavailable).WithRetryable(true)
		}
		return perr
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
