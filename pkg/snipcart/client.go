// Package snipcart provides a client for the Snipcart checkout platform's
// REST API, with response caching and typed order access.
package snipcart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the base URL for all Snipcart API interactions.
	DefaultBaseURL = "https://app.snipcart.com/api/"

	// CacheTag is attached to every cached response so the whole set can
	// be invalidated with one sweep.
	CacheTag = "snipcart-api-cache"

	// cacheKeyPrefix namespaces our keys inside a shared cache store.
	cacheKeyPrefix = "snipcart_"

	// The API authenticates with the secret key as the basic-auth user
	// and this literal as the password.
	authPassword = "password"
)

// Config holds client configuration.
type Config struct {
	// SecretKey is the Snipcart secret API key. When empty, every call
	// fails fast with ErrNotConfigured.
	SecretKey string

	// BaseURL overrides DefaultBaseURL. Used in tests.
	BaseURL string

	// CacheResponses globally enables caching of GET responses.
	CacheResponses bool

	// CacheTTL is how long cached GET responses live.
	CacheTTL time.Duration

	// Timeout applies to the underlying HTTP transport.
	Timeout time.Duration
}

// Client talks to the Snipcart REST API. GET responses may be cached;
// mutating requests never are.
//
// Propagation policy: missing credentials and 401 responses are hard
// failures. Every other upstream problem is logged and degrades to a nil
// result, so callers cannot distinguish "no data" from "upstream hiccup"
// at this layer.
type Client struct {
	cfg    Config
	cache  Cache
	logger *otelzap.Logger

	mu   sync.Mutex
	http *http.Client
}

// New creates a Snipcart API client. cache may be nil to disable caching
// entirely.
func New(cfg Config, cache Cache, logger *otelzap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &Client{cfg: cfg, cache: cache, logger: logger}
}

// IsConfigured reports whether a secret API key is present.
func (c *Client) IsConfigured() bool {
	return c.cfg.SecretKey != ""
}

// Get issues an authenticated GET against the given endpoint. With
// useCache true (and caching enabled in the config), a non-expired cached
// response is returned without a network call, and a successful response
// is stored under the endpoint's cache key before being returned. Failed
// or empty responses are never cached.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values, useCache bool) (json.RawMessage, error) {
	full := endpoint
	if len(params) > 0 {
		full += "?" + params.Encode()
	}

	useCache = useCache && c.cfg.CacheResponses && c.cache != nil
	key := cacheKeyPrefix + full

	if useCache {
		if cached, err := c.cache.Get(ctx, key); err == nil {
			return cached, nil
		}
	}

	data, err := c.do(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, err
	}

	if data != nil && useCache {
		if err := c.cache.Set(ctx, key, data, c.cfg.CacheTTL, CacheTag); err != nil {
			c.logger.Warn("Failed to cache API response",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return data, nil
}

// Post issues an authenticated POST. Never cached.
func (c *Client) Post(ctx context.Context, endpoint string, data any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, endpoint, data)
}

// Put issues an authenticated PUT. Never cached.
func (c *Client) Put(ctx context.Context, endpoint string, data any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, endpoint, data)
}

// Delete issues an authenticated DELETE. Never cached.
func (c *Client) Delete(ctx context.Context, endpoint string, data any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, endpoint, data)
}

// TokenIsValid asks Snipcart whether the provided webhook request token is
// genuine. Tokens are deleted upstream after this call, so it can only be
// used once, and an expired or consumed token comes back as a 404.
//
// Returns true only when the echoed token field exactly matches the input.
// Any transport error, mismatch, or missing field returns false; this
// check never produces an error.
func (c *Client) TokenIsValid(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	data, err := c.do(ctx, http.MethodGet, "requestvalidation/"+url.PathEscape(token), nil)
	if err != nil || data == nil {
		return false
	}

	var echoed struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &echoed); err != nil {
		return false
	}
	return echoed.Token == token
}

// InvalidateCache purges every cached GET response. Call whenever upstream
// state changes in ways the cache cannot detect on its own.
func (c *Client) InvalidateCache(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidateTag(ctx, CacheTag); err != nil {
		c.logger.Warn("Failed to invalidate API cache", zap.Error(err))
		return
	}
	c.logger.Info("API caches cleared")
}

// transport returns the memoized HTTP client, building it on first use.
func (c *Client) transport() (*http.Client, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http == nil {
		c.http = &http.Client{Timeout: c.cfg.Timeout}
	}
	return c.http, nil
}

// do performs an authenticated request and applies the propagation policy:
// 401 escalates as ErrUnauthorized, every other failure is logged and
// degrades to (nil, nil).
func (c *Client) do(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error) {
	client, err := c.transport()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", endpoint, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpointURL(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.SetBasicAuth(c.cfg.SecretKey, authPassword)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		c.logger.Warn("Snipcart API request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("Failed to read Snipcart API response",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, nil
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%s: %w", endpoint, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(raw)}
		c.logger.Warn("Snipcart API returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", endpoint),
			zap.String("body", apiErr.Body),
		)
		return nil, nil
	}

	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

func (c *Client) endpointURL(endpoint string) string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + endpoint
}
