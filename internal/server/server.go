package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cartbridge/fulfillment/internal/telemetry"
	"github.com/cartbridge/fulfillment/pkg/shipper"
	"github.com/cartbridge/fulfillment/pkg/snipcart"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// requestTokenHeader carries the single-use token Snipcart includes on
// every webhook call.
const requestTokenHeader = "X-Snipcart-RequestToken"

// TokenValidator verifies webhook request tokens against the upstream
// platform. Implemented by snipcart.Client.
type TokenValidator interface {
	TokenIsValid(ctx context.Context, token string) bool
}

// CacheInvalidator sweeps cached upstream responses. Implemented by
// snipcart.Client.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// Server is the HTTP server for the fulfillment bridge. It answers the
// checkout platform's webhooks and exposes health and metrics endpoints.
type Server struct {
	cfg        Config
	aggregator *shipper.Aggregator
	tokens     TokenValidator
	cache      CacheInvalidator
	quoteLog   shipper.QuoteLog
	logger     *otelzap.Logger
	metrics    *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int

	// SkipTokenValidation disables webhook token checks. Local
	// development only.
	SkipTokenValidation bool
}

// New creates a new server instance.
func New(cfg Config, aggregator *shipper.Aggregator, tokens TokenValidator, cache CacheInvalidator, quoteLog shipper.QuoteLog, logger *otelzap.Logger) *Server {
	return &Server{
		cfg:        cfg,
		aggregator: aggregator,
		tokens:     tokens,
		cache:      cache,
		quoteLog:   quoteLog,
		logger:     logger,
		metrics:    telemetry.NewMetrics(),
	}
}

// Handler returns the server's HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/webhooks/snipcart", s.handleWebhook)
	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// webhookPayload is the envelope Snipcart posts to webhook subscribers.
type webhookPayload struct {
	EventName string          `json:"eventName"`
	Mode      string          `json:"mode,omitempty"`
	Content   json.RawMessage `json:"content"`
}

type webhookError struct {
	Message string `json:"message"`
}

type webhookErrorResponse struct {
	Errors []webhookError `json:"errors"`
}

// rateResponse is the shape Snipcart expects back from a
// shippingrates.fetch webhook.
type rateResponse struct {
	Cost                     float64 `json:"cost"`
	Description              string  `json:"description"`
	GuaranteedDaysToDelivery int     `json:"guaranteedDaysToDelivery,omitempty"`
}

type providerOrderResponse struct {
	ID            string `json:"id"`
	OrderNumber   string `json:"orderNumber"`
	InvoiceNumber string `json:"invoiceNumber"`
	Status        string `json:"status"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed, use POST")
		return
	}

	// Each token is consumed upstream by the validation call, so a
	// failed check is final and never retried.
	if !s.cfg.SkipTokenValidation {
		token := r.Header.Get(requestTokenHeader)
		if token == "" {
			s.metrics.RecordWebhook("unknown", "missing_token", time.Since(start).Seconds())
			s.writeError(w, http.StatusBadRequest, "Missing "+requestTokenHeader+" header")
			return
		}
		if !s.tokens.TokenIsValid(r.Context(), token) {
			s.logger.Warn("Rejected webhook with invalid token")
			s.metrics.RecordWebhook("unknown", "invalid_token", time.Since(start).Seconds())
			s.writeError(w, http.StatusUnauthorized, "Invalid request token")
			return
		}
	}

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	status := "ok"
	switch payload.EventName {
	case "shippingrates.fetch":
		s.handleShippingRatesFetch(w, r, &payload)
	case "order.completed":
		s.handleOrderCompleted(w, r, &payload)
	default:
		s.logger.Info("Ignoring webhook event", zap.String("event", payload.EventName))
		status = "ignored"
		s.writeJSON(w, http.StatusOK, map[string]bool{"ignored": true})
	}
	s.metrics.RecordWebhook(payload.EventName, status, time.Since(start).Seconds())
}

func (s *Server) handleShippingRatesFetch(w http.ResponseWriter, r *http.Request, payload *webhookPayload) {
	var order snipcart.Order
	if err := json.Unmarshal(payload.Content, &order); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid order payload: "+err.Error())
		return
	}

	collection := s.aggregator.CollectRatesForOrder(r.Context(), &order)
	s.metrics.RecordRates(len(collection.Rates))

	if s.quoteLog != nil {
		entry := shipper.QuoteLogEntry{
			Token:   r.Header.Get(requestTokenHeader),
			Invoice: order.InvoiceNumber,
			Rates:   collection.Rates,
		}
		if err := s.quoteLog.Record(r.Context(), entry); err != nil {
			s.logger.Warn("Failed to record shipping quote", zap.Error(err))
		}
	}

	rates := make([]rateResponse, len(collection.Rates))
	for i, rate := range collection.Rates {
		rates[i] = rateResponse{
			Cost:        rate.Cost,
			Description: rate.Description,
		}
		if rate.Guaranteed {
			rates[i].GuaranteedDaysToDelivery = rate.DeliveryDays
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"rates": rates})
}

func (s *Server) handleOrderCompleted(w http.ResponseWriter, r *http.Request, payload *webhookPayload) {
	var order snipcart.Order
	if err := json.Unmarshal(payload.Content, &order); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid order payload: "+err.Error())
		return
	}

	result := s.aggregator.DispatchCompletedOrder(r.Context(), &order)
	for provider := range result.Errors {
		s.metrics.RecordProviderError(provider)
	}

	// Upstream state changed; cached listings are stale now.
	s.cache.InvalidateCache(r.Context())
	s.metrics.RecordCacheOperation("invalidate")

	orders := make(map[string]providerOrderResponse, len(result.Orders))
	for name, po := range result.Orders {
		orders[name] = providerOrderResponse{
			ID:            po.ID,
			OrderNumber:   po.OrderNumber,
			InvoiceNumber: po.InvoiceNumber,
			Status:        po.Status,
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"errors": result.Errors,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, webhookErrorResponse{
		Errors: []webhookError{{Message: message}},
	})
}
