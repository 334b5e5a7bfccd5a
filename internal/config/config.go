package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// SkipTokenValidation disables webhook request-token checks. Local
	// development only.
	SkipTokenValidation bool `envconfig:"SKIP_TOKEN_VALIDATION" default:"false"`

	// Snipcart (upstream checkout platform)
	SnipcartSecretKey string        `envconfig:"SNIPCART_SECRET_KEY"`
	SnipcartBaseURL   string        `envconfig:"SNIPCART_BASE_URL" default:"https://app.snipcart.com/api/"`
	CacheResponses    bool          `envconfig:"CACHE_RESPONSES" default:"true"`
	CacheTTL          time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	// RedisURL switches the response cache from in-process memory to a
	// shared Redis instance when set.
	RedisURL string `envconfig:"REDIS_URL"`

	// Shipping providers
	EnabledProviders []string `envconfig:"ENABLED_PROVIDERS" default:"shipStation"`

	// ShipStation
	ShipStationAPIKey       string `envconfig:"SHIPSTATION_API_KEY"`
	ShipStationAPISecret    string `envconfig:"SHIPSTATION_API_SECRET"`
	ShipStationBaseURL      string `envconfig:"SHIPSTATION_BASE_URL" default:"https://ssapi.shipstation.com"`
	ShipStationCarrierCode  string `envconfig:"SHIPSTATION_CARRIER_CODE" default:"stamps_com"`
	ShipStationFromPostal   string `envconfig:"SHIPSTATION_FROM_POSTAL_CODE"`
	ShipStationConfirmation string `envconfig:"SHIPSTATION_CONFIRMATION" default:"delivery"`
	ShipStationUseMock      bool   `envconfig:"SHIPSTATION_USE_MOCK" default:"false"`

	// Package defaults applied when an order's items carry no weight or
	// the box size is fixed. Weight in grams, dimensions in centimeters.
	DefaultPackageWeight float64 `envconfig:"DEFAULT_PACKAGE_WEIGHT" default:"0"`
	DefaultPackageLength float64 `envconfig:"DEFAULT_PACKAGE_LENGTH" default:"0"`
	DefaultPackageWidth  float64 `envconfig:"DEFAULT_PACKAGE_WIDTH" default:"0"`
	DefaultPackageHeight float64 `envconfig:"DEFAULT_PACKAGE_HEIGHT" default:"0"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"cartbridge-fulfillment"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("cache.responses", c.CacheResponses),
		attribute.StringSlice("providers.enabled", c.EnabledProviders),
	}
}
