package main

import (
	"context"

	"github.com/cartbridge/fulfillment/internal/config"
	"github.com/cartbridge/fulfillment/internal/telemetry"
	"github.com/cartbridge/fulfillment/pkg/shipper"
	"github.com/cartbridge/fulfillment/pkg/shipper/shipstation"
	"github.com/cartbridge/fulfillment/pkg/snipcart"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

// initCache picks the response cache backend: Redis when REDIS_URL is
// set, in-process memory otherwise.
func initCache(cfg *config.Config, logger *otelzap.Logger) (snipcart.Cache, error) {
	if cfg.RedisURL == "" {
		return snipcart.NewMemoryCache(), nil
	}

	cache, err := snipcart.NewRedisCache(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	logger.Info("Using Redis response cache")
	return cache, nil
}

func initSnipcartClient(cfg *config.Config, cache snipcart.Cache, logger *otelzap.Logger) *snipcart.Client {
	return snipcart.New(snipcart.Config{
		SecretKey:      cfg.SnipcartSecretKey,
		BaseURL:        cfg.SnipcartBaseURL,
		CacheResponses: cfg.CacheResponses,
		CacheTTL:       cfg.CacheTTL,
	}, cache, logger)
}

func initProviderRegistry(cfg *config.Config, logger *otelzap.Logger) *shipper.Registry {
	registry := shipper.NewRegistry()

	// Register enabled providers
	for _, name := range cfg.EnabledProviders {
		switch name {
		case shipstation.ProviderName:
			ss := shipstation.New(shipstation.Config{
				APIKey:                   cfg.ShipStationAPIKey,
				APISecret:                cfg.ShipStationAPISecret,
				BaseURL:                  cfg.ShipStationBaseURL,
				DefaultCarrierCode:       cfg.ShipStationCarrierCode,
				FromPostalCode:           cfg.ShipStationFromPostal,
				DefaultOrderConfirmation: cfg.ShipStationConfirmation,
				UseMock:                  cfg.ShipStationUseMock,
			}, logger)
			registry.Register(ss)
		default:
			logger.Warn("Unknown shipping provider in configuration",
				zap.String("provider", name))
		}
	}

	return registry
}

func initAggregator(cfg *config.Config, registry *shipper.Registry, logger *otelzap.Logger) *shipper.Aggregator {
	defaults := shipper.Package{
		Weight: cfg.DefaultPackageWeight,
		Length: cfg.DefaultPackageLength,
		Width:  cfg.DefaultPackageWidth,
		Height: cfg.DefaultPackageHeight,
	}
	return shipper.NewAggregator(registry, cfg.EnabledProviders, defaults, logger)
}

func initQuoteLog() shipper.QuoteLog {
	return shipper.NewMemoryQuoteLog(0)
}
