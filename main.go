package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cartbridge/fulfillment/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "cartbridge",
	Short:   "Cartbridge Fulfillment - Snipcart checkout to shipping provider bridge",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	// Wire the upstream checkout client and its response cache
	cache, err := initCache(cfg, logger)
	if err != nil {
		return err
	}
	api := initSnipcartClient(cfg, cache, logger)

	// Initialize shipping providers and the rate aggregator
	registry := initProviderRegistry(cfg, logger)
	aggregator := initAggregator(cfg, registry, logger)

	logger.Info("Starting Cartbridge Fulfillment",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Strings("providers", registry.Names()),
	)

	// Start HTTP server
	srv := server.New(server.Config{
		Port:                cfg.Port,
		SkipTokenValidation: cfg.SkipTokenValidation,
	}, aggregator, api, api, initQuoteLog(), logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
