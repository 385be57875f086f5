package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/valutatrade/valutatrade/internal/config"
	"github.com/valutatrade/valutatrade/internal/currency"
	"github.com/valutatrade/valutatrade/internal/infra"
	"github.com/valutatrade/valutatrade/internal/logging"
	"github.com/valutatrade/valutatrade/internal/rates"
	"github.com/valutatrade/valutatrade/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("create data dir", "error", err)
		os.Exit(1)
	}

	registry := currency.Default()

	rateCache, err := rates.NewCache(filepath.Join(cfg.DataDir, "rates.json"), cfg.RateTTL)
	if err != nil {
		logger.Error("load rate cache", "error", err)
		os.Exit(1)
	}

	history := rates.NewHistoryLog(filepath.Join(cfg.DataDir, "exchange_rates.jsonl"))
	provider := rates.NewExchangeRateAPI(cfg.ProviderURL, cfg.ProviderAPIKey, cfg.ProviderTimeout)
	refresher := rates.NewRefresher(provider, rateCache, history, cfg.BaseCurrency, cfg.Basket, logger)

	// Warm the cache before serving; a failed fetch is not fatal because the
	// persisted snapshot may still hold fresh pairs.
	warmCtx, warmCancel := context.WithTimeout(ctx, cfg.ProviderTimeout)
	if updated, err := refresher.Refresh(warmCtx); err != nil {
		logger.Warn("initial rate refresh failed", "error", err)
	} else {
		logger.Info("rate cache warmed", "pairs", updated)
	}
	warmCancel()

	scheduler := cron.New()
	schedule := "@every " + cfg.RefreshInterval.String()
	if _, err := scheduler.AddFunc(schedule, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), cfg.ProviderTimeout)
		defer cancel()
		if _, err := refresher.Refresh(refreshCtx); err != nil {
			logger.Warn("scheduled rate refresh failed", "error", err)
		}
	}); err != nil {
		logger.Error("schedule rate refresh", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	var cache *redis.Client
	if cfg.RedisURL != "" {
		client, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
		cache = client
	} else {
		logger.Warn("REDIS_URL not set, idempotency and rate limiting disabled")
	}

	srv, err := server.New(cfg, cache, logger, registry, rateCache, refresher)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()
	logger.Info("server listening", "addr", cfg.Address(), "base_currency", cfg.BaseCurrency)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(cfg.ShutdownPeriod):
	}

	logger.Info("server exited cleanly")
}
