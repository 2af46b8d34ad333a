package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"RiskOffRotator/internal/collector"
	"RiskOffRotator/internal/config"
	"RiskOffRotator/internal/logging"
)

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildCollector wires fetcher -> rate limit/breaker -> optional redis cache.
// The returned cleanup closes the redis client if one was opened.
func buildCollector(ctx context.Context, cfg *config.Config) (*collector.Collector, func()) {
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout)
	}
	log.Info().Str("source", fetcher.Name()).Int("bars_per_symbol", cfg.RequiredBars()).Msg("data source selected")
	fetcher = collector.NewResilientFetcher(fetcher, cfg.DataSource.RequestsPerSecond, cfg.DataSource.Burst)

	cleanup := func() {}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, bar cache disabled")
			rdb.Close()
		} else {
			fetcher = collector.NewCachedFetcher(fetcher, rdb, cfg.Redis.TTL)
			cleanup = func() { rdb.Close() }
			log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("redis bar cache enabled")
		}
	}

	params := cfg.StrategyParams()
	col := collector.NewCollector(fetcher, params.Instruments.Symbols(), cfg.Strategy.ReturnWindow, cfg.Strategy.LookbackWindow)
	return col, cleanup
}
