package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"RiskOffRotator/internal/model"
)

// CachedFetcher keeps fetched bars in Redis for the rest of the UTC day, so
// the daily, weekly and record tasks share one download per instrument.
// Cache failures fall through to the wrapped fetcher.
type CachedFetcher struct {
	next Fetcher
	rdb  redis.Cmdable
	ttl  time.Duration
	now  func() time.Time
}

// NewCachedFetcher wraps next with a Redis cache.
func NewCachedFetcher(next Fetcher, rdb redis.Cmdable, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{next: next, rdb: rdb, ttl: ttl, now: time.Now}
}

func (f *CachedFetcher) Name() string { return f.next.Name() }

func (f *CachedFetcher) key(symbol string, days int) string {
	return fmt.Sprintf("riskoff:bars:%s:%s:%d:%s", f.next.Name(), symbol, days, f.now().UTC().Format("20060102"))
}

func (f *CachedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	key := f.key(symbol, days)

	data, err := f.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var bars []model.OHLCV
		if err := json.Unmarshal(data, &bars); err == nil {
			log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("bars served from cache")
			return bars, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	bars, err := f.next.FetchDailyBars(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(bars); err == nil {
		if err := f.rdb.Set(ctx, key, data, f.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return bars, nil
}
