package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"RiskOffRotator/internal/model"
)

// ResilientFetcher rate-limits calls to the wrapped fetcher and stops calling
// it for a while after repeated failures.
type ResilientFetcher struct {
	next    Fetcher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewResilientFetcher wraps next with a token bucket of rps/burst and a
// circuit breaker that opens after three consecutive failures.
func NewResilientFetcher(next Fetcher, rps float64, burst int) *ResilientFetcher {
	st := gobreaker.Settings{
		Name:     next.Name(),
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("fetcher", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	return &ResilientFetcher{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

func (f *ResilientFetcher) Name() string { return f.next.Name() }

func (f *ResilientFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	res, err := f.breaker.Execute(func() (interface{}, error) {
		return f.next.FetchDailyBars(ctx, symbol, days)
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.OHLCV), nil
}

// State reports the breaker state.
func (f *ResilientFetcher) State() gobreaker.State { return f.breaker.State() }
