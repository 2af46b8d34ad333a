package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"RiskOffRotator/internal/calculator"
	"RiskOffRotator/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars  map[string][]model.OHLCV
	Err   error
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, days int) ([]model.OHLCV, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	bars, ok := m.Bars[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: no bars for %s", symbol)
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// FlatBars generates count daily bars at a constant price ending on end.
func FlatBars(price float64, count int, end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches the signal instruments and turns them into aligned
// trailing return snapshots.
type Collector struct {
	Fetcher      Fetcher
	Symbols      []string
	ReturnWindow int
	Lookback     int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbols []string, returnWindow, lookback int) *Collector {
	return &Collector{Fetcher: fetcher, Symbols: symbols, ReturnWindow: returnWindow, Lookback: lookback}
}

// Collect fetches daily bars for every signal instrument and returns the
// lookback window of return snapshots, oldest first. Any fetch failure or
// date misalignment fails the whole collection.
func (c *Collector) Collect(ctx context.Context) ([]model.ReturnSnapshot, error) {
	need := c.Lookback + c.ReturnWindow - 1
	series := make(map[string][]model.OHLCV, len(c.Symbols))
	for _, sym := range c.Symbols {
		bars, err := c.Fetcher.FetchDailyBars(ctx, sym, need)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", sym, err)
		}
		log.Debug().Str("symbol", sym).Int("bars", len(bars)).Str("source", c.Fetcher.Name()).Msg("fetched daily bars")
		series[sym] = bars
	}
	snaps, err := calculator.BuildSnapshots(series, c.ReturnWindow, c.Lookback)
	if err != nil {
		return nil, fmt.Errorf("build return snapshots: %w", err)
	}
	return snaps, nil
}
