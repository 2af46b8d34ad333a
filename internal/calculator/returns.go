package calculator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"RiskOffRotator/internal/model"
)

var (
	ErrInsufficientData = errors.New("not enough data")
	ErrMisaligned       = errors.New("price series misaligned")
	ErrInvalidPrice     = errors.New("invalid close price")
)

// TrailingReturns computes the return over every trailing window of closes:
// out[j] = closes[j+window-1]/closes[j] - 1. The result has
// len(closes)-window+1 elements, oldest first.
func TrailingReturns(closes []float64, window int) ([]float64, error) {
	if window < 2 {
		return nil, errors.New("window must be at least 2")
	}
	if len(closes) < window {
		return nil, fmt.Errorf("%w: have %d closes, need %d", ErrInsufficientData, len(closes), window)
	}
	for i, c := range closes {
		if !(c > 0) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: %v at index %d", ErrInvalidPrice, c, i)
		}
	}
	out := make([]float64, len(closes)-window+1)
	for j := range out {
		out[j] = closes[j+window-1]/closes[j] - 1
	}
	return out, nil
}

// AlignCloses checks that every series covers exactly the same trading days
// and returns the shared dates with each symbol's closes in date order.
func AlignCloses(series map[string][]model.OHLCV) ([]time.Time, map[string][]float64, error) {
	if len(series) == 0 {
		return nil, nil, fmt.Errorf("%w: no series", ErrInsufficientData)
	}
	symbols := make([]string, 0, len(series))
	for s := range series {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	ref := symbols[0]
	refBars := sortedBars(series[ref])
	dates := make([]time.Time, len(refBars))
	for i, b := range refBars {
		dates[i] = b.Time
	}

	closes := make(map[string][]float64, len(series))
	for _, s := range symbols {
		bars := sortedBars(series[s])
		if len(bars) != len(refBars) {
			return nil, nil, fmt.Errorf("%w: %s has %d bars, %s has %d", ErrMisaligned, s, len(bars), ref, len(refBars))
		}
		c := make([]float64, len(bars))
		for i, b := range bars {
			if dayKey(b.Time) != dayKey(dates[i]) {
				return nil, nil, fmt.Errorf("%w: %s bar %d is %s, %s has %s",
					ErrMisaligned, s, i, dayKey(b.Time), ref, dayKey(dates[i]))
			}
			c[i] = b.Close
		}
		closes[s] = c
	}
	return dates, closes, nil
}

// BuildSnapshots turns aligned daily bars into the trailing lookback window of
// return snapshots, oldest first.
func BuildSnapshots(series map[string][]model.OHLCV, returnWindow, lookback int) ([]model.ReturnSnapshot, error) {
	if lookback < 1 {
		return nil, errors.New("lookback must be positive")
	}
	dates, closes, err := AlignCloses(series)
	if err != nil {
		return nil, err
	}
	need := lookback + returnWindow - 1
	if len(dates) < need {
		return nil, fmt.Errorf("%w: have %d aligned days, need %d", ErrInsufficientData, len(dates), need)
	}

	offset := len(dates) - need
	snaps := make([]model.ReturnSnapshot, lookback)
	for i := range snaps {
		snaps[i] = model.ReturnSnapshot{
			Date:    dates[offset+returnWindow-1+i],
			Returns: make(map[string]float64, len(closes)),
		}
	}
	for sym, c := range closes {
		rets, err := TrailingReturns(c[offset:], returnWindow)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sym, err)
		}
		for i, r := range rets {
			snaps[i].Returns[sym] = r
		}
	}
	return snaps, nil
}

func sortedBars(bars []model.OHLCV) []model.OHLCV {
	out := make([]model.OHLCV, len(bars))
	copy(out, bars)
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
