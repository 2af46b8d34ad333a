package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskOffRotator/internal/model"
)

func makeBars(start time.Time, closes ...float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func TestTrailingReturns(t *testing.T) {
	rets, err := TrailingReturns([]float64{100, 110, 121, 90}, 2)
	require.NoError(t, err)
	require.Len(t, rets, 3)
	assert.InDelta(t, 0.10, rets[0], 1e-9)
	assert.InDelta(t, 0.10, rets[1], 1e-9)
	assert.InDelta(t, 90.0/121-1, rets[2], 1e-9)

	rets, err = TrailingReturns([]float64{100, 110, 121, 90}, 4)
	require.NoError(t, err)
	require.Len(t, rets, 1)
	assert.InDelta(t, -0.1, rets[0], 1e-9)
}

func TestTrailingReturns_Errors(t *testing.T) {
	_, err := TrailingReturns([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = TrailingReturns([]float64{0, 2, 3}, 2)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = TrailingReturns([]float64{1, 2, 3}, 1)
	assert.Error(t, err)
}

func TestTrailingReturns_RejectsBadEndPrice(t *testing.T) {
	for _, bad := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		rets, err := TrailingReturns([]float64{10, 10, 10, bad}, 2)
		assert.ErrorIs(t, err, ErrInvalidPrice, "close %v", bad)
		assert.Nil(t, rets)
	}
}

func TestBuildSnapshots_ZeroLastClose(t *testing.T) {
	start := time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC)
	series := map[string][]model.OHLCV{
		"DBB": makeBars(start, 10, 10, 10, 0),
		"XLI": makeBars(start, 10, 10, 10, 10),
	}
	_, err := BuildSnapshots(series, 2, 3)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestAlignCloses_SortsAndMatches(t *testing.T) {
	start := time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC)
	a := makeBars(start, 1, 2, 3)
	b := makeBars(start, 4, 5, 6)
	// reverse b to check ordering is normalised
	b[0], b[2] = b[2], b[0]

	dates, closes, err := AlignCloses(map[string][]model.OHLCV{"AAA": a, "BBB": b})
	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.Equal(t, []float64{1, 2, 3}, closes["AAA"])
	assert.Equal(t, []float64{4, 5, 6}, closes["BBB"])
}

func TestAlignCloses_Gap(t *testing.T) {
	start := time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC)
	a := makeBars(start, 1, 2, 3)
	b := makeBars(start, 4, 5, 6)
	b[1].Time = b[1].Time.AddDate(0, 0, 7)

	_, _, err := AlignCloses(map[string][]model.OHLCV{"AAA": a, "BBB": b})
	assert.ErrorIs(t, err, ErrMisaligned)

	_, _, err = AlignCloses(map[string][]model.OHLCV{"AAA": a, "BBB": b[:2]})
	assert.ErrorIs(t, err, ErrMisaligned)
}

func TestBuildSnapshots(t *testing.T) {
	start := time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC)
	series := map[string][]model.OHLCV{
		"AAA": makeBars(start, 100, 100, 100, 100, 90, 80),
		"BBB": makeBars(start, 10, 11, 12, 13, 14, 15),
	}

	snaps, err := BuildSnapshots(series, 3, 3)
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	assert.Equal(t, start.AddDate(0, 0, 3), snaps[0].Date)
	assert.Equal(t, start.AddDate(0, 0, 5), snaps[2].Date)
	assert.InDelta(t, 0.0, snaps[0].Returns["AAA"], 1e-9)
	assert.InDelta(t, -0.2, snaps[2].Returns["AAA"], 1e-9)
	assert.InDelta(t, 15.0/13-1, snaps[2].Returns["BBB"], 1e-9)

	_, err = BuildSnapshots(series, 3, 5)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
