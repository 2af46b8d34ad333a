package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResilientFetcher_PassesThrough(t *testing.T) {
	mock := &MockFetcher{Bars: flatUniverse(10)}
	f := NewResilientFetcher(mock, 100, 10)

	bars, err := f.FetchDailyBars(context.Background(), "SHY", 5)
	require.NoError(t, err)
	assert.Len(t, bars, 5)
	assert.Equal(t, "mock", f.Name())
}

func TestResilientFetcher_OpensAfterFailures(t *testing.T) {
	mock := &MockFetcher{Err: errors.New("upstream down")}
	f := NewResilientFetcher(mock, 100, 10)

	for i := 0; i < 3; i++ {
		_, err := f.FetchDailyBars(context.Background(), "SHY", 5)
		assert.ErrorContains(t, err, "upstream down")
	}
	assert.Equal(t, gobreaker.StateOpen, f.State())

	_, err := f.FetchDailyBars(context.Background(), "SHY", 5)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, mock.Calls)
}

func TestResilientFetcher_CancelledContext(t *testing.T) {
	mock := &MockFetcher{Bars: flatUniverse(10)}
	f := NewResilientFetcher(mock, 0.001, 1)
	_, _ = f.FetchDailyBars(context.Background(), "SHY", 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchDailyBars(ctx, "SHY", 5)
	assert.Error(t, err)
	assert.Equal(t, 1, mock.Calls)
}
