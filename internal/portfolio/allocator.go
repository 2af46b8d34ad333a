package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"RiskOffRotator/internal/model"
)

var (
	ErrNegativeWeight     = errors.New("negative target weight")
	ErrInvalidWeight      = errors.New("non-finite target weight")
	ErrEmptyAllocation    = errors.New("empty target allocation")
	ErrOverlappingTargets = errors.New("instrument in both allocations")
)

// Executor carries out a full-target rebalance. Portfolio optimisation and
// order placement live behind it.
type Executor interface {
	Rebalance(ctx context.Context, req model.RebalanceRequest) (*model.RebalanceResult, error)
}

// Allocator switches the whole portfolio between the market and safe
// allocations.
type Allocator struct {
	market model.TargetWeights
	safe   model.TargetWeights
	exec   Executor
	now    func() time.Time
}

// NewAllocator validates and copies the two static weight maps.
func NewAllocator(market, safe model.TargetWeights, exec Executor) (*Allocator, error) {
	if err := checkWeights(market); err != nil {
		return nil, fmt.Errorf("market: %w", err)
	}
	if err := checkWeights(safe); err != nil {
		return nil, fmt.Errorf("safe: %w", err)
	}
	for sym := range market {
		if _, ok := safe[sym]; ok {
			return nil, fmt.Errorf("%w: %s", ErrOverlappingTargets, sym)
		}
	}
	for name, w := range map[string]model.TargetWeights{model.AllocationMarket: market, model.AllocationSafe: safe} {
		if total := w.Total(); math.Abs(total-1) > 1e-9 {
			log.Warn().Str("allocation", name).Float64("total", total).Msg("target weights do not sum to 1")
		}
	}
	return &Allocator{market: market.Clone(), safe: safe.Clone(), exec: exec, now: time.Now}, nil
}

// Select returns the allocation name and weights for the given regime.
func (a *Allocator) Select(suspended bool) (string, model.TargetWeights) {
	if suspended {
		return model.AllocationSafe, a.safe.Clone()
	}
	return model.AllocationMarket, a.market.Clone()
}

// RebalanceOut moves to the safe allocation when the signal is suspended.
// It returns a nil result when the portfolio should stay in the market.
func (a *Allocator) RebalanceOut(ctx context.Context, sig *model.RegimeSignal, trigger model.TriggerType) (*model.RebalanceResult, error) {
	if !sig.Suspended {
		return nil, nil
	}
	return a.rebalance(ctx, true, trigger)
}

// RebalanceIn moves to the market allocation when the signal is not
// suspended. It returns a nil result otherwise.
func (a *Allocator) RebalanceIn(ctx context.Context, sig *model.RegimeSignal, trigger model.TriggerType) (*model.RebalanceResult, error) {
	if sig.Suspended {
		return nil, nil
	}
	return a.rebalance(ctx, false, trigger)
}

func (a *Allocator) rebalance(ctx context.Context, suspended bool, trigger model.TriggerType) (*model.RebalanceResult, error) {
	name, weights := a.Select(suspended)
	req := model.RebalanceRequest{
		ID:          uuid.New().String(),
		Allocation:  name,
		Weights:     weights,
		Trigger:     trigger,
		RequestedAt: a.now(),
	}
	res, err := a.exec.Rebalance(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("rebalance to %s: %w", name, err)
	}
	log.Info().Str("request_id", req.ID).Str("allocation", name).Str("trigger", string(trigger)).
		Bool("switched", res.Switched).Msg("rebalance requested")
	return res, nil
}

func checkWeights(w model.TargetWeights) error {
	if len(w) == 0 {
		return ErrEmptyAllocation
	}
	for sym, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeight, sym, v)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s=%v", ErrNegativeWeight, sym, v)
		}
	}
	return nil
}
