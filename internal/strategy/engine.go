package strategy

import (
	"fmt"

	"RiskOffRotator/internal/model"
)

// Evaluate computes the regime signal from the trailing return snapshots,
// oldest first. Only the last p.Window snapshots are examined; fewer is an
// error. The result depends on nothing but p and snaps.
func Evaluate(p *Params, snaps []model.ReturnSnapshot) (*model.RegimeSignal, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(snaps) < p.Window {
		return nil, fmt.Errorf("%w: have %d snapshots, need %d", ErrWindowLength, len(snaps), p.Window)
	}
	snaps = snaps[len(snaps)-p.Window:]

	cs, err := EvaluateConditions(p, snaps)
	if err != nil {
		return nil, err
	}

	last := len(cs.Bear) - 1
	days := DaysSinceTrue(cs.Bear)
	sig := &model.RegimeSignal{
		AsOf:             cs.Dates[last],
		Window:           p.Window,
		SuspendDays:      p.SuspendDays,
		Suspended:        IsSuspended(days, p.SuspendDays),
		BearSignal:       cs.Bear[last],
		DaysSinceBear:    days,
		BearSeenInWindow: anyTrue(cs.Bear),
		Conditions: []model.ConditionState{
			conditionState(model.ConditionMetalsDown, cs.MetalsDown, p.SuspendDays),
			conditionState(model.ConditionIndustrialsDown, cs.IndustrialsDown, p.SuspendDays),
			conditionState(model.ConditionCostOfDebtUp, cs.CostOfDebtUp, p.SuspendDays),
			conditionState(model.ConditionDollarUp, cs.DollarUp, p.SuspendDays),
		},
	}
	return sig, nil
}

func conditionState(name string, series []bool, suspendDays int) model.ConditionState {
	days := DaysSinceTrue(series)
	return model.ConditionState{
		Name:      name,
		Today:     series[len(series)-1],
		DaysSince: days,
		Recent:    IsSuspended(days, suspendDays),
	}
}
