package strategy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"RiskOffRotator/internal/model"
)

var (
	ErrMissingReturn = errors.New("missing return")
	ErrWindowLength  = errors.New("invalid window length")
)

// EvaluateConditions derives the four bear conditions and their OR for every
// snapshot. Every snapshot must carry a finite return for all four signal
// instruments.
func EvaluateConditions(p *Params, snaps []model.ReturnSnapshot) (*model.ConditionSeries, error) {
	n := len(snaps)
	cs := &model.ConditionSeries{
		Dates:           make([]time.Time, 0, n),
		MetalsDown:      make([]bool, n),
		IndustrialsDown: make([]bool, n),
		CostOfDebtUp:    make([]bool, n),
		DollarUp:        make([]bool, n),
		Bear:            make([]bool, n),
	}
	for i, s := range snaps {
		metals, err := lookup(s, p.Instruments.Metals)
		if err != nil {
			return nil, err
		}
		industrials, err := lookup(s, p.Instruments.Industrials)
		if err != nil {
			return nil, err
		}
		bonds, err := lookup(s, p.Instruments.ShortBonds)
		if err != nil {
			return nil, err
		}
		dollar, err := lookup(s, p.Instruments.Dollar)
		if err != nil {
			return nil, err
		}

		cs.Dates = append(cs.Dates, s.Date)
		cs.MetalsDown[i] = metals < p.Thresholds.MetalsDown
		cs.IndustrialsDown[i] = industrials < p.Thresholds.IndustrialsDown
		cs.CostOfDebtUp[i] = bonds < p.Thresholds.ShortBondDown
		cs.DollarUp[i] = dollar > p.Thresholds.DollarUp
		cs.Bear[i] = cs.MetalsDown[i] || cs.IndustrialsDown[i] || cs.CostOfDebtUp[i] || cs.DollarUp[i]
	}
	return cs, nil
}

func lookup(s model.ReturnSnapshot, symbol string) (float64, error) {
	v, ok := s.Returns[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %s on %s", ErrMissingReturn, symbol, s.Date.Format("2006-01-02"))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s on %s is %v", ErrMissingReturn, symbol, s.Date.Format("2006-01-02"), v)
	}
	return v, nil
}
