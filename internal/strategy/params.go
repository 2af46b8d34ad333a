package strategy

import (
	"errors"
	"fmt"
)

// Instruments names the four signal ETFs by role.
type Instruments struct {
	Metals      string
	Industrials string
	ShortBonds  string
	Dollar      string
}

// Symbols returns the signal instruments in a fixed order.
func (i Instruments) Symbols() []string {
	return []string{i.Metals, i.Industrials, i.ShortBonds, i.Dollar}
}

// Thresholds are the per-condition trigger levels on trailing returns.
type Thresholds struct {
	MetalsDown      float64 // metals return below this triggers
	IndustrialsDown float64 // industrials return below this triggers
	ShortBondDown   float64 // short bond return below this triggers cost_of_debt_up
	DollarUp        float64 // dollar return above this triggers
}

// Params is the immutable configuration of one evaluation.
type Params struct {
	Instruments Instruments
	Thresholds  Thresholds
	SuspendDays int
	Window      int // number of daily snapshots examined by DaysSinceTrue
}

// DefaultParams mirrors the reference configuration.
func DefaultParams() Params {
	return Params{
		Instruments: Instruments{Metals: "DBB", Industrials: "XLI", ShortBonds: "SHY", Dollar: "UUP"},
		Thresholds: Thresholds{
			MetalsDown:      -0.07,
			IndustrialsDown: -0.07,
			ShortBondDown:   -0.01,
			DollarUp:        0.07,
		},
		SuspendDays: 14,
		Window:      60,
	}
}

// Validate rejects inconsistent parameters. The window must be longer than
// the suspension period, otherwise the never-triggered value Window-1 would
// always read as suspended.
func (p Params) Validate() error {
	if p.SuspendDays <= 0 {
		return errors.New("suspend days must be positive")
	}
	if p.Window <= p.SuspendDays {
		return fmt.Errorf("%w: window %d must exceed suspend days %d", ErrWindowLength, p.Window, p.SuspendDays)
	}
	seen := make(map[string]bool, 4)
	for _, s := range p.Instruments.Symbols() {
		if s == "" {
			return errors.New("all four signal instruments are required")
		}
		if seen[s] {
			return fmt.Errorf("signal instrument %s listed twice", s)
		}
		seen[s] = true
	}
	return nil
}
