package model

import "time"

// Allocation names.
const (
	AllocationMarket = "market"
	AllocationSafe   = "safe"
)

// TargetWeights maps an instrument to its target portfolio fraction.
type TargetWeights map[string]float64

// Clone returns an independent copy.
func (w TargetWeights) Clone() TargetWeights {
	out := make(TargetWeights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Total returns the sum of all weights.
func (w TargetWeights) Total() float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

// RebalanceRequest is a full-target rebalance handed to the executor.
type RebalanceRequest struct {
	ID          string        `json:"id"`
	Allocation  string        `json:"allocation"`
	Weights     TargetWeights `json:"weights"`
	Trigger     TriggerType   `json:"trigger"`
	RequestedAt time.Time     `json:"requested_at"`
}

// RebalanceResult reports what the executor did with a request.
type RebalanceResult struct {
	Request            RebalanceRequest `json:"request"`
	PreviousAllocation string           `json:"previous_allocation"`
	Switched           bool             `json:"switched"`
}

// PortfolioState tracks the paper portfolio target.
type PortfolioState struct {
	Allocation      string        `json:"allocation"`
	Weights         TargetWeights `json:"weights"`
	LastRequestID   string        `json:"last_request_id"`
	LastTrigger     TriggerType   `json:"last_trigger"`
	RebalanceCount  int           `json:"rebalance_count"`
	SwitchCount     int           `json:"switch_count"`
	LastRebalanceAt time.Time     `json:"last_rebalance_at"`
	LastSwitchAt    time.Time     `json:"last_switch_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
