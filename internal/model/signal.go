package model

import "time"

// TriggerType indicates which scheduled task produced an event.
type TriggerType string

const (
	TriggerDaily  TriggerType = "DAILY"
	TriggerWeekly TriggerType = "WEEKLY"
	TriggerRecord TriggerType = "RECORD"
	TriggerManual TriggerType = "MANUAL"
)

// Condition names, as recorded and reported.
const (
	ConditionMetalsDown      = "basic_metals_down"
	ConditionIndustrialsDown = "industrial_sector_down"
	ConditionCostOfDebtUp    = "cost_of_debt_up"
	ConditionDollarUp        = "dollar_up"
)

// ConditionSeries holds the four bear conditions and their OR, aligned to the
// snapshot window (oldest first).
type ConditionSeries struct {
	Dates           []time.Time
	MetalsDown      []bool
	IndustrialsDown []bool
	CostOfDebtUp    []bool
	DollarUp        []bool
	Bear            []bool
}

// ConditionState is the observability view of one bear condition.
type ConditionState struct {
	Name      string `json:"name"`
	Today     bool   `json:"today"`
	DaysSince int    `json:"days_since"`
	Recent    bool   `json:"recent"`
}

// RegimeSignal is the output of one evaluation cycle.
type RegimeSignal struct {
	AsOf             time.Time        `json:"as_of"`
	Window           int              `json:"window"`
	SuspendDays      int              `json:"suspend_days"`
	Suspended        bool             `json:"suspended"`
	BearSignal       bool             `json:"bear_signal"`
	DaysSinceBear    int              `json:"days_since_last_bear_signal"`
	BearSeenInWindow bool             `json:"bear_seen_in_window"`
	Conditions       []ConditionState `json:"conditions"`
}

// InMarket is the inverse of Suspended.
func (s *RegimeSignal) InMarket() bool { return !s.Suspended }

// Condition returns the named condition state, if present.
func (s *RegimeSignal) Condition(name string) (ConditionState, bool) {
	for _, c := range s.Conditions {
		if c.Name == name {
			return c, true
		}
	}
	return ConditionState{}, false
}
