package notifier

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"RiskOffRotator/internal/model"
)

func TestFormatSignalReport(t *testing.T) {
	sig := &model.RegimeSignal{
		AsOf:             time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Window:           60,
		SuspendDays:      14,
		Suspended:        true,
		DaysSinceBear:    3,
		BearSeenInWindow: true,
		Conditions: []model.ConditionState{
			{Name: model.ConditionMetalsDown, DaysSince: 3, Recent: true},
			{Name: model.ConditionDollarUp, DaysSince: 59},
		},
	}
	out := FormatSignalReport(sig)
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "RISK-OFF")
	assert.Contains(t, out, "Days since last bear signal: 3 (suspend < 14)")
	assert.Contains(t, out, "basic_metals_down: 3 days")

	sig.Suspended = false
	sig.BearSeenInWindow = false
	out = FormatSignalReport(sig)
	assert.Contains(t, out, "IN MARKET")
	assert.Contains(t, out, "No bear signal in the last 60 days")
}

func TestFormatRebalance(t *testing.T) {
	res := &model.RebalanceResult{
		Request: model.RebalanceRequest{
			ID:         "abc",
			Allocation: model.AllocationSafe,
			Weights:    model.TargetWeights{"TLT": 0.5, "IEF": 0.5},
			Trigger:    model.TriggerDaily,
		},
		PreviousAllocation: model.AllocationMarket,
		Switched:           true,
	}
	out := FormatRebalance(res)
	assert.Contains(t, out, "market → safe")
	assert.Contains(t, out, "  IEF: 50%\n  TLT: 50%\n")
	assert.Contains(t, out, "DAILY")
}

func TestFormatPortfolioStatus_Empty(t *testing.T) {
	out := FormatPortfolioStatus(model.PortfolioState{})
	assert.Contains(t, out, "Allocation: none")
	assert.NotContains(t, out, "Last rebalance")
}

func TestFormatError_Escapes(t *testing.T) {
	out := FormatError(model.TriggerWeekly, "collect", errors.New("bad <html>"))
	assert.Contains(t, out, "bad &lt;html&gt;")
}
