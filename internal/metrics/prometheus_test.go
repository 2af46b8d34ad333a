package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"RiskOffRotator/internal/model"
)

func TestRecorder_ObserveSignal(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.ObserveSignal(&model.RegimeSignal{
		Suspended:     true,
		BearSignal:    true,
		DaysSinceBear: 0,
		Conditions: []model.ConditionState{
			{Name: model.ConditionDollarUp, Today: true, Recent: true},
			{Name: model.ConditionMetalsDown, DaysSince: 59},
		},
	}, 1700000000)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.suspended))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.bearToday))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.daysSinceBear))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.lastEvaluation))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.conditionRecent.WithLabelValues(model.ConditionDollarUp)))
	assert.Equal(t, 59.0, testutil.ToFloat64(r.conditionDays.WithLabelValues(model.ConditionMetalsDown)))
}

func TestRecorder_RecordRebalance(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.RecordRebalance(&model.RebalanceResult{Request: model.RebalanceRequest{
		Allocation: model.AllocationMarket, Trigger: model.TriggerWeekly, Weights: model.TargetWeights{"SPY": 1},
	}})
	r.RecordRebalance(&model.RebalanceResult{Request: model.RebalanceRequest{
		Allocation: model.AllocationSafe, Trigger: model.TriggerDaily, Weights: model.TargetWeights{"IEF": 0.5, "TLT": 0.5},
	}})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.rebalances.WithLabelValues("safe", "DAILY")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.targetWeight))
	assert.Equal(t, 0.5, testutil.ToFloat64(r.targetWeight.WithLabelValues("TLT")))
}

func TestRecorder_Errors(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.RecordError("collect")
	r.RecordError("collect")
	r.RecordLatency("evaluate", 0.2)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("collect")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency))
}
