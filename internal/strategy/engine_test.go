package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskOffRotator/internal/model"
)

// calmSnapshots returns n snapshots with every signal return at zero.
func calmSnapshots(p Params, n int) []model.ReturnSnapshot {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	snaps := make([]model.ReturnSnapshot, n)
	for i := range snaps {
		rets := make(map[string]float64, 4)
		for _, s := range p.Instruments.Symbols() {
			rets[s] = 0
		}
		snaps[i] = model.ReturnSnapshot{Date: start.AddDate(0, 0, i), Returns: rets}
	}
	return snaps
}

func TestEvaluateConditions_MetalsOnly(t *testing.T) {
	p := DefaultParams()
	snaps := calmSnapshots(p, 1)
	snaps[0].Returns["DBB"] = -0.08

	cs, err := EvaluateConditions(&p, snaps)
	require.NoError(t, err)
	assert.True(t, cs.MetalsDown[0])
	assert.False(t, cs.IndustrialsDown[0])
	assert.False(t, cs.CostOfDebtUp[0])
	assert.False(t, cs.DollarUp[0])
	assert.True(t, cs.Bear[0])
}

func TestEvaluateConditions_Thresholds(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		symbol string
		value  float64
		bear   bool
	}{
		{"XLI", -0.0701, true},
		{"XLI", -0.07, false},
		{"SHY", -0.011, true},
		{"SHY", -0.01, false},
		{"UUP", 0.0701, true},
		{"UUP", 0.07, false},
		{"UUP", -0.5, false},
		{"DBB", 0.5, false},
	}
	for _, tt := range tests {
		snaps := calmSnapshots(p, 1)
		snaps[0].Returns[tt.symbol] = tt.value
		cs, err := EvaluateConditions(&p, snaps)
		require.NoError(t, err)
		assert.Equal(t, tt.bear, cs.Bear[0], "%s=%v", tt.symbol, tt.value)
	}
}

func TestEvaluateConditions_MissingReturn(t *testing.T) {
	p := DefaultParams()
	snaps := calmSnapshots(p, 3)
	delete(snaps[1].Returns, "SHY")

	_, err := EvaluateConditions(&p, snaps)
	assert.ErrorIs(t, err, ErrMissingReturn)

	snaps = calmSnapshots(p, 3)
	snaps[2].Returns["UUP"] = math.NaN()
	_, err = EvaluateConditions(&p, snaps)
	assert.ErrorIs(t, err, ErrMissingReturn)
}

func TestEvaluate_CalmWindow(t *testing.T) {
	p := DefaultParams()
	sig, err := Evaluate(&p, calmSnapshots(p, 60))
	require.NoError(t, err)

	assert.False(t, sig.BearSignal)
	assert.Equal(t, 59, sig.DaysSinceBear)
	assert.False(t, sig.BearSeenInWindow)
	assert.False(t, sig.Suspended)
	assert.True(t, sig.InMarket())
	require.Len(t, sig.Conditions, 4)
	for _, c := range sig.Conditions {
		assert.False(t, c.Recent, c.Name)
		assert.Equal(t, 59, c.DaysSince, c.Name)
	}
}

func TestEvaluate_TriggerToday(t *testing.T) {
	p := DefaultParams()
	snaps := calmSnapshots(p, 60)
	snaps[59].Returns["UUP"] = 0.08

	sig, err := Evaluate(&p, snaps)
	require.NoError(t, err)
	assert.True(t, sig.BearSignal)
	assert.Equal(t, 0, sig.DaysSinceBear)
	assert.True(t, sig.Suspended)

	dollar, ok := sig.Condition(model.ConditionDollarUp)
	require.True(t, ok)
	assert.True(t, dollar.Today)
	assert.True(t, dollar.Recent)

	metals, ok := sig.Condition(model.ConditionMetalsDown)
	require.True(t, ok)
	assert.False(t, metals.Recent)
}

func TestEvaluate_SuspensionExpires(t *testing.T) {
	p := DefaultParams()
	// A single trigger ages through the window one day per cycle.
	for age := 0; age < 30; age++ {
		snaps := calmSnapshots(p, 60)
		snaps[59-age].Returns["XLI"] = -0.2

		sig, err := Evaluate(&p, snaps)
		require.NoError(t, err)
		assert.Equal(t, age, sig.DaysSinceBear)
		assert.Equal(t, age < p.SuspendDays, sig.Suspended, "age %d", age)
	}
}

func TestEvaluate_UsesTrailingWindow(t *testing.T) {
	p := DefaultParams()
	snaps := calmSnapshots(p, 80)
	// Outside the last 60 snapshots, so ignored.
	snaps[5].Returns["DBB"] = -0.5

	sig, err := Evaluate(&p, snaps)
	require.NoError(t, err)
	assert.Equal(t, snaps[79].Date, sig.AsOf)
	assert.False(t, sig.BearSeenInWindow)
	assert.False(t, sig.Suspended)
}

func TestEvaluate_Idempotent(t *testing.T) {
	p := DefaultParams()
	snaps := calmSnapshots(p, 60)
	snaps[50].Returns["SHY"] = -0.02

	first, err := Evaluate(&p, snaps)
	require.NoError(t, err)
	second, err := Evaluate(&p, snaps)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 0.0, snaps[0].Returns["DBB"])
}

func TestEvaluate_RejectsShortWindow(t *testing.T) {
	p := DefaultParams()
	_, err := Evaluate(&p, calmSnapshots(p, 59))
	assert.ErrorIs(t, err, ErrWindowLength)
}

func TestParams_Validate(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	p.Window = p.SuspendDays
	assert.ErrorIs(t, p.Validate(), ErrWindowLength)

	p = DefaultParams()
	p.Instruments.Dollar = p.Instruments.Metals
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.SuspendDays = 0
	assert.Error(t, p.Validate())
}
