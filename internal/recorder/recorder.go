package recorder

import "RiskOffRotator/internal/model"

// SignalSnapshot holds one evaluated regime signal.
type SignalSnapshot struct {
	Signal  *model.RegimeSignal
	Trigger model.TriggerType
}

// RebalanceEvent records a rebalance request accepted by the executor.
type RebalanceEvent struct {
	Result *model.RebalanceResult
}

// ErrorEvent records a failed evaluation cycle.
type ErrorEvent struct {
	Trigger model.TriggerType
	Stage   string // "collect", "evaluate", "rebalance"
	Message string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSignal(snap *SignalSnapshot) error
	RecordRebalance(evt *RebalanceEvent) error
	RecordError(evt *ErrorEvent) error
	Close() error
}
