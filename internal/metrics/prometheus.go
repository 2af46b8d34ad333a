package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"RiskOffRotator/internal/model"
)

// Recorder publishes regime signals and rebalance activity to Prometheus.
type Recorder struct {
	suspended       prometheus.Gauge
	bearToday       prometheus.Gauge
	daysSinceBear   prometheus.Gauge
	lastEvaluation  prometheus.Gauge
	conditionRecent *prometheus.GaugeVec
	conditionDays   *prometheus.GaugeVec
	targetWeight    *prometheus.GaugeVec
	rebalances      *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a recorder registered with reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		suspended: f.NewGauge(prometheus.GaugeOpts{
			Name: "riskoff_suspended",
			Help: "1 when the portfolio is out of the market",
		}),
		bearToday: f.NewGauge(prometheus.GaugeOpts{
			Name: "riskoff_bear_signal",
			Help: "1 when any bear condition triggered on the latest day",
		}),
		daysSinceBear: f.NewGauge(prometheus.GaugeOpts{
			Name: "riskoff_days_since_last_bear_signal",
			Help: "Trading days since the last bear signal, capped at window-1",
		}),
		lastEvaluation: f.NewGauge(prometheus.GaugeOpts{
			Name: "riskoff_last_evaluation_timestamp_seconds",
			Help: "Unix time of the last successful evaluation",
		}),
		conditionRecent: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "riskoff_condition_recent",
			Help: "1 when the condition triggered within the suspension window",
		}, []string{"condition"}),
		conditionDays: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "riskoff_condition_days_since",
			Help: "Trading days since the condition last triggered",
		}, []string{"condition"}),
		targetWeight: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "riskoff_target_weight",
			Help: "Target weight of the live allocation",
		}, []string{"symbol"}),
		rebalances: f.NewCounterVec(prometheus.CounterOpts{
			Name: "riskoff_rebalances_total",
			Help: "Rebalance requests accepted by the executor",
		}, []string{"allocation", "trigger"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "riskoff_errors_total",
			Help: "Failed evaluation cycles by stage",
		}, []string{"stage"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riskoff_operation_duration_seconds",
			Help:    "Duration of operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// ObserveSignal publishes one evaluated signal.
func (r *Recorder) ObserveSignal(sig *model.RegimeSignal, evaluatedAt float64) {
	r.suspended.Set(boolToFloat(sig.Suspended))
	r.bearToday.Set(boolToFloat(sig.BearSignal))
	r.daysSinceBear.Set(float64(sig.DaysSinceBear))
	r.lastEvaluation.Set(evaluatedAt)
	for _, c := range sig.Conditions {
		r.conditionRecent.WithLabelValues(c.Name).Set(boolToFloat(c.Recent))
		r.conditionDays.WithLabelValues(c.Name).Set(float64(c.DaysSince))
	}
}

// RecordRebalance counts an accepted rebalance and exposes its target.
func (r *Recorder) RecordRebalance(res *model.RebalanceResult) {
	req := res.Request
	r.rebalances.WithLabelValues(req.Allocation, string(req.Trigger)).Inc()
	r.targetWeight.Reset()
	for sym, w := range req.Weights {
		r.targetWeight.WithLabelValues(sym).Set(w)
	}
}

// RecordError counts a failed stage.
func (r *Recorder) RecordError(stage string) {
	r.errorsTotal.WithLabelValues(stage).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
