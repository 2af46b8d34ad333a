package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"RiskOffRotator/internal/metrics"
	"RiskOffRotator/internal/model"
	"RiskOffRotator/internal/notifier"
	"RiskOffRotator/internal/portfolio"
	"RiskOffRotator/internal/recorder"
	"RiskOffRotator/internal/strategy"
)

// Failure stages, as recorded and counted.
const (
	StageCollect   = "collect"
	StageEvaluate  = "evaluate"
	StageRebalance = "rebalance"
)

// SnapshotSource produces the return snapshot window for one evaluation.
type SnapshotSource interface {
	Collect(ctx context.Context) ([]model.ReturnSnapshot, error)
}

// StateSource exposes the paper portfolio for status replies.
type StateSource interface {
	GetState() model.PortfolioState
}

// Options wires a Scheduler.
type Options struct {
	Source      SnapshotSource
	Params      strategy.Params
	Allocator   *portfolio.Allocator
	Portfolio   StateSource
	Notifier    notifier.Notifier
	Recorder    recorder.Recorder
	Metrics     *metrics.Recorder
	Location    *time.Location
	TaskTimeout time.Duration
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron *cron.Cron
	Ctx  context.Context

	source    SnapshotSource
	params    strategy.Params
	allocator *portfolio.Allocator
	portfolio StateSource
	notifier  notifier.Notifier
	recorder  recorder.Recorder
	metrics   *metrics.Recorder
	timeout   time.Duration
	now       func() time.Time

	mu       sync.RWMutex
	latest   *model.RegimeSignal
	latestAt time.Time
}

type rebalanceFunc func(ctx context.Context, sig *model.RegimeSignal, trigger model.TriggerType) (*model.RebalanceResult, error)

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, opts Options) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	n := opts.Notifier
	if n == nil {
		n = notifier.Noop{}
	}
	rec := opts.Recorder
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	timeout := opts.TaskTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Ctx:       ctx,
		source:    opts.Source,
		params:    opts.Params,
		allocator: opts.Allocator,
		portfolio: opts.Portfolio,
		notifier:  n,
		recorder:  rec,
		metrics:   opts.Metrics,
		timeout:   timeout,
		now:       time.Now,
	}
}

// RegisterAll registers the daily out-of-market, weekly in-market and daily
// recording tasks.
func (s *Scheduler) RegisterAll(dailyCron, weeklyCron, recordCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if _, err := s.Cron.AddFunc(weeklyCron, s.weeklyTask); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	if _, err := s.Cron.AddFunc(recordCron, s.recordTask); err != nil {
		return fmt.Errorf("register record task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow evaluates once, records the signal and moves the portfolio to the
// allocation the signal selects. Used for RUN_ON_START.
func (s *Scheduler) RunNow() {
	s.runCycle(model.TriggerManual, true, func(ctx context.Context, sig *model.RegimeSignal, trigger model.TriggerType) (*model.RebalanceResult, error) {
		if sig.Suspended {
			return s.allocator.RebalanceOut(ctx, sig, trigger)
		}
		return s.allocator.RebalanceIn(ctx, sig, trigger)
	})
}

// Evaluate collects data and computes the regime signal. The result becomes
// the latest signal on success.
func (s *Scheduler) Evaluate(ctx context.Context) (*model.RegimeSignal, error) {
	sig, _, err := s.evaluate(ctx)
	return sig, err
}

// LatestSignal returns the most recent successful evaluation.
func (s *Scheduler) LatestSignal() (*model.RegimeSignal, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, time.Time{}, false
	}
	sig := *s.latest
	return &sig, s.latestAt, true
}

func (s *Scheduler) dailyTask() {
	s.runCycle(model.TriggerDaily, false, s.allocator.RebalanceOut)
}

func (s *Scheduler) weeklyTask() {
	s.runCycle(model.TriggerWeekly, false, s.allocator.RebalanceIn)
}

func (s *Scheduler) recordTask() {
	s.runCycle(model.TriggerRecord, true, nil)
}

func (s *Scheduler) runCycle(trigger model.TriggerType, record bool, rebalance rebalanceFunc) {
	log.Info().Str("trigger", string(trigger)).Msg("running task")
	ctx, cancel := context.WithTimeout(s.Ctx, s.timeout)
	defer cancel()

	sig, stage, err := s.evaluate(ctx)
	if err != nil {
		s.fail(trigger, stage, err)
		return
	}
	log.Info().Str("trigger", string(trigger)).Bool("suspended", sig.Suspended).
		Int("days_since_bear", sig.DaysSinceBear).Msg("regime evaluated")

	if record {
		if err := s.recorder.RecordSignal(&recorder.SignalSnapshot{Signal: sig, Trigger: trigger}); err != nil {
			log.Error().Err(err).Msg("record signal")
		}
	}
	if rebalance == nil {
		return
	}

	res, err := rebalance(ctx, sig, trigger)
	if err != nil {
		s.fail(trigger, StageRebalance, err)
		return
	}
	if res == nil {
		log.Info().Str("trigger", string(trigger)).Msg("no rebalance required")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordRebalance(res)
	}
	if err := s.recorder.RecordRebalance(&recorder.RebalanceEvent{Result: res}); err != nil {
		log.Error().Err(err).Msg("record rebalance")
	}
	if res.Switched {
		s.trySend(formatSwitch(sig, res))
	}
}

func (s *Scheduler) evaluate(ctx context.Context) (*model.RegimeSignal, string, error) {
	start := s.now()
	snaps, err := s.source.Collect(ctx)
	if err != nil {
		return nil, StageCollect, fmt.Errorf("collect: %w", err)
	}
	sig, err := strategy.Evaluate(&s.params, snaps)
	if err != nil {
		return nil, StageEvaluate, fmt.Errorf("evaluate: %w", err)
	}

	at := s.now()
	s.mu.Lock()
	s.latest = sig
	s.latestAt = at
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveSignal(sig, float64(at.Unix()))
		s.metrics.RecordLatency(StageEvaluate, at.Sub(start).Seconds())
	}
	return sig, "", nil
}

func (s *Scheduler) fail(trigger model.TriggerType, stage string, err error) {
	log.Error().Err(err).Str("trigger", string(trigger)).Str("stage", stage).Msg("task failed")
	if s.metrics != nil {
		s.metrics.RecordError(stage)
	}
	if rerr := s.recorder.RecordError(&recorder.ErrorEvent{Trigger: trigger, Stage: stage, Message: err.Error()}); rerr != nil {
		log.Error().Err(rerr).Msg("record error event")
	}
	s.trySend(notifier.FormatError(trigger, stage, err))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	var cmd string
	if fields := strings.Fields(command); len(fields) > 0 {
		cmd = strings.ToLower(fields[0])
	}
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	switch cmd {
	case "/signal":
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		sig, stage, err := s.evaluate(ctx)
		if err != nil {
			log.Error().Err(err).Str("stage", stage).Msg("manual evaluation failed")
			return notifier.FormatError(model.TriggerManual, stage, err)
		}
		return notifier.FormatSignalReport(sig)
	case "/status":
		if s.portfolio == nil {
			return "portfolio unavailable"
		}
		return notifier.FormatPortfolioStatus(s.portfolio.GetState())
	default:
		return notifier.HelpText
	}
}

func formatSwitch(sig *model.RegimeSignal, res *model.RebalanceResult) string {
	return notifier.FormatRebalance(res) + "\n" + notifier.FormatSignalReport(sig)
}

// trySend uses the root context so a timed-out task can still report.
func (s *Scheduler) trySend(text string) {
	if err := s.notifier.Notify(s.Ctx, text); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
