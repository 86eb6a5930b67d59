package engine

import (
	"time"

	"github.com/nidhogg/plasticity/internal/bridge"
	"github.com/nidhogg/plasticity/internal/clock"
	"github.com/nidhogg/plasticity/internal/config"
	"github.com/nidhogg/plasticity/internal/consolidate"
	"github.com/nidhogg/plasticity/internal/plasticity"
	"github.com/nidhogg/plasticity/internal/trace"
	"github.com/nidhogg/plasticity/internal/tracker"
	"go.uber.org/zap"
)

// Engine wires the trace store, consolidation scheduler, specialized
// trackers and the memory bridge into one configured instance with an
// explicit start/stop lifecycle. There are no package-level singletons;
// callers hold the instance.
type Engine struct {
	Store     *trace.Store
	Scheduler *consolidate.Scheduler
	Bridge    *bridge.Bridge
	Skills    *tracker.SkillTracker
	Habits    *tracker.HabitTracker
	Trauma    *tracker.TraumaTracker
	Learning  *tracker.LearningTracker

	curve       plasticity.ForgettingCurve
	phaseTicker *clock.Ticker
	decayTicker *clock.Ticker
	logger      *zap.Logger
}

// New builds an engine from configuration. The clock is injected so
// simulations and tests can drive time externally.
func New(cfg *config.Config, clk clock.Clock, logger *zap.Logger) *Engine {
	ec := cfg.Engine

	rules := plasticity.Rules{
		LearningRate:     ec.HebbianLearningRate,
		Decay:            ec.HebbianDecay,
		Threshold:        ec.HebbianThreshold,
		LTPThresholdFreq: ec.LTPThresholdFreq,
		LTPRate:          ec.LTPRate,
		LTDThresholdFreq: ec.LTDThresholdFreq,
		LTDRate:          ec.LTDRate,
	}
	curve := plasticity.ForgettingCurve{BaseStabilityHours: ec.BaseStabilityHours}

	store := trace.NewStore(rules, curve, clk, logger)

	schedCfg := consolidate.DefaultConfig()
	schedCfg.Threshold = ec.ConsolidationThreshold
	schedCfg.SynapticDecay = cfg.Scheduler.SynapticDecayFactor
	scheduler := consolidate.NewScheduler(store, clk, schedCfg, logger)

	bridgeCfg := bridge.DefaultConfig()
	bridgeCfg.LTPThresholdAccesses = ec.LTPThresholdAccesses
	bridgeCfg.ConsolidationThreshold = ec.ConsolidationThreshold
	br := bridge.New(store, clk, bridgeCfg, logger)

	habits := tracker.NewHabitTracker(tracker.HabitConfig{
		Repetitions:           ec.RepetitionsForHabit,
		ContextWeight:         ec.ContextWeight,
		RewardWeight:          ec.RewardWeight,
		AutomaticityThreshold: ec.AutomaticityThreshold,
	}, clk, logger)

	trauma := tracker.NewTraumaTracker(tracker.TraumaConfig{
		IntensityThreshold: ec.TraumaIntensityThreshold,
		BaseStabilityHours: ec.BaseStabilityHours,
	}, clk, logger)

	learning := tracker.NewLearningTracker(tracker.LearningConfig{
		ExplicitRate:         ec.ExplicitRate,
		ImplicitRate:         ec.ImplicitRate,
		ExplicitInterference: ec.ExplicitInterference,
	}, clk, logger)

	phaseTicker := clock.NewTicker(time.Duration(cfg.Scheduler.TickSeconds)*time.Second, clk, logger)
	phaseTicker.AddListener(scheduler)

	decayTicker := clock.NewTicker(time.Duration(cfg.Scheduler.SynapticDecaySeconds)*time.Second, clk, logger)
	decayTicker.AddListener(consolidate.SynapticDecayTick{Scheduler: scheduler})

	return &Engine{
		Store:       store,
		Scheduler:   scheduler,
		Bridge:      br,
		Skills:      tracker.NewSkillTracker(tracker.DefaultSkillConfig(), clk, logger),
		Habits:      habits,
		Trauma:      trauma,
		Learning:    learning,
		curve:       curve,
		phaseTicker: phaseTicker,
		decayTicker: decayTicker,
		logger:      logger,
	}
}

// Start launches the background maintenance tickers.
func (e *Engine) Start() {
	e.phaseTicker.Start()
	e.decayTicker.Start()
	e.logger.Info("plasticity engine started")
}

// Stop shuts the tickers down, letting any in-flight tick finish.
func (e *Engine) Stop() {
	e.phaseTicker.Stop()
	e.decayTicker.Stop()
	e.logger.Info("plasticity engine stopped")
}

// ReviewSchedule returns the first n optimal review offsets in hours.
func (e *Engine) ReviewSchedule(n int) []float64 {
	return e.curve.OptimalReviewTimes(n)
}

// SystemStats aggregates counters from every subsystem.
type SystemStats struct {
	Store    trace.Stats  `json:"store"`
	Bridge   bridge.Stats `json:"bridge"`
	Skills   int          `json:"skills"`
	Habits   int          `json:"habits"`
	Traumas  int          `json:"trauma_memories"`
	Explicit int          `json:"explicit_entries"`
	Implicit int          `json:"implicit_entries"`
}

// Stats returns a snapshot of system-wide counters.
func (e *Engine) Stats() SystemStats {
	explicit, implicit := e.Learning.Counts()
	return SystemStats{
		Store:    e.Store.StoreStats(),
		Bridge:   e.Bridge.BridgeStats(),
		Skills:   len(e.Skills.List()),
		Habits:   len(e.Habits.List()),
		Traumas:  len(e.Trauma.List()),
		Explicit: explicit,
		Implicit: implicit,
	}
}
