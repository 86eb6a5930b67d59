package consolidate

import (
	"math"
	"sync"
	"time"

	"github.com/nidhogg/plasticity/internal/clock"
	"github.com/nidhogg/plasticity/internal/trace"
	"go.uber.org/zap"
)

// Observer is notified when a trace becomes fully consolidated. Observers
// run under a catch-log-continue contract: a panicking observer never
// aborts the triggering operation or the remaining observers.
type Observer interface {
	OnConsolidated(id string)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(id string)

// OnConsolidated implements Observer.
func (f ObserverFunc) OnConsolidated(id string) { f(id) }

// Config holds the scheduler's tunables.
type Config struct {
	Threshold          float64 // consolidation strength marking full consolidation
	SynapticDecay      float64 // weight lost per idle hour during decay sweeps
	ManualBoost        float64 // consolidation strength gained per ConsolidateNow
	ManualWeightBoost  float64 // trace weight gained per ConsolidateNow
	AccessBonusDivisor float64 // accesses for the full phase bonus
}

// DefaultConfig returns the standard scheduler parameters.
func DefaultConfig() Config {
	return Config{
		Threshold:          0.7,
		SynapticDecay:      0.01,
		ManualBoost:        0.3,
		ManualWeightBoost:  0.1,
		AccessBonusDivisor: 10,
	}
}

// Scheduler advances trace consolidation phases on a periodic tick and
// handles on-demand consolidation requests.
type Scheduler struct {
	store     *trace.Store
	clock     clock.Clock
	cfg       Config
	observers []Observer
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewScheduler creates a consolidation scheduler over a trace store.
func NewScheduler(store *trace.Store, clk clock.Clock, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Threshold == 0 {
		cfg = DefaultConfig()
	}
	return &Scheduler{
		store:  store,
		clock:  clk,
		cfg:    cfg,
		logger: logger,
	}
}

// AddObserver registers a consolidation observer. The list is append-only.
func (s *Scheduler) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// OnTick implements clock.TickListener: every trace's consolidation
// strength is recomputed from its phase plus an access-frequency bonus,
// and traces past the stabilization window are marked consolidated.
func (s *Scheduler) OnTick(now time.Time) {
	advanced := 0
	for _, t := range s.store.List() {
		phase := PhaseOf(now.Sub(t.CreatedAt))
		bonus := 0.1 * math.Min(1, float64(t.AccessCount)/s.cfg.AccessBonusDivisor)
		if s.store.AdvanceConsolidation(t.ID, BaseStrength(phase)+bonus, stable(phase)) {
			advanced++
		}
	}
	s.logger.Debug("consolidation tick", zap.Int("traces", advanced))
}

// ConsolidateNow immediately boosts the given traces (all traces when no
// ids are passed). Unconsolidated traces gain consolidation strength and
// weight; crossing the threshold marks them consolidated and notifies
// observers exactly once per transition. Returns the newly consolidated
// ids.
func (s *Scheduler) ConsolidateNow(ids ...string) []string {
	if len(ids) == 0 {
		for _, t := range s.store.List() {
			ids = append(ids, t.ID)
		}
	}

	var transitioned []string
	for _, id := range ids {
		t, ok := s.store.Get(id)
		if !ok || t.Consolidated {
			continue
		}
		crossed, _ := s.store.BoostConsolidation(id, s.cfg.ManualBoost, s.cfg.ManualWeightBoost, s.cfg.Threshold)
		if crossed {
			transitioned = append(transitioned, id)
			s.Notify(id)
		}
	}
	return transitioned
}

// SynapticDecayTick is a clock.TickListener for the separate maintenance
// sweep that weakens idle synapses.
type SynapticDecayTick struct {
	Scheduler *Scheduler
}

// OnTick implements clock.TickListener.
func (d SynapticDecayTick) OnTick(time.Time) {
	n := d.Scheduler.store.DecaySynapses(d.Scheduler.cfg.SynapticDecay)
	if n > 0 {
		d.Scheduler.logger.Debug("synaptic decay sweep", zap.Int("decayed", n))
	}
}

// Notify informs every observer of a consolidation transition,
// catch-log-continue.
func (s *Scheduler) Notify(id string) {
	s.mu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, o := range observers {
		s.notifyOne(o, id)
	}
}

func (s *Scheduler) notifyOne(o Observer, id string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("consolidation observer panicked",
				zap.String("id", id),
				zap.Any("panic", r))
		}
	}()
	o.OnConsolidated(id)
}
