package tracker

import (
	"sync"
	"time"

	"github.com/nidhogg/plasticity/internal/clock"
	"github.com/nidhogg/plasticity/internal/plasticity"
	"go.uber.org/zap"
)

// LearningConfig holds the explicit/implicit learning rates.
type LearningConfig struct {
	ExplicitRate         float64 // consolidation gain per day, explicit system
	ImplicitRate         float64 // consolidation gain per day, implicit system
	ExplicitInterference float64 // degradation factor applied to prior explicit entries
}

// DefaultLearningConfig returns the standard learning parameters.
func DefaultLearningConfig() LearningConfig {
	return LearningConfig{
		ExplicitRate:         0.3,
		ImplicitRate:         0.1,
		ExplicitInterference: 0.4,
	}
}

const (
	explicitInitialLevel = 0.2
	implicitInitialLevel = 0.1
)

// LearningEvent is one entry in the explicit or implicit registry.
type LearningEvent struct {
	ID                 string      `json:"id"`
	Content            interface{} `json:"content"`
	ConsolidationLevel float64     `json:"consolidation_level"`
	CreatedAt          time.Time   `json:"created_at"`
}

// LearningTracker keeps two independent registries for declarative
// (explicit) and procedural (implicit) learning. New explicit entries
// interfere with existing ones; implicit learning does not.
type LearningTracker struct {
	explicit map[string]*LearningEvent
	implicit map[string]*LearningEvent
	cfg      LearningConfig
	clock    clock.Clock
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewLearningTracker creates an explicit/implicit learning tracker.
func NewLearningTracker(cfg LearningConfig, clk clock.Clock, logger *zap.Logger) *LearningTracker {
	if cfg.ExplicitRate == 0 {
		cfg = DefaultLearningConfig()
	}
	return &LearningTracker{
		explicit: make(map[string]*LearningEvent),
		implicit: make(map[string]*LearningEvent),
		cfg:      cfg,
		clock:    clk,
		logger:   logger,
	}
}

// LearnExplicit records a declarative learning event. Every other
// existing explicit entry is degraded by the interference penalty.
func (t *LearningTracker) LearnExplicit(id string, content interface{}) LearningEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	penalty := t.cfg.ExplicitInterference * 0.1
	for otherID, e := range t.explicit {
		if otherID == id {
			continue
		}
		e.ConsolidationLevel = plasticity.Clamp01(e.ConsolidationLevel - penalty)
	}

	e := &LearningEvent{
		ID:                 id,
		Content:            content,
		ConsolidationLevel: explicitInitialLevel,
		CreatedAt:          t.clock.Now(),
	}
	t.explicit[id] = e
	return *e
}

// LearnImplicit records a procedural learning event. No interference.
func (t *LearningTracker) LearnImplicit(id string, content interface{}) LearningEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := &LearningEvent{
		ID:                 id,
		Content:            content,
		ConsolidationLevel: implicitInitialLevel,
		CreatedAt:          t.clock.Now(),
	}
	t.implicit[id] = e
	return *e
}

// Consolidate advances both registries by the given elapsed hours:
// explicit at its per-day rate, implicit at its slower one. Levels clamp
// at 1.0.
func (t *LearningTracker) Consolidate(hoursElapsed float64) {
	if hoursElapsed <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	explicitGain := t.cfg.ExplicitRate / 24 * hoursElapsed
	implicitGain := t.cfg.ImplicitRate / 24 * hoursElapsed
	for _, e := range t.explicit {
		e.ConsolidationLevel = plasticity.Clamp01(e.ConsolidationLevel + explicitGain)
	}
	for _, e := range t.implicit {
		e.ConsolidationLevel = plasticity.Clamp01(e.ConsolidationLevel + implicitGain)
	}
}

// GetExplicit returns a snapshot of an explicit entry.
func (t *LearningTracker) GetExplicit(id string) (LearningEvent, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.explicit[id]
	if !ok {
		return LearningEvent{}, false
	}
	return *e, true
}

// GetImplicit returns a snapshot of an implicit entry.
func (t *LearningTracker) GetImplicit(id string) (LearningEvent, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.implicit[id]
	if !ok {
		return LearningEvent{}, false
	}
	return *e, true
}

// Counts returns the sizes of the explicit and implicit registries.
func (t *LearningTracker) Counts() (explicit, implicit int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.explicit), len(t.implicit)
}
