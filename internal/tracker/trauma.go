package tracker

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/nidhogg/plasticity/internal/clock"
	"github.com/nidhogg/plasticity/internal/plasticity"
	"go.uber.org/zap"
)

// ErrUnknownStrategy is returned for an unrecognized coping strategy name.
var ErrUnknownStrategy = errors.New("unknown coping strategy")

// copingMultipliers maps strategy names to their base regulation effect.
var copingMultipliers = map[string]float64{
	"default":     0.2,
	"grounding":   0.4,
	"reframing":   0.35,
	"distraction": 0.3,
	"extinction":  0.5,
}

const (
	// traumaStabilityFactor slows trauma decay relative to normal traces.
	traumaStabilityFactor = 1.7
	// extinctionStep is the permanent intensity reduction per successful
	// low-intensity extinction trial.
	extinctionStep = 0.02
	// extinctionFloor is the lowest intensity extinction can reach.
	extinctionFloor = 0.1
	// extinctionSuccessBound is the flashback intensity at or below which
	// an extinction trial counts as successful.
	extinctionSuccessBound = 0.4
)

// TraumaConfig holds the trauma admission and consolidation parameters.
type TraumaConfig struct {
	IntensityThreshold float64 // minimum intensity for encoding
	BaseStabilityHours float64 // forgetting-curve base stability
}

// DefaultTraumaConfig returns the standard trauma parameters.
func DefaultTraumaConfig() TraumaConfig {
	return TraumaConfig{
		IntensityThreshold: 0.7,
		BaseStabilityHours: 24,
	}
}

// TraumaMemory is one high-intensity memory with intrusion dynamics.
type TraumaMemory struct {
	ID                string      `json:"id"`
	Content           interface{} `json:"content"`
	Intensity         float64     `json:"intensity"`
	EncodedAt         time.Time   `json:"encoded_at"`
	LastReactivated   time.Time   `json:"last_reactivated"`
	ReactivationCount int         `json:"reactivation_count"`
}

// ReactivationResult reports the outcome of a reactivation attempt.
type ReactivationResult struct {
	Reactivated             bool    `json:"reactivated"`
	IntrusionLikelihood     float64 `json:"intrusion_likelihood"`
	FlashbackIntensity      float64 `json:"flashback_intensity"`
	RegulationEffectiveness float64 `json:"regulation_effectiveness"`
}

// TraumaTracker models trauma memory: a hard admission gate, slowed
// decay, and a reactivation/extinction state machine.
type TraumaTracker struct {
	memories map[string]*TraumaMemory
	cfg      TraumaConfig
	curve    plasticity.ForgettingCurve
	clock    clock.Clock
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewTraumaTracker creates a trauma tracker.
func NewTraumaTracker(cfg TraumaConfig, clk clock.Clock, logger *zap.Logger) *TraumaTracker {
	if cfg.IntensityThreshold == 0 {
		cfg = DefaultTraumaConfig()
	}
	return &TraumaTracker{
		memories: make(map[string]*TraumaMemory),
		cfg:      cfg,
		curve:    plasticity.ForgettingCurve{BaseStabilityHours: cfg.BaseStabilityHours * traumaStabilityFactor},
		clock:    clk,
		logger:   logger,
	}
}

// Encode admits a trauma memory only when its intensity meets the
// threshold. Below the gate nothing is recorded and false is returned.
func (t *TraumaTracker) Encode(id string, content interface{}, intensity float64) bool {
	if intensity < t.cfg.IntensityThreshold {
		return false
	}
	m := &TraumaMemory{
		ID:        id,
		Content:   content,
		Intensity: plasticity.Clamp01(intensity),
		EncodedAt: t.clock.Now(),
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.memories[id] = m

	t.logger.Info("trauma memory encoded",
		zap.String("id", id),
		zap.Float64("intensity", m.Intensity))
	return true
}

// Retention returns how retrievable a trauma memory is, using the same
// forgetting curve as ordinary traces but with stability scaled by 1.7:
// trauma decays 70% slower. Unknown ids yield 0.
func (t *TraumaTracker) Retention(id string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.memories[id]
	if !ok {
		return 0
	}
	hours := t.clock.Now().Sub(m.EncodedAt).Hours()
	// Trauma traces are treated as fully potentiated; the intensity gate
	// already guarantees a strong encoding.
	return t.curve.Retention(hours, 1.0)
}

// IntrusionLikelihood estimates the chance of an involuntary recall under
// the given stress level. Unknown ids yield 0.
func (t *TraumaTracker) IntrusionLikelihood(id string, stress float64) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.memories[id]
	if !ok {
		return 0
	}
	return t.intrusionLocked(m, stress)
}

func (t *TraumaTracker) intrusionLocked(m *TraumaMemory, stress float64) float64 {
	reactivation := math.Min(1, float64(m.ReactivationCount)/10)
	return 0.4*m.Intensity + 0.3*reactivation + 0.3*plasticity.Clamp01(stress)
}

// Reactivate processes a potential flashback under the given stress with
// a coping strategy (empty string selects "default"). The attempt counts
// as a reactivation only when the intrusion likelihood exceeds 0.3.
// Successful low-intensity extinction trials permanently reduce the
// stored intensity.
func (t *TraumaTracker) Reactivate(id string, stress float64, strategy string) (ReactivationResult, error) {
	if strategy == "" {
		strategy = "default"
	}
	multiplier, ok := copingMultipliers[strategy]
	if !ok {
		return ReactivationResult{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	stress = plasticity.Clamp01(stress)

	t.mu.Lock()
	defer t.mu.Unlock()
	m, found := t.memories[id]
	if !found {
		return ReactivationResult{}, nil
	}

	likelihood := t.intrusionLocked(m, stress)
	if likelihood <= 0.3 {
		return ReactivationResult{IntrusionLikelihood: likelihood}, nil
	}

	m.ReactivationCount++
	m.LastReactivated = t.clock.Now()

	flashback := m.Intensity
	if m.ReactivationCount > 10 {
		// Habituation: repeated reactivations blunt the flashback.
		flashback -= math.Log10(float64(m.ReactivationCount)) * 0.1
	}

	regulation := multiplier - stress*0.4
	if regulation < 0 {
		regulation = 0
	}
	flashback -= regulation

	// Over-activation guard: extreme flashbacks under high stress are
	// dampened to keep the model bounded.
	if flashback > 0.7 && stress > 0.6 {
		flashback *= 0.8
	}
	flashback = plasticity.Clamp01(flashback)

	if strategy == "extinction" && flashback <= extinctionSuccessBound {
		m.Intensity = math.Max(extinctionFloor, m.Intensity-extinctionStep)
		t.logger.Debug("extinction trial succeeded",
			zap.String("id", id),
			zap.Float64("intensity", m.Intensity))
	}

	return ReactivationResult{
		Reactivated:             true,
		IntrusionLikelihood:     likelihood,
		FlashbackIntensity:      flashback,
		RegulationEffectiveness: regulation,
	}, nil
}

// Get returns a snapshot of a trauma memory.
func (t *TraumaTracker) Get(id string) (TraumaMemory, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.memories[id]
	if !ok {
		return TraumaMemory{}, false
	}
	return *m, true
}

// List returns snapshots of all trauma memories.
func (t *TraumaTracker) List() []TraumaMemory {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TraumaMemory, 0, len(t.memories))
	for _, m := range t.memories {
		out = append(out, *m)
	}
	return out
}
