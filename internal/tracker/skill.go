package tracker

import (
	"math"
	"sync"
	"time"

	"github.com/nidhogg/plasticity/internal/clock"
	"go.uber.org/zap"
)

// SkillConfig holds power-law learning curve parameters.
type SkillConfig struct {
	MaxPerformance float64 // performance ceiling
	Alpha          float64 // power-law learning exponent
}

// DefaultSkillConfig returns the standard skill parameters.
func DefaultSkillConfig() SkillConfig {
	return SkillConfig{
		MaxPerformance: 0.95,
		Alpha:          0.4,
	}
}

// Skill is one tracked motor or cognitive skill.
type Skill struct {
	ID            string    `json:"id"`
	InitialPerf   float64   `json:"initial_performance"`
	Performance   float64   `json:"performance"`
	Difficulty    float64   `json:"difficulty"`
	PracticeCount int       `json:"practice_count"`
	Automatized   bool      `json:"is_automatized"`
	StartedAt     time.Time `json:"started_at"`
	LastPractice  time.Time `json:"last_practice"`
}

// SkillTracker models skill acquisition along the power law of practice.
type SkillTracker struct {
	skills map[string]*Skill
	cfg    SkillConfig
	clock  clock.Clock
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewSkillTracker creates a skill tracker.
func NewSkillTracker(cfg SkillConfig, clk clock.Clock, logger *zap.Logger) *SkillTracker {
	if cfg.MaxPerformance == 0 {
		cfg = DefaultSkillConfig()
	}
	return &SkillTracker{
		skills: make(map[string]*Skill),
		cfg:    cfg,
		clock:  clk,
		logger: logger,
	}
}

// Start registers a skill at its initial performance level. Difficulty
// scales practice gains; 0 is a trivial skill.
func (t *SkillTracker) Start(id string, initialPerf, difficulty float64) *Skill {
	now := t.clock.Now()
	s := &Skill{
		ID:          id,
		InitialPerf: clampRange(initialPerf, 0, t.cfg.MaxPerformance),
		Difficulty:  clampRange(difficulty, 0, 1),
		StartedAt:   now,
	}
	s.Performance = s.InitialPerf

	t.mu.Lock()
	defer t.mu.Unlock()
	t.skills[id] = s
	return cloneSkill(s)
}

// Practice records one practice trial. Success climbs the power-law
// curve (scaled up for harder skills); failure costs a tenth of the would-be
// gain. Performance is clamped to [initial, max]. Returns the updated
// performance, or ok=false for an unknown skill.
func (t *SkillTracker) Practice(id string, success bool) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.skills[id]
	if !ok {
		return 0, false
	}

	s.PracticeCount++
	n := s.PracticeCount

	var delta float64
	if n == 1 {
		delta = (t.cfg.MaxPerformance - s.InitialPerf) * 0.1
	} else {
		step := math.Abs(math.Pow(float64(n), -t.cfg.Alpha) - math.Pow(float64(n-1), -t.cfg.Alpha))
		delta = (t.cfg.MaxPerformance - s.Performance) * step
	}

	if success {
		delta *= 1 + 0.5*s.Difficulty
	} else {
		delta *= -0.1
	}

	s.Performance = clampRange(s.Performance+delta, s.InitialPerf, t.cfg.MaxPerformance)
	s.LastPractice = t.clock.Now()

	if !s.Automatized && s.Performance > 0.8 && n > 50 {
		s.Automatized = true
		t.logger.Info("skill automatized",
			zap.String("skill", id),
			zap.Int("practice_count", n))
	}
	return s.Performance, true
}

// LearningCurve returns the closed-form predicted performance for the
// first nPoints practice trials. Deterministic and repeatable absent
// intervening Practice calls.
func (t *SkillTracker) LearningCurve(id string, nPoints int) ([]float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.skills[id]
	if !ok {
		return nil, false
	}

	curve := make([]float64, 0, nPoints)
	for n := 1; n <= nPoints; n++ {
		if n == 1 {
			// First trial follows the practice rule, not the power law.
			curve = append(curve, s.InitialPerf+(t.cfg.MaxPerformance-s.InitialPerf)*0.1)
			continue
		}
		p := t.cfg.MaxPerformance - (t.cfg.MaxPerformance-s.InitialPerf)*math.Pow(float64(n), -t.cfg.Alpha)
		curve = append(curve, p)
	}
	return curve, true
}

// Get returns a snapshot of a skill.
func (t *SkillTracker) Get(id string) (Skill, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.skills[id]
	if !ok {
		return Skill{}, false
	}
	return *s, true
}

// List returns snapshots of all tracked skills.
func (t *SkillTracker) List() []Skill {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Skill, 0, len(t.skills))
	for _, s := range t.skills {
		out = append(out, *s)
	}
	return out
}

func cloneSkill(s *Skill) *Skill {
	cp := *s
	return &cp
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
