package tracker

import (
	"sync"
	"time"

	"github.com/nidhogg/plasticity/internal/clock"
	"go.uber.org/zap"
)

// habitWindowSize is the number of recent reinforcements considered when
// judging context stability.
const habitWindowSize = 20

// HabitConfig holds the habit-automaticity model parameters.
type HabitConfig struct {
	Repetitions           int     // reinforcements for full repetition credit
	ContextWeight         float64 // automaticity share from context stability
	RewardWeight          float64 // automaticity share from reward association
	AutomaticityThreshold float64 // automaticity level counting as formed
}

// DefaultHabitConfig returns the standard "66 repetitions" parameters.
func DefaultHabitConfig() HabitConfig {
	return HabitConfig{
		Repetitions:           66,
		ContextWeight:         0.3,
		RewardWeight:          0.4,
		AutomaticityThreshold: 0.7,
	}
}

type habitEvent struct {
	context string
	reward  float64
}

// Habit is one behavior being shaped into an automatic response.
type Habit struct {
	ID                string    `json:"id"`
	CueContext        string    `json:"cue_context"`
	RepetitionCount   int       `json:"repetition_count"`
	ContextStability  float64   `json:"context_stability"`
	RewardAssociation float64   `json:"reward_association"`
	Automaticity      float64   `json:"automaticity"`
	Formed            bool      `json:"is_formed"`
	StartedAt         time.Time `json:"started_at"`

	window []habitEvent
}

// HabitTracker models habit formation: repetition in a stable context
// with consistent reward builds automaticity.
type HabitTracker struct {
	habits map[string]*Habit
	cfg    HabitConfig
	clock  clock.Clock
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHabitTracker creates a habit tracker.
func NewHabitTracker(cfg HabitConfig, clk clock.Clock, logger *zap.Logger) *HabitTracker {
	if cfg.Repetitions == 0 {
		cfg = DefaultHabitConfig()
	}
	return &HabitTracker{
		habits: make(map[string]*Habit),
		cfg:    cfg,
		clock:  clk,
		logger: logger,
	}
}

// Start registers a habit anchored to its cue context.
func (t *HabitTracker) Start(id, cueContext string) *Habit {
	h := &Habit{
		ID:         id,
		CueContext: cueContext,
		StartedAt:  t.clock.Now(),
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.habits[id] = h
	cp := *h
	return &cp
}

// Reinforce records one attempt at the behavior. Failed attempts are
// no-ops: not counted, not penalized. Returns the updated automaticity,
// or ok=false for an unknown habit.
func (t *HabitTracker) Reinforce(id, context string, reward float64, success bool) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.habits[id]
	if !ok {
		return 0, false
	}
	if !success {
		return h.Automaticity, true
	}

	h.RepetitionCount++
	h.window = append(h.window, habitEvent{context: context, reward: reward})
	if len(h.window) > habitWindowSize {
		h.window = h.window[len(h.window)-habitWindowSize:]
	}

	matching := 0
	for _, e := range h.window {
		if e.context == h.CueContext {
			matching++
		}
	}
	h.ContextStability = float64(matching) / float64(len(h.window))
	h.RewardAssociation = 0.9*h.RewardAssociation + 0.1*reward

	repetitionFactor := float64(h.RepetitionCount) / float64(t.cfg.Repetitions)
	if repetitionFactor > 1 {
		repetitionFactor = 1
	}
	repetitionWeight := 1 - t.cfg.ContextWeight - t.cfg.RewardWeight
	h.Automaticity = repetitionFactor*repetitionWeight +
		h.ContextStability*t.cfg.ContextWeight +
		h.RewardAssociation*t.cfg.RewardWeight

	formed := h.Automaticity >= t.cfg.AutomaticityThreshold &&
		h.RepetitionCount >= t.cfg.Repetitions/2
	if formed && !h.Formed {
		t.logger.Info("habit formed",
			zap.String("habit", id),
			zap.Int("repetitions", h.RepetitionCount),
			zap.Float64("automaticity", h.Automaticity))
	}
	h.Formed = formed

	return h.Automaticity, true
}

// IsFormed reports whether the habit has reached automaticity.
func (t *HabitTracker) IsFormed(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.habits[id]
	return ok && h.Formed
}

// Get returns a snapshot of a habit.
func (t *HabitTracker) Get(id string) (Habit, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.habits[id]
	if !ok {
		return Habit{}, false
	}
	cp := *h
	cp.window = nil
	return cp, true
}

// List returns snapshots of all tracked habits.
func (t *HabitTracker) List() []Habit {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Habit, 0, len(t.habits))
	for _, h := range t.habits {
		cp := *h
		cp.window = nil
		out = append(out, cp)
	}
	return out
}
