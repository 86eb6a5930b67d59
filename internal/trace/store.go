package trace

import (
	"sync"

	"github.com/nidhogg/plasticity/internal/clock"
	"github.com/nidhogg/plasticity/internal/plasticity"
	"go.uber.org/zap"
)

// coActivation is the assumed activation level of both sides when an
// access propagates a Hebbian update to associated traces.
const coActivation = 0.7

// Store owns all memory traces and their synaptic edges. One mutex guards
// both: an access or LTP call updates a trace and every one of its edges
// as a single logical operation.
type Store struct {
	mu     sync.RWMutex
	traces map[string]*Trace
	graph  *SynapseGraph
	rules  plasticity.Rules
	curve  plasticity.ForgettingCurve
	clock  clock.Clock
	logger *zap.Logger
}

// NewStore creates an empty trace store.
func NewStore(rules plasticity.Rules, curve plasticity.ForgettingCurve, clk clock.Clock, logger *zap.Logger) *Store {
	return &Store{
		traces: make(map[string]*Trace),
		graph:  NewSynapseGraph(),
		rules:  rules,
		curve:  curve,
		clock:  clk,
		logger: logger,
	}
}

// Create inserts a trace. An existing trace with the same id is replaced
// wholesale, including its consolidation state; the replacement is logged
// so callers can spot unintended overwrites.
func (s *Store) Create(id string, content interface{}, initialWeight float64, tags []string) Trace {
	now := s.clock.Now()
	initialWeight = plasticity.Clamp01(initialWeight)

	t := &Trace{
		ID:             id,
		Content:        content,
		InitialWeight:  initialWeight,
		Weight:         initialWeight,
		CreatedAt:      now,
		LastAccessedAt: now,
		EmotionalTags:  make(map[string]struct{}, len(tags)),
		Associated:     make(map[string]struct{}),
	}
	for _, tag := range tags {
		t.EmotionalTags[tag] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.traces[id]; exists {
		s.logger.Warn("trace replaced", zap.String("id", id))
	}
	s.traces[id] = t
	return t.snapshot()
}

// Get returns a snapshot of a trace.
func (s *Store) Get(id string) (Trace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.traces[id]
	if !ok {
		return Trace{}, false
	}
	return t.snapshot(), true
}

// Access records a retrieval: bumps the access counter, applies Hebbian
// self-reinforcement to the trace weight, and strengthens every
// associated edge as if both sides co-fired at 0.7 activation.
func (s *Store) Access(id string) (Trace, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traces[id]
	if !ok {
		return Trace{}, false
	}

	t.AccessCount++
	t.LastAccessedAt = now
	t.Weight = plasticity.Clamp01(t.Weight + 0.1*s.rules.LearningRate)

	for other := range t.Associated {
		s.graph.hebbian(s.rules, id, other, coActivation, coActivation, now)
	}
	return t.snapshot(), true
}

// Associate links two traces symmetrically and ensures a synapse entry
// exists for the pair. Idempotent. Returns false if either id is unknown.
func (s *Store) Associate(a, b string) bool {
	if a == b {
		return false
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	ta, okA := s.traces[a]
	tb, okB := s.traces[b]
	if !okA || !okB {
		return false
	}

	ta.Associated[b] = struct{}{}
	tb.Associated[a] = struct{}{}
	s.graph.ensure(a, b, now)
	return true
}

// Retention estimates how retrievable a trace is right now. Unknown ids
// yield 0.
func (s *Store) Retention(id string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.traces[id]
	if !ok {
		return 0
	}
	return s.retentionLocked(t)
}

// retentionLocked computes retention for a held trace. Caller must hold
// at least a read lock.
func (s *Store) retentionLocked(t *Trace) float64 {
	hours := s.clock.Now().Sub(t.LastAccessedAt).Hours()
	strength := (t.Weight + 0.5*t.ConsolidationStrength) * (1 + 0.1*float64(t.AccessCount))
	return s.curve.Retention(hours, strength)
}

// WeakMemories returns traces whose retention or weight has fallen below
// the threshold.
func (s *Store) WeakMemories(threshold float64) []Trace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Trace
	for _, t := range s.traces {
		if s.retentionLocked(t) < threshold || t.Weight < threshold {
			out = append(out, t.snapshot())
		}
	}
	return out
}

// StrongMemories returns traces whose retention meets the threshold.
func (s *Store) StrongMemories(threshold float64) []Trace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Trace
	for _, t := range s.traces {
		if s.retentionLocked(t) >= threshold {
			out = append(out, t.snapshot())
		}
	}
	return out
}

// ApplyLTP potentiates a trace with a high-frequency burst. The delta is
// propagated to every associated synapse as if those pairs co-fired.
// Below the frequency gate the call is a no-op.
func (s *Store) ApplyLTP(id string, freqHz, durationMin float64) (Trace, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traces[id]
	if !ok {
		return Trace{}, false
	}

	delta, gated := s.rules.LTPDelta(freqHz, durationMin)
	if !gated {
		return t.snapshot(), true
	}

	t.Weight = plasticity.Clamp01(t.Weight + delta)
	for other := range t.Associated {
		s.graph.adjust(id, other, delta, now)
	}

	s.logger.Debug("LTP applied",
		zap.String("id", id),
		zap.Float64("freq_hz", freqHz),
		zap.Float64("delta", delta))
	return t.snapshot(), true
}

// ApplyLTD depresses a trace with low-frequency stimulation. No synaptic
// propagation. Above the frequency gate the call is a no-op.
func (s *Store) ApplyLTD(id string, freqHz, durationMin float64) (Trace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traces[id]
	if !ok {
		return Trace{}, false
	}

	delta, gated := s.rules.LTDDelta(freqHz, durationMin)
	if !gated {
		return t.snapshot(), true
	}

	t.Weight = plasticity.Clamp01(t.Weight - delta)
	return t.snapshot(), true
}

// AdvanceConsolidation sets a trace's phase-derived consolidation
// strength. The consolidated flag is one-way: once set it never reverts.
func (s *Store) AdvanceConsolidation(id string, strength float64, markConsolidated bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traces[id]
	if !ok {
		return false
	}
	t.ConsolidationStrength = plasticity.Clamp01(strength)
	if markConsolidated {
		t.Consolidated = true
	}
	return true
}

// BoostConsolidation additively strengthens a trace's consolidation and
// weight, both clamped. Returns crossed=true on the transition where the
// consolidation strength first reaches the threshold.
func (s *Store) BoostConsolidation(id string, dStrength, dWeight, threshold float64) (crossed, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traces[id]
	if !ok {
		return false, false
	}

	t.ConsolidationStrength = plasticity.Clamp01(t.ConsolidationStrength + dStrength)
	t.Weight = plasticity.Clamp01(t.Weight + dWeight)

	if !t.Consolidated && t.ConsolidationStrength >= threshold {
		t.Consolidated = true
		return true, true
	}
	return false, true
}

// DecaySynapses weakens idle edges. Intended to run on a maintenance tick.
func (s *Store) DecaySynapses(decayFactor float64) int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.decaySweep(decayFactor, now)
}

// Synapse returns the classified edge for a pair, if one exists.
func (s *Store) Synapse(a, b string) (Synapse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sy, ok := s.graph.get(a, b)
	if !ok {
		return Synapse{}, false
	}
	cp := *sy
	cp.State = classify(cp.Weight)
	return cp, true
}

// Synapses returns classified snapshots of every edge.
func (s *Store) Synapses() []Synapse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.all()
}

// List returns snapshots of every trace.
func (s *Store) List() []Trace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Trace, 0, len(s.traces))
	for _, t := range s.traces {
		out = append(out, t.snapshot())
	}
	return out
}

// Len returns the number of traces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.traces)
}

// Stats summarizes the store for the system stats surface.
type Stats struct {
	Traces       int     `json:"traces"`
	Consolidated int     `json:"consolidated"`
	AvgWeight    float64 `json:"avg_weight"`
	Synapses     int     `json:"synapses"`
	Potentiated  int     `json:"potentiated"`
	Depressed    int     `json:"depressed"`
}

// StoreStats returns aggregate counters over traces and edges.
func (s *Store) StoreStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Traces: len(s.traces), Synapses: s.graph.len()}
	total := 0.0
	for _, t := range s.traces {
		total += t.Weight
		if t.Consolidated {
			st.Consolidated++
		}
	}
	if len(s.traces) > 0 {
		st.AvgWeight = total / float64(len(s.traces))
	}
	for _, sy := range s.graph.edges {
		switch classify(sy.Weight) {
		case SynapsePotentiated:
			st.Potentiated++
		case SynapseDepressed:
			st.Depressed++
		}
	}
	return st
}
