package trace

import (
	"time"

	"github.com/nidhogg/plasticity/internal/plasticity"
)

// SynapseState classifies an association edge by its weight.
type SynapseState string

const (
	SynapsePotentiated SynapseState = "potentiated" // weight > 0.7
	SynapseDepressed   SynapseState = "depressed"   // weight < 0.3
	SynapseBaseline    SynapseState = "baseline"
)

// synapseStateLabels maps states to display strings, keeping presentation
// text out of the classification logic.
var synapseStateLabels = map[SynapseState]string{
	SynapsePotentiated: "Potentiated",
	SynapseDepressed:   "Depressed",
	SynapseBaseline:    "Baseline",
}

// SynapseStateLabel returns the display label for a synapse state.
func SynapseStateLabel(s SynapseState) string {
	if l, ok := synapseStateLabels[s]; ok {
		return l
	}
	return string(s)
}

// Synapse is the association weight between an unordered pair of traces.
// A and B are held in canonical order (A < B).
type Synapse struct {
	A               string       `json:"id_a"`
	B               string       `json:"id_b"`
	Weight          float64      `json:"weight"`
	ActivationCount int          `json:"activation_count"`
	LastUpdate      time.Time    `json:"last_update"`
	State           SynapseState `json:"state"`
}

func classify(weight float64) SynapseState {
	switch {
	case weight > 0.7:
		return SynapsePotentiated
	case weight < 0.3:
		return SynapseDepressed
	default:
		return SynapseBaseline
	}
}

type pairKey struct {
	a, b string
}

func keyOf(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// SynapseGraph holds exactly one weight entry per unordered trace pair.
// It references trace ids by value and owns nothing else. All methods
// assume the owning Store's lock is held.
type SynapseGraph struct {
	edges map[pairKey]*Synapse
}

// NewSynapseGraph creates an empty graph.
func NewSynapseGraph() *SynapseGraph {
	return &SynapseGraph{edges: make(map[pairKey]*Synapse)}
}

// ensure returns the edge for (a,b), creating a baseline entry if needed.
func (g *SynapseGraph) ensure(a, b string, now time.Time) *Synapse {
	k := keyOf(a, b)
	s, ok := g.edges[k]
	if !ok {
		s = &Synapse{A: k.a, B: k.b, Weight: 0.5, LastUpdate: now}
		g.edges[k] = s
	}
	return s
}

// get returns the edge for (a,b) if present.
func (g *SynapseGraph) get(a, b string) (*Synapse, bool) {
	s, ok := g.edges[keyOf(a, b)]
	return s, ok
}

// adjust shifts an edge weight by delta, clamped to [0,1].
func (g *SynapseGraph) adjust(a, b string, delta float64, now time.Time) {
	s := g.ensure(a, b, now)
	s.Weight = plasticity.Clamp01(s.Weight + delta)
	s.ActivationCount++
	s.LastUpdate = now
}

// hebbian applies the co-activation rule to an edge.
func (g *SynapseGraph) hebbian(rules plasticity.Rules, a, b string, pre, post float64, now time.Time) {
	s := g.ensure(a, b, now)
	s.Weight = rules.Hebbian(pre, post, s.Weight)
	s.ActivationCount++
	s.LastUpdate = now
}

// decaySweep weakens every edge untouched for over an hour by
// decayFactor per idle hour. Returns the number of edges decayed.
func (g *SynapseGraph) decaySweep(decayFactor float64, now time.Time) int {
	decayed := 0
	for _, s := range g.edges {
		idle := now.Sub(s.LastUpdate).Hours()
		if idle <= 1 {
			continue
		}
		s.Weight = plasticity.Clamp01(s.Weight - decayFactor*idle)
		s.LastUpdate = now
		decayed++
	}
	return decayed
}

// all returns classified snapshots of every edge.
func (g *SynapseGraph) all() []Synapse {
	out := make([]Synapse, 0, len(g.edges))
	for _, s := range g.edges {
		cp := *s
		cp.State = classify(cp.Weight)
		out = append(out, cp)
	}
	return out
}

func (g *SynapseGraph) len() int { return len(g.edges) }
