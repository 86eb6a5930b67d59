package bridge

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/nidhogg/plasticity/internal/clock"
	"github.com/nidhogg/plasticity/internal/consolidate"
	"github.com/nidhogg/plasticity/internal/plasticity"
	"github.com/nidhogg/plasticity/internal/trace"
	"go.uber.org/zap"
)

var (
	// ErrUnknownPriority is returned for an unrecognized priority name.
	ErrUnknownPriority = errors.New("unknown priority")
	// ErrUnknownSource is returned for an unrecognized reinforcement source.
	ErrUnknownSource = errors.New("unknown reinforcement source")
)

// priorityMultipliers scales consolidation effort by caller priority.
var priorityMultipliers = map[string]float64{
	"high":   1.5,
	"normal": 1.0,
	"low":    0.7,
}

// sourceMultipliers scales reinforcement by where it originated.
var sourceMultipliers = map[string]float64{
	"manual":            1.0,
	"access":            0.7,
	"association":       0.8,
	"emotional_trigger": 1.3,
}

// emotionBonuses adds a flat reinforcement bonus per emotional context.
var emotionBonuses = map[string]float64{
	"joy":       0.15,
	"love":      0.20,
	"nostalgia": 0.12,
	"pride":     0.10,
	"stress":    0.08,
	"fear":      0.10,
}

const defaultEmotionBonus = 0.05

// Config holds the bridge's tunables.
type Config struct {
	LTPThresholdAccesses   int     // accesses before reads escalate to LTP
	ConsolidationThreshold float64 // strength marking full consolidation
	EscalationFreqHz       float64 // LTP frequency for escalated accesses
	EscalationDurationMin  float64 // LTP duration for escalated accesses
}

// DefaultConfig returns the standard bridge parameters.
func DefaultConfig() Config {
	return Config{
		LTPThresholdAccesses:   3,
		ConsolidationThreshold: 0.7,
		EscalationFreqHz:       15,
		EscalationDurationMin:  5,
	}
}

// record is the bridge-local reinforcement shadow: a rate-limiting
// counter separate from the trace's own access count.
type record struct {
	internalID            string
	accessFrequency       int
	reinforcementStrength float64
}

// Bridge maps opaque external memory ids onto internal traces and adds
// priority- and emotion-weighted consolidation and reinforcement on top
// of the raw store operations.
type Bridge struct {
	store     *trace.Store
	clock     clock.Clock
	cfg       Config
	records   map[string]*record
	pending   map[string]struct{}
	observers []consolidate.Observer
	mu        sync.Mutex
	logger    *zap.Logger
}

// New creates a memory bridge over a trace store.
func New(store *trace.Store, clk clock.Clock, cfg Config, logger *zap.Logger) *Bridge {
	if cfg.LTPThresholdAccesses == 0 {
		cfg = DefaultConfig()
	}
	return &Bridge{
		store:   store,
		clock:   clk,
		cfg:     cfg,
		records: make(map[string]*record),
		pending: make(map[string]struct{}),
		logger:  logger,
	}
}

// AddObserver registers an observer notified when a bridged memory
// becomes fully consolidated. Catch-log-continue, append-only.
func (b *Bridge) AddObserver(o consolidate.Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// Register creates an internal trace for an external memory id, starts
// its reinforcement record, and queues it for consolidation. Registering
// an id again replaces the previous mapping.
func (b *Bridge) Register(externalID string, content interface{}, initialWeight float64, tags []string) trace.Trace {
	internalID := uuid.New().String()
	t := b.store.Create(internalID, content, initialWeight, tags)

	b.mu.Lock()
	defer b.mu.Unlock()
	if old, exists := b.records[externalID]; exists {
		b.logger.Warn("external memory re-registered",
			zap.String("external_id", externalID),
			zap.String("old_internal_id", old.internalID))
	}
	b.records[externalID] = &record{internalID: internalID}
	b.pending[externalID] = struct{}{}
	return t
}

// Access retrieves a bridged memory and bumps the bridge-local access
// frequency. Once that counter reaches the LTP threshold, this and every
// subsequent access also fires an LTP burst (continuous escalation).
// Unknown ids yield nil.
func (b *Bridge) Access(externalID string) *trace.Trace {
	b.mu.Lock()
	rec, ok := b.records[externalID]
	if !ok {
		b.mu.Unlock()
		return nil
	}
	rec.accessFrequency++
	escalate := rec.accessFrequency >= b.cfg.LTPThresholdAccesses
	internalID := rec.internalID
	b.mu.Unlock()

	t, found := b.store.Access(internalID)
	if !found {
		return nil
	}
	if escalate {
		t, _ = b.store.ApplyLTP(internalID, b.cfg.EscalationFreqHz, b.cfg.EscalationDurationMin)
	}
	return &t
}

// Consolidate applies a priority- and emotion-weighted consolidation
// pass to one bridged memory. Older memories receive exponentially less
// effort (time decay over 24h). Crossing the consolidation threshold
// marks the memory fully consolidated, removes it from the pending queue
// and notifies observers exactly once. Unknown ids yield (nil, nil).
func (b *Bridge) Consolidate(externalID string, emotionalIntensity float64, priority string) (*trace.Trace, error) {
	multiplier, ok := priorityMultipliers[priority]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPriority, priority)
	}
	intensity := plasticity.Clamp01(emotionalIntensity)

	b.mu.Lock()
	rec, found := b.records[externalID]
	if !found {
		b.mu.Unlock()
		return nil, nil
	}
	internalID := rec.internalID
	b.mu.Unlock()

	t, exists := b.store.Get(internalID)
	if !exists {
		return nil, nil
	}

	ageHours := b.clock.Now().Sub(t.CreatedAt).Hours()
	timeDecay := math.Exp(-ageHours / 24)

	freq := (10 + 10*intensity) * multiplier * timeDecay
	duration := 5 + 5*intensity
	b.store.ApplyLTP(internalID, freq, duration)

	dStrength := 0.3 * multiplier * timeDecay
	if intensity > 0.6 {
		dStrength += (intensity - 0.6) * 0.5
	}
	dWeight := 0.1 * multiplier * (1 + 0.5*intensity) * timeDecay

	crossed, _ := b.store.BoostConsolidation(internalID, dStrength, dWeight, b.cfg.ConsolidationThreshold)
	if crossed {
		b.mu.Lock()
		delete(b.pending, externalID)
		b.mu.Unlock()
		b.notify(externalID)
		b.logger.Info("memory fully consolidated",
			zap.String("external_id", externalID),
			zap.String("priority", priority))
	}

	updated, _ := b.store.Get(internalID)
	return &updated, nil
}

// Reinforce strengthens a bridged memory, weighted by its source and
// emotional context, with diminishing returns once the memory has been
// accessed heavily. Unknown ids yield (nil, nil).
func (b *Bridge) Reinforce(externalID string, strength float64, emotionalContext, source string) (*trace.Trace, error) {
	multiplier, ok := sourceMultipliers[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	strength = plasticity.Clamp01(strength)

	bonus, ok := emotionBonuses[emotionalContext]
	if !ok {
		bonus = defaultEmotionBonus
	}

	b.mu.Lock()
	rec, found := b.records[externalID]
	if !found {
		b.mu.Unlock()
		return nil, nil
	}
	adjusted := strength*multiplier + bonus
	if rec.accessFrequency > 20 {
		adjusted *= 1 / math.Sqrt(float64(rec.accessFrequency)/20)
	}
	rec.reinforcementStrength = plasticity.Clamp01(rec.reinforcementStrength + 0.1*adjusted)
	internalID := rec.internalID
	b.mu.Unlock()

	t, exists := b.store.ApplyLTP(internalID, 10+15*adjusted, 5+10*adjusted)
	if !exists {
		return nil, nil
	}
	return &t, nil
}

// Lookup returns the trace behind an external id without touching any
// counters. Unknown ids yield (zero, false).
func (b *Bridge) Lookup(externalID string) (trace.Trace, bool) {
	b.mu.Lock()
	rec, ok := b.records[externalID]
	b.mu.Unlock()
	if !ok {
		return trace.Trace{}, false
	}
	return b.store.Get(rec.internalID)
}

// Retention resolves an external id and computes its current retention.
func (b *Bridge) Retention(externalID string) (float64, bool) {
	b.mu.Lock()
	rec, ok := b.records[externalID]
	b.mu.Unlock()
	if !ok {
		return 0, false
	}
	return b.store.Retention(rec.internalID), true
}

// Associate links two bridged memories by external id.
func (b *Bridge) Associate(externalA, externalB string) bool {
	b.mu.Lock()
	ra, okA := b.records[externalA]
	rb, okB := b.records[externalB]
	b.mu.Unlock()
	if !okA || !okB {
		return false
	}
	return b.store.Associate(ra.internalID, rb.internalID)
}

// AccessFrequency exposes the bridge-local counter for an external id.
func (b *Bridge) AccessFrequency(externalID string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[externalID]
	if !ok {
		return 0, false
	}
	return rec.accessFrequency, true
}

// Pending returns the external ids still queued for consolidation.
func (b *Bridge) Pending() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.pending))
	for id := range b.pending {
		out = append(out, id)
	}
	return out
}

// Stats summarizes the bridge for the system stats surface.
type Stats struct {
	Registered int `json:"registered"`
	Pending    int `json:"pending_consolidation"`
}

// BridgeStats returns aggregate bridge counters.
func (b *Bridge) BridgeStats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{Registered: len(b.records), Pending: len(b.pending)}
}

// notify informs observers of a full consolidation, catch-log-continue.
func (b *Bridge) notify(externalID string) {
	b.mu.Lock()
	observers := make([]consolidate.Observer, len(b.observers))
	copy(observers, b.observers)
	b.mu.Unlock()

	for _, o := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("bridge observer panicked",
						zap.String("external_id", externalID),
						zap.Any("panic", r))
				}
			}()
			o.OnConsolidated(externalID)
		}()
	}
}
